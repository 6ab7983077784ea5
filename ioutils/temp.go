// Copyright (C) 2025 ZedCloud Org.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package ioutils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Seekable spool of a stream, its size is known through Stat
type File interface {
	io.ReadSeekCloser
	io.ReaderAt
	Stat() (info fs.FileInfo, err error)
}

type SelfdestructionFile struct {
	*os.File
}

func (f *SelfdestructionFile) Close() (err error) {
	f.File.Close()
	return os.Remove(f.File.Name())
}

type nopCloseFile struct {
	*os.File
}

func (f *nopCloseFile) Close() (err error) {
	return nil
}

// Spools src into a temporary file so its size is known before uploading.
// The temporary file is removed on Close.
// If src is already an *os.File it is returned as is and Close is a no-op, the caller keeps ownership of it.
func ReaderToTempFile(ctx context.Context, src io.Reader) (file File, err error) {
	if tr, ok := src.(*os.File); ok {
		return &nopCloseFile{File: tr}, nil
	}

	temp, err := os.CreateTemp("", "afqhcp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			temp.Close()
			os.Remove(temp.Name())
		}
	}()

	writer := bufio.NewWriterSize(temp, DefaultBufferSize)
	_, err = CopyContext(ctx, writer, src, DefaultBufferSize)
	if err != nil {
		return nil, fmt.Errorf("failed to copy contents: %w", err)
	}

	err = writer.Flush()
	if err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}

	_, err = temp.Seek(0, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to seek to the begining of the file: %w", err)
	}

	return &SelfdestructionFile{File: temp}, nil
}
