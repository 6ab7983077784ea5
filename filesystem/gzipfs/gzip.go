package gzipfs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/ioutils"
	"github.com/pluto-org-co/afqhcp/pool"
)

// Transparently decompresses gzip files on Open. Writes are compressed only when it saves space.
type Gzip struct {
	level int
	fs    filesystem.Filesystem
}

func New(level int, fs filesystem.Filesystem) (g *Gzip) {
	return &Gzip{
		level: level,
		fs:    fs,
	}
}

var _ filesystem.Filesystem = (*Gzip)(nil)

func (g *Gzip) ChecksumTime(ctx context.Context, location []string) (checksum string, err error) {
	return g.fs.ChecksumTime(ctx, location)
}

func (g *Gzip) ChecksumSha256(ctx context.Context, location []string) (checksum string, err error) {
	file, err := g.Open(ctx, location)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	checksum, err = ioutils.ChecksumSha256(ctx, file)
	if err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return checksum, nil
}

func (g *Gzip) Files(ctx context.Context) (seq iter.Seq[filesystem.FileEntry]) {
	return g.fs.Files(ctx)
}

func (g *Gzip) Open(ctx context.Context, location []string) (rc io.ReadCloser, err error) {
	file, err := g.fs.Open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	defer func() {
		if err != nil {
			file.Close()
		}
	}()

	var buffer = bytes.NewBuffer(nil)

	mime, err := mimetype.DetectReader(io.TeeReader(file, buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to detect mimetype: %w", err)
	}

	reader := io.MultiReader(bytes.NewReader(buffer.Bytes()), file)
	if !mime.Is("application/gzip") {
		return &readCloser{Reader: reader, close: file.Close}, nil
	}

	gzipReader := gzipReaders.Get()
	err = gzipReader.Reset(reader)
	if err != nil {
		gzipReaders.Put(gzipReader)
		return nil, fmt.Errorf("failed to prepare gzip reader: %w", err)
	}

	return &readCloser{
		Reader: gzipReader,
		close: func() (err error) {
			err = errors.Join(gzipReader.Close(), file.Close())
			gzipReaders.Put(gzipReader)
			return err
		},
	}, nil
}

// Readers are reused between files, Reset rebinds them to the new source
var gzipReaders = pool.New(func() *gzip.Reader { return new(gzip.Reader) }, nil)

type readCloser struct {
	io.Reader
	close func() (err error)
}

func (r *readCloser) Close() (err error) {
	if r.close == nil {
		return nil
	}
	closeFunc := r.close
	r.close = nil
	return closeFunc()
}

func (g *Gzip) WriteFile(ctx context.Context, location []string, src io.Reader, modTime time.Time) (finalLocation []string, err error) {
	rawFile, err := os.CreateTemp("", "afqhcp-raw-*")
	if err != nil {
		return location, fmt.Errorf("failed to create temporary raw file: %w", err)
	}
	defer rawFile.Close()
	defer os.Remove(rawFile.Name())

	compressedFile, err := os.CreateTemp("", "afqhcp-gzip-*")
	if err != nil {
		return location, fmt.Errorf("failed to create temporary gzip file: %w", err)
	}
	defer compressedFile.Close()
	defer os.Remove(compressedFile.Name())

	gzipWriter, err := gzip.NewWriterLevel(compressedFile, g.level)
	if err != nil {
		return location, fmt.Errorf("failed to prepare  gzip writer: %w", err)
	}

	dst := bufio.NewWriterSize(io.MultiWriter(gzipWriter, rawFile), ioutils.DefaultBufferSize)

	_, err = ioutils.CopyContext(ctx, dst, src, ioutils.DefaultBufferSize)
	if err != nil {
		return location, fmt.Errorf("failed to copy contents: %w", err)
	}

	err = dst.Flush()
	if err != nil {
		return location, fmt.Errorf("failed to flush buffered writer: %w", err)
	}

	err = gzipWriter.Close()
	if err != nil {
		return location, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	rawInfo, err := rawFile.Stat()
	if err != nil {
		return location, fmt.Errorf("failed to get raw file info: %w", err)
	}

	compressedInfo, err := compressedFile.Stat()
	if err != nil {
		return location, fmt.Errorf("failed to get compressed file info: %w", err)
	}

	target := rawFile
	if compressedInfo.Size() < rawInfo.Size() {
		target = compressedFile
	}

	_, err = target.Seek(0, io.SeekStart)
	if err != nil {
		return location, fmt.Errorf("failed to seek: %w", err)
	}

	return g.fs.WriteFile(ctx, location, target, modTime)
}

func (g *Gzip) RemoveAll(ctx context.Context, location []string) (err error) {
	return g.fs.RemoveAll(ctx, location)
}
