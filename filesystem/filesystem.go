package filesystem

import (
	"context"
	"io"
	"iter"
	"path"
	"time"
)

type FileEntry interface {
	// Location of the file relative to the filesystem root
	Location() (location []string)
	ModTime() (modTime time.Time)
}

type SimpleFileEntry struct {
	LocationValue []string
	ModTimeValue  time.Time
}

var _ FileEntry = (*SimpleFileEntry)(nil)

func (s *SimpleFileEntry) Location() (location []string) {
	return s.LocationValue
}

func (s *SimpleFileEntry) ModTime() (modTime time.Time) {
	return s.ModTimeValue
}

func (s *SimpleFileEntry) String() string {
	return path.Join(s.LocationValue...)
}

type Filesystem interface {
	// Returns a cheap checksum based on the modification time and size of the file.
	// Used to decide if a file needs to be transferred again
	ChecksumTime(ctx context.Context, location []string) (checksum string, err error)
	// Returns the hex encoded sha256 of the file contents
	ChecksumSha256(ctx context.Context, location []string) (checksum string, err error)
	// Returns the seq of all available files in the filesystem
	Files(ctx context.Context) (seq iter.Seq[FileEntry])
	// Opens a reader for the passed file.
	Open(ctx context.Context, location []string) (rc io.ReadCloser, err error)
	// Writes the reader to the dst location.
	// Returned location is the actual one used during the write. Done this way since some implementation may alter it
	// during normalization
	WriteFile(ctx context.Context, location []string, src io.Reader, modTime time.Time) (finalLocation []string, err error)
	// Remove the location from the filesystem
	RemoveAll(ctx context.Context, location []string) (err error)
}
