package directory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/ioutils"
)

type Directory struct {
	dirPerm       fs.FileMode
	filePerm      fs.FileMode
	baseDirectory string
}

// Creates a new Local Filesystem, Root is the directory only have access to.
// dirPerm corresponds to the permissions used when creating new directories.
// filePerm corresponds to the permissions used when creating a new.
func New(root string, dirPerm, filePerm fs.FileMode) (l *Directory) {
	return &Directory{
		filePerm:      filePerm,
		dirPerm:       dirPerm,
		baseDirectory: root,
	}
}

var (
	_ filesystem.Filesystem = (*Directory)(nil)
	_ filesystem.Sizer      = (*Directory)(nil)
)

func (l *Directory) Root() (root string) {
	return l.baseDirectory
}

// Resolves the location to a path on disk. Locations escaping the root are rejected
func (l *Directory) Path(location []string) (realPath string, err error) {
	rel := filepath.Clean(filepath.Join(location...))
	if rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("invalid location: %s", strings.Join(location, "/"))
	}
	return filepath.Join(l.baseDirectory, rel), nil
}

func (l *Directory) ChecksumTime(ctx context.Context, location []string) (checksum string, err error) {
	realPath, err := l.Path(location)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}

	return ioutils.ChecksumTime(info.ModTime(), info.Size()), nil
}

func (l *Directory) Size(ctx context.Context, location []string) (size int64, err error) {
	realPath, err := l.Path(location)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return 0, fmt.Errorf("failed to get file info: %w", err)
	}
	return info.Size(), nil
}

func (l *Directory) ChecksumSha256(ctx context.Context, location []string) (checksum string, err error) {
	file, err := l.Open(ctx, location)
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

func (l *Directory) Files(ctx context.Context) (seq iter.Seq[filesystem.FileEntry]) {
	return func(yield func(filesystem.FileEntry) bool) {
		conf := fastwalk.DefaultConfig

		worker := make(chan filesystem.FileEntry, 1_000)
		closeCh := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer close(worker)

			fastwalk.Walk(&conf, l.baseDirectory, func(fileLocation string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}

				if d.IsDir() || !d.Type().IsRegular() {
					return nil
				}

				info, err := d.Info()
				if err != nil {
					return nil
				}

				filename, _ := filepath.Rel(l.baseDirectory, fileLocation)
				entry := &filesystem.SimpleFileEntry{
					LocationValue: strings.Split(filepath.ToSlash(filename), "/"),
					ModTimeValue:  info.ModTime(),
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-closeCh:
					return io.EOF
				case worker <- entry:
					return nil
				}
			})
		}()
		defer func() {
			close(closeCh)
			// Drain so the walker unblocks and exits
			for range worker {
			}
			<-done
		}()

		for entry := range worker {
			if !yield(entry) {
				return
			}
		}
	}
}

func (l *Directory) Open(_ context.Context, location []string) (rc io.ReadCloser, err error) {
	realPath, err := l.Path(location)
	if err != nil {
		return nil, err
	}
	return os.Open(realPath)
}

func (l *Directory) WriteFile(ctx context.Context, location []string, src io.Reader, modTime time.Time) (finalLocation []string, err error) {
	realPath, err := l.Path(location)
	if err != nil {
		return nil, err
	}

	err = ctx.Err()
	if err != nil {
		return location, fmt.Errorf("context error during directory creation: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(realPath), l.dirPerm)
	if err != nil {
		return location, fmt.Errorf("failed to create file directory: %w", err)
	}

	// Contents go to a sibling first, realPath only ever holds complete files
	file, err := os.CreateTemp(filepath.Dir(realPath), "."+filepath.Base(realPath)+".*.partial")
	if err != nil {
		return location, fmt.Errorf("failed to create dst file: %w", err)
	}
	tempPath := file.Name()
	defer func() {
		if err == nil {
			return
		}
		os.Remove(tempPath)
	}()

	dst := bufio.NewWriterSize(file, ioutils.DefaultBufferSize)

	_, err = ioutils.CopyContext(ctx, dst, src, ioutils.DefaultBufferSize)
	if err != nil {
		file.Close()
		return location, fmt.Errorf("failed to copy contents: %w", err)
	}

	err = errors.Join(dst.Flush(), file.Close())
	if err != nil {
		return location, fmt.Errorf("failed to close dst file: %w", err)
	}

	err = os.Chmod(tempPath, l.filePerm)
	if err != nil {
		return location, fmt.Errorf("failed to set file permissions: %w", err)
	}

	if !modTime.IsZero() {
		err = os.Chtimes(tempPath, modTime, modTime)
		if err != nil {
			return location, fmt.Errorf("failed to set modification time: %w", err)
		}
	}

	err = os.Rename(tempPath, realPath)
	if err != nil {
		return location, fmt.Errorf("failed to move file into place: %w", err)
	}
	return location, nil
}

func (l *Directory) RemoveAll(ctx context.Context, location []string) (err error) {
	realPath, err := l.Path(location)
	if err != nil {
		return err
	}

	return os.RemoveAll(realPath)
}
