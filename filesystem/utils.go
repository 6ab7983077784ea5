package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/pluto-org-co/afqhcp/ioutils"
)

// Reports if location can be opened in the filesystem.
// Any error different from not found is returned.
func Exists(ctx context.Context, fsys Filesystem, location []string) (exists bool, err error) {
	rc, err := fsys.Open(ctx, location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	rc.Close()
	return true, nil
}

// Implemented by filesystems able to report the size of a file without reading it
type Sizer interface {
	Size(ctx context.Context, location []string) (size int64, err error)
}

// Size in bytes of the file at location. Filesystems not implementing Sizer are read in full.
func Size(ctx context.Context, fsys Filesystem, location []string) (size int64, err error) {
	if sizer, ok := fsys.(Sizer); ok {
		return sizer.Size(ctx, location)
	}

	rc, err := fsys.Open(ctx, location)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	size, err = ioutils.CopyContext(ctx, io.Discard, rc, ioutils.DefaultBufferSize)
	if err != nil {
		return size, fmt.Errorf("failed to read file: %w", err)
	}
	return size, nil
}

func LocationString(location []string) (s string) {
	return path.Join(location...)
}
