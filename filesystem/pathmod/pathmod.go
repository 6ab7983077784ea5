package pathmod

import (
	"context"
	"io"
	"iter"
	"slices"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem"
)

type PathModFunc func(oldLocation []string) (newLocation []string)

// This FS modifies the location passed to the underlying Filesystem based on a modification function.
// Listing files works as normal, every other operation is performed on the modified location.
type PathMod struct {
	fs filesystem.Filesystem
	f  PathModFunc
}

var (
	_ filesystem.Filesystem = (*PathMod)(nil)
	_ filesystem.Sizer      = (*PathMod)(nil)
)

func (p *PathMod) Size(ctx context.Context, location []string) (size int64, err error) {
	return filesystem.Size(ctx, p.fs, p.f(location))
}

func (p *PathMod) ChecksumTime(ctx context.Context, location []string) (checksum string, err error) {
	return p.fs.ChecksumTime(ctx, p.f(location))
}

func (p *PathMod) ChecksumSha256(ctx context.Context, location []string) (checksum string, err error) {
	return p.fs.ChecksumSha256(ctx, p.f(location))
}

func (p *PathMod) Files(ctx context.Context) (seq iter.Seq[filesystem.FileEntry]) {
	return p.fs.Files(ctx)
}

func (p *PathMod) Open(ctx context.Context, location []string) (rc io.ReadCloser, err error) {
	return p.fs.Open(ctx, p.f(location))
}

func (p *PathMod) WriteFile(ctx context.Context, location []string, src io.Reader, modTime time.Time) (finalLocation []string, err error) {
	_, err = p.fs.WriteFile(ctx, p.f(location), src, modTime)
	return location, err
}

func (p *PathMod) RemoveAll(ctx context.Context, location []string) (err error) {
	return p.fs.RemoveAll(ctx, p.f(location))
}

func New(fs filesystem.Filesystem, f PathModFunc) (p *PathMod) {
	return &PathMod{
		fs: fs,
		f:  f,
	}
}

// Places every location under prefix
func Prefix(fs filesystem.Filesystem, prefix ...string) (p *PathMod) {
	prefix = slices.DeleteFunc(slices.Clone(prefix), func(s string) bool { return s == "" })
	return New(fs, func(oldLocation []string) (newLocation []string) {
		newLocation = make([]string, 0, len(prefix)+len(oldLocation))
		newLocation = append(newLocation, prefix...)
		newLocation = append(newLocation, oldLocation...)
		return newLocation
	})
}
