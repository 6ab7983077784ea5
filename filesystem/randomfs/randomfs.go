package randomfs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/ioutils"
	"github.com/pluto-org-co/afqhcp/random"
)

// Random read filesystem
// Used as a source of data when testing other filesystems
type Random struct {
	mu        sync.Mutex
	locations map[string]time.Time
	fileSizes int64
}

func New(locations [][]string, fileSizes int64) (r *Random) {
	now := time.Now()
	r = &Random{
		locations: make(map[string]time.Time, len(locations)),
		fileSizes: fileSizes,
	}
	for _, location := range locations {
		r.locations[path.Join(location...)] = now
	}
	return r
}

var _ filesystem.Filesystem = (*Random)(nil)

func (r *Random) ChecksumTime(ctx context.Context, location []string) (checksum string, err error) {
	r.mu.Lock()
	modTime, found := r.locations[path.Join(location...)]
	r.mu.Unlock()
	if !found {
		return "", os.ErrNotExist
	}
	return ioutils.ChecksumTime(modTime, r.fileSizes), nil
}

func (r *Random) ChecksumSha256(ctx context.Context, location []string) (checksum string, err error) {
	file, err := r.Open(ctx, location)
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

func (r *Random) Files(ctx context.Context) (seq iter.Seq[filesystem.FileEntry]) {
	r.mu.Lock()
	entries := make([]filesystem.FileEntry, 0, len(r.locations))
	for location, modTime := range r.locations {
		entries = append(entries, &filesystem.SimpleFileEntry{
			LocationValue: strings.Split(location, "/"),
			ModTimeValue:  modTime,
		})
	}
	r.mu.Unlock()

	return func(yield func(filesystem.FileEntry) bool) {
		for _, entry := range entries {
			select {
			case <-ctx.Done():
				return
			default:
				if !yield(entry) {
					return
				}
			}
		}
	}
}

func (r *Random) Open(ctx context.Context, location []string) (rc io.ReadCloser, err error) {
	r.mu.Lock()
	_, found := r.locations[path.Join(location...)]
	r.mu.Unlock()
	if !found {
		return nil, os.ErrNotExist
	}

	rc = io.NopCloser(bufio.NewReader(io.LimitReader(random.InsecureReader, r.fileSizes)))
	return rc, nil
}

func (r *Random) WriteFile(ctx context.Context, location []string, src io.Reader, modTime time.Time) (finalLocation []string, err error) {
	_, err = ioutils.CopyContext(ctx, io.Discard, src, ioutils.DefaultBufferSize)
	if err != nil {
		return location, fmt.Errorf("failed to copy contents: %w", err)
	}

	r.mu.Lock()
	r.locations[path.Join(location...)] = modTime
	r.mu.Unlock()
	return location, nil
}

func (r *Random) RemoveAll(ctx context.Context, location []string) (err error) {
	r.mu.Lock()
	delete(r.locations, path.Join(location...))
	r.mu.Unlock()
	return nil
}
