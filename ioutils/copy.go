package ioutils

import (
	"context"
	"fmt"
	"io"

	"github.com/pluto-org-co/afqhcp/pool"
)

const DefaultBufferSize = 1024 * 1024 // 1MB

var buffers = pool.Bytes(32 * 1024)

// Copies src into dst in chunks of size bytes, checking the context between chunks.
func CopyContext(ctx context.Context, dst io.Writer, src io.Reader, size int64) (n int64, err error) {
	buffer := buffers.Get()
	defer buffers.Put(buffer)

	for {
		select {
		case <-ctx.Done():
			return n, fmt.Errorf("context error during copy: %w", ctx.Err())
		default:
			chunkCopy, err := io.CopyBuffer(dst, io.LimitReader(src, size), *buffer)
			n += chunkCopy
			if err != nil {
				return n, fmt.Errorf("failed to copy chunk: %w: could write at least %d", err, n)
			}
			if chunkCopy < size {
				return n, nil
			}
		}
	}
}
