package ioutils

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

func ChecksumSha256(ctx context.Context, src io.Reader) (checksum string, err error) {
	hash := sha256.New()
	_, err = CopyContext(ctx, hash, bufio.NewReaderSize(src, DefaultBufferSize), DefaultBufferSize)
	if err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	checksum = hex.EncodeToString(hash.Sum(nil))
	return checksum, nil
}
