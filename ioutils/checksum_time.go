package ioutils

import (
	"fmt"
	"time"
)

const DefaultTimeLayout = time.RFC3339

// Seconds precision, S3 drops sub-second modification times
func ChecksumTime(modTime time.Time, size int64) (checksum string) {
	return fmt.Sprintf("%s-%d", modTime.UTC().Truncate(time.Second).Format(DefaultTimeLayout), size)
}
