package testsuite

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"iter"
	"testing"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/filesystem/randomfs"
	"github.com/pluto-org-co/afqhcp/ioutils"
	"github.com/pluto-org-co/afqhcp/random"
	"github.com/stretchr/testify/assert"
)

// Populates baseFs with random files and returns the subtests exercising it
func TestFilesystem(t *testing.T, baseFs filesystem.Filesystem) func(t *testing.T) {
	assertions := assert.New(t)

	locations := GenerateLocations(50)

	randomRoot := randomfs.New(locations, 1024*1024)

	ctxCopy, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := filesystem.SyncWorkers(10, ctxCopy, baseFs, randomRoot)
	if !assertions.Nil(err, "failed to copy fs contents") {
		return func(t *testing.T) {}
	}

	return func(t *testing.T) {
		testFs := baseFs

		t.Run("Files", func(t *testing.T) {
			assertions := assert.New(t)

			ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
			defer cancel()

			var count int
			for range testFs.Files(ctx) {
				count++
			}
			assertions.NotZero(count, "should found the expected number of files")
			t.Logf("Found: %v", count)

			t.Run("EarlyBreak", func(t *testing.T) {
				assertions := assert.New(t)

				ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
				defer cancel()

				pull, stop := iter.Pull(testFs.Files(ctx))
				for range 3 {
					_, valid := pull()
					if !valid {
						break
					}
				}
				stop()

				_, valid := pull()
				assertions.False(valid, "should be invalid after stop()")
			})
		})

		t.Run("Write", func(t *testing.T) {
			assertions := assert.New(t)

			const fileSize = 8 * 1024 * 1024
			randSrc := io.LimitReader(random.InsecureReader, fileSize)

			referenceChecksumHash := sha256.New()
			counter := ioutils.NewCountWriter(referenceChecksumHash)
			randSrc = io.TeeReader(randSrc, counter)

			ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
			defer cancel()

			targetLocation, err := testFs.WriteFile(ctx, GenerateLocation(5), randSrc, time.Now())
			if !assertions.Nil(err, "failed to write random data to temporary file") {
				return
			}
			defer testFs.RemoveAll(ctx, targetLocation)

			t.Logf("WritFile Bytes count: %d", counter.Count())

			referenceChecksum := hex.EncodeToString(referenceChecksumHash.Sum(nil))
			t.Logf("Reference Checksum: %s", referenceChecksum)

			fsChecksum, err := testFs.ChecksumSha256(ctx, targetLocation)
			if !assertions.Nil(err, "failed to compute file checksum") {
				return
			}

			if !assertions.Equal(referenceChecksum, fsChecksum, "checksums doesn't match") {
				return
			}

			t.Run("ChecksumTime", func(t *testing.T) {
				assertions := assert.New(t)

				ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
				defer cancel()

				checksum, err := testFs.ChecksumTime(ctx, targetLocation)
				if !assertions.Nil(err, "failed to compute time checksum") {
					return
				}
				assertions.NotEmpty(checksum)
			})
			t.Run("Check contents", func(t *testing.T) {
				assertions := assert.New(t)

				ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
				defer cancel()

				rc, err := testFs.Open(ctx, targetLocation)
				if !assertions.Nil(err, "failed to open file") {
					return
				}
				defer rc.Close()

				computedChecksum := sha256.New()
				writer := bufio.NewWriter(computedChecksum)

				_, err = io.Copy(writer, bufio.NewReader(rc))
				if !assertions.Nil(err, "failed to write to hash") {
					return
				}
				err = writer.Flush()
				if !assertions.Nil(err, "failed to flush pending data") {
					return
				}

				readChecksum := hex.EncodeToString(computedChecksum.Sum(nil))
				assertions.Equal(referenceChecksum, readChecksum, "checksums must match")
			})
			t.Run("Canceled", func(t *testing.T) {
				assertions := assert.New(t)

				writeCtx, cancel := context.WithCancel(context.TODO())
				cancel()

				targetLocation2 := GenerateLocation(5)
				_, err = testFs.WriteFile(writeCtx, targetLocation2, io.LimitReader(random.InsecureReader, fileSize), time.Now())
				defer testFs.RemoveAll(ctx, targetLocation2)

				assertions.NotNil(err, "should fail to write file due to canceled context")
			})
		})
	}
}
