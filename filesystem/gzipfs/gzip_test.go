package gzipfs_test

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem/directory"
	"github.com/pluto-org-co/afqhcp/filesystem/gzipfs"
	"github.com/pluto-org-co/afqhcp/filesystem/testsuite"
	"github.com/stretchr/testify/assert"
)

func Test_Gzip(t *testing.T) {
	assertions := assert.New(t)

	tempDir := t.TempDir()
	localRoot := directory.New(tempDir, 0o777, 0o777)

	gzipRoot := gzipfs.New(gzip.BestCompression, localRoot)

	t.Run("Open compressed", func(t *testing.T) {
		assertions := assert.New(t)

		file, err := os.Create(filepath.Join(tempDir, "image.nii.gz"))
		if !assertions.Nil(err, "failed to create file") {
			return
		}
		writer := gzip.NewWriter(file)
		_, err = io.Copy(writer, strings.NewReader(strings.Repeat("voxel", 1024)))
		assertions.Nil(err)
		assertions.Nil(writer.Close())
		assertions.Nil(file.Close())
		defer os.Remove(file.Name())

		ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
		defer cancel()

		rc, err := gzipRoot.Open(ctx, []string{"image.nii.gz"})
		if !assertions.Nil(err, "failed to open file") {
			return
		}
		defer rc.Close()

		contents, err := io.ReadAll(rc)
		if !assertions.Nil(err, "failed to read contents") {
			return
		}
		assertions.Equal(strings.Repeat("voxel", 1024), string(contents), "contents should be decompressed")
	})

	assertions.NotNil(gzipRoot)
	t.Run("Testsuite", testsuite.TestFilesystem(t, gzipRoot))
}
