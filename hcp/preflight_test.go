package hcp_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem/directory"
	"github.com/pluto-org-co/afqhcp/hcp"
	"github.com/pluto-org-co/afqhcp/hcp/hcptest"
	"github.com/stretchr/testify/assert"
)

func Test_ReadHeader(t *testing.T) {
	t.Run("Nifti1", func(t *testing.T) {
		assertions := assert.New(t)

		header, err := hcp.ReadHeader(bytes.NewReader(hcptest.Nifti1Header(145, 174, 145, 288)))
		if !assertions.Nil(err, "failed to read header") {
			return
		}
		assertions.Equal(1, header.Version)
		assertions.Equal([]int64{145, 174, 145, 288}, header.Dims)
		assertions.EqualValues(288, header.Volumes())
	})
	t.Run("Nifti1 big endian", func(t *testing.T) {
		assertions := assert.New(t)

		raw := make([]byte, 348)
		binary.BigEndian.PutUint32(raw[0:], 348)
		binary.BigEndian.PutUint16(raw[40:], 3)
		binary.BigEndian.PutUint16(raw[42:], 10)
		binary.BigEndian.PutUint16(raw[44:], 11)
		binary.BigEndian.PutUint16(raw[46:], 12)
		copy(raw[344:], "ni1\x00")

		header, err := hcp.ReadHeader(bytes.NewReader(raw))
		if !assertions.Nil(err, "failed to read header") {
			return
		}
		assertions.Equal([]int64{10, 11, 12}, header.Dims)
		assertions.EqualValues(1, header.Volumes())
	})
	t.Run("Nifti2", func(t *testing.T) {
		assertions := assert.New(t)

		raw := make([]byte, 544)
		binary.LittleEndian.PutUint32(raw[0:], 540)
		copy(raw[4:], "n+2\x00\r\n\032\n")
		binary.LittleEndian.PutUint16(raw[12:], 16)
		binary.LittleEndian.PutUint64(raw[16:], 4)
		for index, dim := range []uint64{96, 114, 96, 100000} {
			binary.LittleEndian.PutUint64(raw[24+8*index:], dim)
		}

		header, err := hcp.ReadHeader(bytes.NewReader(raw))
		if !assertions.Nil(err, "failed to read header") {
			return
		}
		assertions.Equal(2, header.Version)
		assertions.EqualValues(100000, header.Volumes())
	})
	t.Run("Invalid", func(t *testing.T) {
		assertions := assert.New(t)

		_, err := hcp.ReadHeader(bytes.NewReader([]byte("short")))
		assertions.ErrorIs(err, hcp.ErrInvalidHeader)

		_, err = hcp.ReadHeader(bytes.NewReader(make([]byte, 600)))
		assertions.ErrorIs(err, hcp.ErrInvalidHeader)

		raw := hcptest.Nifti1Header(2, 2, 2, 2)
		copy(raw[344:], "xxx")
		_, err = hcp.ReadHeader(bytes.NewReader(raw))
		assertions.ErrorIs(err, hcp.ErrInvalidHeader)
	})
}

func Test_Preflight(t *testing.T) {
	study := hcp.Study("1200")

	prepare := func(t *testing.T) (dst *directory.Directory, ok bool) {
		assertions := assert.New(t)

		bucketDir := t.TempDir()
		err := hcptest.WriteSubject(bucketDir, study, 100307, 7)
		if !assertions.Nil(err, "failed to prepare subject") {
			return nil, false
		}

		dst = directory.New(filepath.Join(t.TempDir(), study), 0o755, 0o644)

		ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
		defer cancel()

		_, _, err = hcp.Fetch(ctx, dst, directory.New(bucketDir, 0o755, 0o644), hcp.FetchOptions{
			Study:    study,
			Subjects: []int{100307},
		})
		return dst, assertions.Nil(err, "failed to fetch")
	}

	t.Run("Succeed", func(t *testing.T) {
		assertions := assert.New(t)

		dst, ok := prepare(t)
		if !ok {
			return
		}

		header, err := hcp.Preflight(context.TODO(), dst, 100307)
		if !assertions.Nil(err, "preflight should pass") {
			return
		}
		assertions.EqualValues(7, header.Volumes())
	})
	t.Run("Gradient mismatch", func(t *testing.T) {
		assertions := assert.New(t)

		dst, ok := prepare(t)
		if !ok {
			return
		}

		_, bvals, _ := hcp.DWILocations(100307)
		err := os.WriteFile(filepath.Join(append([]string{dst.Root()}, bvals...)...), []byte("0 1000 1000\n"), 0o644)
		if !assertions.Nil(err, "failed to overwrite bvals") {
			return
		}

		_, err = hcp.Preflight(context.TODO(), dst, 100307)
		assertions.ErrorIs(err, hcp.ErrGradientMismatch)
	})
	t.Run("Not diffusion", func(t *testing.T) {
		assertions := assert.New(t)

		dst, ok := prepare(t)
		if !ok {
			return
		}

		image, _, _ := hcp.DWILocations(100307)
		compressed, err := hcptest.Gzip(hcptest.Nifti1Header(2, 2, 2))
		if !assertions.Nil(err) {
			return
		}
		err = os.WriteFile(filepath.Join(append([]string{dst.Root()}, image...)...), compressed, 0o644)
		if !assertions.Nil(err, "failed to overwrite image") {
			return
		}

		_, err = hcp.Preflight(context.TODO(), dst, 100307)
		assertions.ErrorIs(err, hcp.ErrNotDiffusion)
	})
}
