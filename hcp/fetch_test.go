package hcp_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem/directory"
	"github.com/pluto-org-co/afqhcp/hcp"
	"github.com/pluto-org-co/afqhcp/hcp/hcptest"
	"github.com/stretchr/testify/assert"
)

func Test_Fetch(t *testing.T) {
	assertions := assert.New(t)

	study := hcp.Study("1200")
	bucketDir := t.TempDir()
	for _, subject := range []int{100307, 100408} {
		err := hcptest.WriteSubject(bucketDir, study, subject, 6)
		if !assertions.Nil(err, "failed to prepare subject") {
			return
		}
	}
	src := directory.New(bucketDir, 0o755, 0o644)

	studyDir := filepath.Join(t.TempDir(), study)
	dst := directory.New(studyDir, 0o755, 0o644)

	ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
	defer cancel()

	opts := hcp.FetchOptions{
		Study:    study,
		Subjects: []int{100307, 100408},
		Workers:  4,
	}

	t.Run("Succeed", func(t *testing.T) {
		assertions := assert.New(t)

		dataset, stats, err := hcp.Fetch(ctx, dst, src, opts)
		if !assertions.Nil(err, "failed to fetch") {
			return
		}
		assertions.Equal(studyDir, dataset.Root)
		assertions.Len(dataset.Files, 10)
		assertions.EqualValues(10, stats.Downloaded)
		assertions.Zero(stats.Skipped)
		assertions.NotZero(stats.Bytes)

		for _, file := range dataset.Files {
			_, err := os.Stat(filepath.Join(append([]string{studyDir}, file.Location...)...))
			assertions.Nil(err, "file should be fetched: %s", file.Key)
		}

		for _, location := range []string{
			"dataset_description.json",
			"derivatives/dmriprep/dataset_description.json",
		} {
			contents, err := os.ReadFile(filepath.Join(studyDir, location))
			if !assertions.Nil(err, "description should be written: %s", location) {
				continue
			}
			desc, err := hcp.ParseDescription(contents)
			if !assertions.Nil(err, "failed to parse description") {
				continue
			}
			assertions.Equal(study, desc.Name)
		}

		info, err := os.Stat(filepath.Join(studyDir, "sub-100307", "ses-01"))
		if assertions.Nil(err, "raw subject directory should exist") {
			assertions.True(info.IsDir())
		}

		t.Run("Resume", func(t *testing.T) {
			assertions := assert.New(t)

			_, stats, err := hcp.Fetch(ctx, dst, src, opts)
			if !assertions.Nil(err, "failed to fetch") {
				return
			}
			assertions.Zero(stats.Downloaded, "present files should not be downloaded again")
			assertions.EqualValues(10, stats.Skipped)
		})
		t.Run("Truncated", func(t *testing.T) {
			assertions := assert.New(t)

			anat := dataset.Files[3]
			localFile := filepath.Join(append([]string{studyDir}, anat.Location...)...)
			remoteFile := filepath.Join(append([]string{bucketDir}, strings.Split(anat.Key, "/")...)...)

			err := os.Truncate(localFile, 1)
			if !assertions.Nil(err, "failed to truncate local file") {
				return
			}

			_, stats, err := hcp.Fetch(ctx, dst, src, opts)
			if !assertions.Nil(err, "failed to fetch") {
				return
			}
			assertions.EqualValues(1, stats.Downloaded, "incomplete files should be downloaded again")
			assertions.EqualValues(9, stats.Skipped)

			local, err := os.ReadFile(localFile)
			if !assertions.Nil(err) {
				return
			}
			remote, err := os.ReadFile(remoteFile)
			if !assertions.Nil(err) {
				return
			}
			assertions.Equal(remote, local)
		})
	})
	t.Run("Missing subject", func(t *testing.T) {
		assertions := assert.New(t)

		dst := directory.New(t.TempDir(), 0o755, 0o644)
		_, _, err := hcp.Fetch(ctx, dst, src, hcp.FetchOptions{Study: study, Subjects: []int{999999}})
		assertions.ErrorIs(err, os.ErrNotExist, "missing remote files should fail the fetch")
	})
	t.Run("Invalid subject", func(t *testing.T) {
		assertions := assert.New(t)

		_, _, err := hcp.Fetch(ctx, dst, src, hcp.FetchOptions{Study: study, Subjects: []int{-1}})
		assertions.NotNil(err)

		_, _, err = hcp.Fetch(ctx, dst, src, hcp.FetchOptions{Study: study})
		assertions.NotNil(err)
	})
}
