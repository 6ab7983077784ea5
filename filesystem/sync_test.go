// Copyright (C) 2025 ZedCloud Org.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package filesystem_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/filesystem/directory"
	"github.com/pluto-org-co/afqhcp/filesystem/randomfs"
	"github.com/pluto-org-co/afqhcp/filesystem/testsuite"
	"github.com/stretchr/testify/assert"
)

type failingFs struct {
	filesystem.Filesystem
}

var errWrite = errors.New("write refused")

func (f *failingFs) WriteFile(ctx context.Context, location []string, src io.Reader, modTime time.Time) (finalLocation []string, err error) {
	return nil, errWrite
}

func Test_Sync(t *testing.T) {
	assertions := assert.New(t)

	locations := testsuite.GenerateLocations(100)

	randomSrc := randomfs.New(locations, 64*1024)

	src := directory.New(t.TempDir(), 0o777, 0o777)

	ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
	defer cancel()
	err := filesystem.Copy(ctx, src, randomSrc)
	if !assertions.Nil(err, "failed to copy files") {
		return
	}

	var total int64
	for range src.Files(ctx) {
		total++
	}

	t.Run("Sync", func(t *testing.T) {
		assertions := assert.New(t)

		dst := directory.New(t.TempDir(), 0o777, 0o777)

		ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
		defer cancel()

		stats, err := filesystem.Sync(ctx, dst, src)
		if !assertions.Nil(err, "failed to sync files") {
			return
		}
		assertions.Equal(total, stats.Transferred, "every file should be transferred")

		t.Run("Second Time", func(t *testing.T) {
			assertions := assert.New(t)

			stats, err := filesystem.Sync(ctx, dst, src)
			if !assertions.Nil(err, "failed to sync files") {
				return
			}
			assertions.Zero(stats.Transferred, "unchanged files should be skipped")
			assertions.Equal(total, stats.Skipped)
		})
	})
	t.Run("SyncWorkers", func(t *testing.T) {
		assertions := assert.New(t)

		dst := directory.New(t.TempDir(), 0o777, 0o777)

		ctx, cancel := context.WithTimeout(context.TODO(), time.Minute)
		defer cancel()

		stats, err := filesystem.SyncWorkers(16, ctx, dst, src)
		if !assertions.Nil(err, "failed to sync files") {
			return
		}
		assertions.Equal(total, stats.Transferred)

		t.Run("Second Time", func(t *testing.T) {
			assertions := assert.New(t)

			stats, err := filesystem.SyncWorkers(16, ctx, dst, src)
			if !assertions.Nil(err, "failed to sync files") {
				return
			}
			assertions.Zero(stats.Transferred, "unchanged files should be skipped")
		})
	})
	t.Run("MaxFiles", func(t *testing.T) {
		assertions := assert.New(t)

		dst := directory.New(t.TempDir(), 0o777, 0o777)

		stats, err := filesystem.SyncWorkers(4, ctx, dst, src, filesystem.WithSyncOptionMaxFiles(10))
		if !assertions.Nil(err, "failed to sync files") {
			return
		}
		assertions.EqualValues(10, stats.Transferred)
	})
	t.Run("Errors", func(t *testing.T) {
		assertions := assert.New(t)

		dst := &failingFs{Filesystem: directory.New(t.TempDir(), 0o777, 0o777)}

		stats, err := filesystem.SyncWorkers(4, ctx, dst, src)
		assertions.ErrorIs(err, errWrite, "file errors should be reported")
		assertions.Equal(total, stats.Failed)
	})
}
