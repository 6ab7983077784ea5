package hcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/filesystem/directory"
	"github.com/pluto-org-co/afqhcp/ioutils"
	"golang.org/x/sync/errgroup"
)

type FetchOptions struct {
	Study    string
	Subjects []int
	Workers  int
	Logger   *slog.Logger
}

type Dataset struct {
	// Directory holding the study, used as the BIDS root
	Root     string
	Study    string
	Subjects []int
	Files    []File
}

type FetchStats struct {
	Downloaded int64
	Skipped    int64
	Bytes      int64
}

const descriptionFile = "dataset_description.json"

// Downloads the diffusion and anatomical files of every subject from src into dst.
// Files already present in dst with the remote size are kept, so an interrupted fetch can be resumed.
func Fetch(ctx context.Context, dst *directory.Directory, src filesystem.Filesystem, opts FetchOptions) (dataset Dataset, stats FetchStats, err error) {
	if opts.Study == "" {
		opts.Study = Study(DefaultSession)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Subjects) == 0 {
		return dataset, stats, fmt.Errorf("no subjects to fetch")
	}

	dataset = Dataset{
		Root:     dst.Root(),
		Study:    opts.Study,
		Subjects: opts.Subjects,
	}
	for _, subject := range opts.Subjects {
		if subject <= 0 {
			return dataset, stats, fmt.Errorf("invalid subject: %d", subject)
		}
		dataset.Files = append(dataset.Files, Files(opts.Study, subject)...)
	}

	var (
		downloaded atomic.Int64
		skipped    atomic.Int64
		bytesCount atomic.Int64
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Workers)
	for _, file := range dataset.Files {
		group.Go(func() (err error) {
			complete, err := fetched(groupCtx, dst, src, file)
			if err != nil {
				return fmt.Errorf("failed to check local file: %s: %w", filesystem.LocationString(file.Location), err)
			}
			if complete {
				skipped.Add(1)
				return nil
			}

			start := time.Now()
			err = fetchFile(groupCtx, dst, src, file, &bytesCount)
			if err != nil {
				return fmt.Errorf("failed to fetch: %s: %w", file.Key, err)
			}
			downloaded.Add(1)
			opts.Logger.Info("Fetched", "key", file.Key, "took", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	err = group.Wait()

	stats = FetchStats{
		Downloaded: downloaded.Load(),
		Skipped:    skipped.Load(),
		Bytes:      bytesCount.Load(),
	}
	if err != nil {
		return dataset, stats, err
	}

	err = writeDescriptions(ctx, dst, opts.Study)
	if err != nil {
		return dataset, stats, err
	}

	// Raw subject directories, the BIDS layout requires them even when empty
	for _, subject := range opts.Subjects {
		rawSession := filepath.Join(dst.Root(), "sub-"+strconv.Itoa(subject), Session)
		err = os.MkdirAll(rawSession, 0o755)
		if err != nil {
			return dataset, stats, fmt.Errorf("failed to create raw subject directory: %w", err)
		}
	}

	return dataset, stats, nil
}

// Reports if the local copy of file exists and has the size of the remote object
func fetched(ctx context.Context, dst *directory.Directory, src filesystem.Filesystem, file File) (complete bool, err error) {
	localSize, err := dst.Size(ctx, file.Location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	remoteSize, err := filesystem.Size(ctx, src, strings.Split(file.Key, "/"))
	if err != nil {
		return false, fmt.Errorf("failed to get remote size: %s: %w", file.Key, err)
	}
	return localSize == remoteSize, nil
}

func fetchFile(ctx context.Context, dst, src filesystem.Filesystem, file File, counter *atomic.Int64) (err error) {
	rc, err := src.Open(ctx, strings.Split(file.Key, "/"))
	if err != nil {
		return fmt.Errorf("failed to open remote file: %w", err)
	}
	defer rc.Close()

	_, err = dst.WriteFile(ctx, file.Location, ioutils.NewCountReader(rc, counter), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write local file: %w", err)
	}
	return nil
}

func writeDescriptions(ctx context.Context, dst filesystem.Filesystem, study string) (err error) {
	descriptions := []struct {
		location    []string
		description DatasetDescription
	}{
		{location: []string{descriptionFile}, description: RawDescription(study)},
		{location: append(DmriprepLocation(), descriptionFile), description: DerivativeDescription(study, Dmriprep)},
	}

	for _, entry := range descriptions {
		contents, err := entry.description.Marshal()
		if err != nil {
			return err
		}

		_, err = dst.WriteFile(ctx, entry.location, bytes.NewReader(contents), time.Now())
		if err != nil {
			return fmt.Errorf("failed to write dataset description: %s: %w", filesystem.LocationString(entry.location), err)
		}
	}
	return nil
}
