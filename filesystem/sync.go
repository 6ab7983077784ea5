package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

type SyncCtx struct {
	MaxFiles int64
	Logger   *slog.Logger
}

type SyncOption func(ctx *SyncCtx) (err error)

func WithSyncOptionMaxFiles(maxFiles int64) (option SyncOption) {
	return func(ctx *SyncCtx) (err error) {
		ctx.MaxFiles = maxFiles
		return nil
	}
}

func WithSyncOptionLogger(logger *slog.Logger) (option SyncOption) {
	return func(ctx *SyncCtx) (err error) {
		ctx.Logger = logger
		return nil
	}
}

type SyncStats struct {
	Transferred int64
	Skipped     int64
	Failed      int64
}

func newSyncCtx(options []SyncOption) (syncCtx *SyncCtx, err error) {
	syncCtx = &SyncCtx{
		MaxFiles: -1,
		Logger:   slog.Default(),
	}
	for _, option := range options {
		err = option(syncCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return syncCtx, nil
}

// Transfers the entry when its time checksum differs between src and dst
func syncEntry(ctx context.Context, dst, src Filesystem, entry FileEntry) (transferred bool, err error) {
	srcChecksum, _ := src.ChecksumTime(ctx, entry.Location())
	dstChecksum, _ := dst.ChecksumTime(ctx, entry.Location())

	if srcChecksum != "" && srcChecksum == dstChecksum {
		return false, nil
	}

	err = copyLocation(ctx, dst, src, entry.Location(), entry.ModTime())
	if err != nil {
		return false, err
	}
	return true, nil
}

// Same as Copy but doesn't stop on file errors. Every failure is returned joined at the end
func Sync(ctx context.Context, dst, src Filesystem, options ...SyncOption) (stats SyncStats, err error) {
	return SyncWorkers(1, ctx, dst, src, options...)
}

func SyncWorkers(workersNumber int, ctx context.Context, dst, src Filesystem, options ...SyncOption) (stats SyncStats, err error) {
	syncCtx, err := newSyncCtx(options)
	if err != nil {
		return stats, err
	}
	if workersNumber < 1 {
		workersNumber = 1
	}

	var workers = make(chan struct{}, workersNumber)
	for range workersNumber {
		workers <- struct{}{}
	}

	var (
		wg          sync.WaitGroup
		errsMu      sync.Mutex
		errs        []error
		transferred atomic.Int64
		skipped     atomic.Int64
	)

	var count int64
loop:
	for entry := range src.Files(ctx) {
		if syncCtx.MaxFiles > 0 && count >= syncCtx.MaxFiles {
			break
		}
		count++

		select {
		case <-ctx.Done():
			break loop
		case <-workers:
			wg.Go(func() {
				defer func() { workers <- struct{}{} }()

				ok, err := syncEntry(ctx, dst, src, entry)
				if err != nil {
					err = fmt.Errorf("failed to sync: %s: %w", LocationString(entry.Location()), err)
					syncCtx.Logger.Error("sync failed", "location", LocationString(entry.Location()), "error-msg", err)

					errsMu.Lock()
					errs = append(errs, err)
					errsMu.Unlock()
					return
				}

				if ok {
					transferred.Add(1)
				} else {
					skipped.Add(1)
				}
			})
		}
	}
	wg.Wait()

	stats = SyncStats{
		Transferred: transferred.Load(),
		Skipped:     skipped.Load(),
		Failed:      int64(len(errs)),
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Errorf("failed to sync do to context error: %w", err))
	}
	return stats, errors.Join(errs...)
}
