package filesystem

import (
	"context"
	"fmt"
	"time"
)

func copyLocation(ctx context.Context, dst, src Filesystem, location []string, modTime time.Time) (err error) {
	file, err := src.Open(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to open src file: %w", err)
	}
	defer file.Close()

	_, err = dst.WriteFile(ctx, location, file, modTime)
	if err != nil {
		return fmt.Errorf("failed to write dst file: %w", err)
	}

	return nil
}

// Copies the single location from src into dst
func CopyFile(ctx context.Context, dst, src Filesystem, location []string) (err error) {
	err = copyLocation(ctx, dst, src, location, time.Now())
	if err != nil {
		return fmt.Errorf("failed to copy: %s: %w", LocationString(location), err)
	}
	return nil
}

// Copies every file of src into dst, stopping at the first error.
func Copy(ctx context.Context, dst, src Filesystem) (err error) {
	for entry := range src.Files(ctx) {
		err = copyLocation(ctx, dst, src, entry.Location(), entry.ModTime())
		if err != nil {
			return fmt.Errorf("failed to copy: %s: %w", LocationString(entry.Location()), err)
		}
	}
	return ctx.Err()
}
