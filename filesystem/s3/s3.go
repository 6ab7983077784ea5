package s3

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/pluto-org-co/afqhcp/filesystem"
	"github.com/pluto-org-co/afqhcp/ioutils"
)

// Generic S3 filesystem
type S3 struct {
	client *minio.Client
	bucket string
}

func New(client *minio.Client, bucket string) (s *S3) {
	return &S3{
		client: client,
		bucket: bucket,
	}
}

var (
	_ filesystem.Filesystem = (*S3)(nil)
	_ filesystem.Sizer      = (*S3)(nil)
)

func (s *S3) Bucket() (bucket string) {
	return s.bucket
}

const (
	XAmzMetaMTime = "X-Amz-Meta-Mtime"
	// Key used when writing, minio prefixes it with X-Amz-Meta-
	metaMTime = "Mtime"
)

// Converts missing keys into fs.ErrNotExist
func wrapNotFound(err error) (wrapped error) {
	if err == nil {
		return nil
	}
	response := minio.ToErrorResponse(err)
	if response.StatusCode == http.StatusNotFound || response.Code == "NoSuchKey" {
		return fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	return err
}

func LastModifiedFromObj(obj *minio.ObjectInfo) (lastModified time.Time) {
	lastModified = obj.LastModified

	amzMeta, found := obj.UserMetadata[XAmzMetaMTime]
	if !found {
		amzMeta, found = obj.UserMetadata[metaMTime]
	}
	if !found {
		amzMeta = obj.Metadata.Get(XAmzMetaMTime)
		found = amzMeta != ""
	}
	if found {
		amzMetaTime, err := time.Parse(ioutils.DefaultTimeLayout, amzMeta)
		if err == nil {
			lastModified = amzMetaTime
		}
	}

	return lastModified
}

func (s *S3) ChecksumTime(ctx context.Context, location []string) (checksum string, err error) {
	objectKey := path.Join(location...)

	objInfo, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get object information: %w", wrapNotFound(err))
	}

	checksum = ioutils.ChecksumTime(LastModifiedFromObj(&objInfo), objInfo.Size)
	return checksum, nil
}

func (s *S3) Size(ctx context.Context, location []string) (size int64, err error) {
	objInfo, err := s.client.StatObject(ctx, s.bucket, path.Join(location...), minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to get object information: %w", wrapNotFound(err))
	}
	return objInfo.Size, nil
}

func (s *S3) ChecksumSha256(ctx context.Context, location []string) (checksum string, err error) {
	file, err := s.Open(ctx, location)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	checksum, err = ioutils.ChecksumSha256(ctx, file)
	if err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return checksum, nil
}

func (s *S3) Files(ctx context.Context) (seq iter.Seq[filesystem.FileEntry]) {
	options := minio.ListObjectsOptions{
		WithMetadata: true,
		Recursive:    true,
	}

	return func(yield func(filesystem.FileEntry) bool) {
		listCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		for objInfo := range s.client.ListObjects(listCtx, s.bucket, options) {
			if objInfo.Err != nil {
				return
			}
			if strings.HasSuffix(objInfo.Key, "/") {
				continue
			}

			entry := &filesystem.SimpleFileEntry{
				LocationValue: strings.Split(objInfo.Key, "/"),
				ModTimeValue:  LastModifiedFromObj(&objInfo),
			}

			if !yield(entry) {
				return
			}
		}
	}
}

func (s *S3) Open(ctx context.Context, location []string) (rc io.ReadCloser, err error) {
	objectKey := path.Join(location...)

	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", wrapNotFound(err))
	}

	// GetObject is lazy, stat to surface missing keys now
	_, err = obj.Stat()
	if err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to stat object: %w", wrapNotFound(err))
	}

	return obj, nil
}

func (s *S3) WriteFile(ctx context.Context, location []string, src io.Reader, modTime time.Time) (finalLocation []string, err error) {
	objectKey := path.Join(location...)

	srcAsFile, err := ioutils.ReaderToTempFile(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure src is a file: %w", err)
	}
	defer srcAsFile.Close()

	info, err := srcAsFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get temporary file info: %w", err)
	}

	mime, err := mimetype.DetectReader(srcAsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mimetype: %w", err)
	}

	_, err = srcAsFile.Seek(0, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to seek: %w", err)
	}

	if modTime.IsZero() {
		modTime = time.Now()
	}

	_, err = s.client.PutObject(
		ctx,
		s.bucket, objectKey,
		bufio.NewReaderSize(srcAsFile, ioutils.DefaultBufferSize),
		info.Size(),
		minio.PutObjectOptions{
			ContentType: mime.String(),
			UserMetadata: map[string]string{
				metaMTime: modTime.UTC().Format(ioutils.DefaultTimeLayout),
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to put object: %w", err)
	}

	return location, nil
}

func (s *S3) RemoveAll(ctx context.Context, location []string) (err error) {
	objectKey := path.Join(location...)

	options := minio.ListObjectsOptions{
		Prefix:    objectKey + "/",
		Recursive: true,
	}

	var errs []error
	for objInfo := range s.client.ListObjects(ctx, s.bucket, options) {
		if objInfo.Err != nil {
			errs = append(errs, objInfo.Err)
			break
		}
		err = s.client.RemoveObject(ctx, s.bucket, objInfo.Key, minio.RemoveObjectOptions{})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to remove object: %s: %w", objInfo.Key, err))
		}
	}

	err = s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to remove object: %s: %w", objectKey, err))
	}
	return errors.Join(errs...)
}
