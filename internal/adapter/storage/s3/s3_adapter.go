// Package s3 stores listing photos directly in an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/veronicavalera/gritgirls/internal/photo/domain"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
)

const keyPrefix = "photos/"

// ObjectAPI is the subset of *minio.Client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type S3Storage struct {
	client  ObjectAPI
	bucket  string
	baseURL string
	logger  *logger.Logger
}

// NewS3Storage connects to endpoint and makes sure bucket exists.
func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log = log.Named("s3")
	log.Info("Initializing S3 storage", zap.String("endpoint", endpoint), zap.String("bucket", bucketName), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for endpoint %s: %w", endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucketName, err)
		}
		log.Info("Bucket created", zap.String("bucket", bucketName))
	}

	return NewWithClient(client, bucketName, client.EndpointURL().String(), log), nil
}

// NewWithClient wraps an existing client. baseURL is the public endpoint
// that object URLs are built from.
func NewWithClient(client ObjectAPI, bucketName, baseURL string, log *logger.Logger) *S3Storage {
	return &S3Storage{
		client:  client,
		bucket:  bucketName,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
	}
}

// Upload stores the file under a fresh key and returns its absolute URL.
// The token is not used; the bucket credentials authorize the call.
func (s *S3Storage) Upload(ctx context.Context, file domain.LocalFile, _ string) (domain.UploadResult, error) {
	if file.Open == nil {
		return domain.UploadResult{}, &domain.UploadError{Message: file.Name + ": no file handle"}
	}
	objectKey := objectKeyFor(file.Name)

	rc, err := file.Open()
	if err != nil {
		return domain.UploadResult{}, &domain.UploadError{Message: err.Error(), Err: err}
	}
	defer rc.Close()

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, rc, file.SizeBytes, minio.PutObjectOptions{
		ContentType:  file.MimeType,
		UserMetadata: map[string]string{"original-filename": file.Name},
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		return domain.UploadResult{}, &domain.UploadError{
			Message: fmt.Sprintf("upload object %s to bucket %s: %v", objectKey, s.bucket, err),
			Err:     err,
		}
	}

	s.logger.Debug("Object uploaded", zap.String("key", info.Key), zap.String("etag", info.ETag), zap.Int64("size", info.Size))
	return domain.UploadResult{URL: fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, objectKey)}, nil
}

// Delete removes the object the url points at.
func (s *S3Storage) Delete(ctx context.Context, url string, _ string) error {
	filename := domain.FilenameFromURL(url)
	if filename == "" {
		return fmt.Errorf("delete %q: no object name in url", url)
	}
	key := keyPrefix + filename
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	s.logger.Debug("Object removed", zap.String("key", key))
	return nil
}

func objectKeyFor(originalName string) string {
	return keyPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}
