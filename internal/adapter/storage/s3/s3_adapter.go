package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
)

// ImageStorage uploads image blobs to a MinIO/S3 bucket and hands back their
// public URLs.
type ImageStorage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewImageStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool, log *logger.Logger) (*ImageStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}

	err = client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, existsErr := client.BucketExists(context.Background(), bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("make/verify bucket %s: %w", bucket, err)
		}
	}

	log.Info("image storage ready", zap.String("endpoint", endpoint), zap.String("bucket", bucket))
	return &ImageStorage{client: client, bucket: bucket, logger: log.Named("storage")}, nil
}

// Upload stores the blob under the caller-derived key. Keys already encode
// product id, timestamp and batch position, so collisions are not a concern
// here.
func (s *ImageStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("put object failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	s.logger.Debug("object uploaded",
		zap.String("key", info.Key),
		zap.Int64("size", info.Size),
		zap.String("etag", info.ETag))

	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key), nil
}
