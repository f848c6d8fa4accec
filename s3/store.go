// Package s3 provides an S3-compatible blob store for gallerd backed by
// the minio client. Retrieval URLs are presigned GETs issued directly
// against the object store.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gallerd"
)

// Config holds the connection settings for an S3-compatible endpoint.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

// Store is an S3-backed gallerd.BlobStore scoped to a single bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the endpoint and ensures the bucket exists, creating it
// when missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connect s3 endpoint %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Put(ctx context.Context, path string, content io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, content, size, minio.PutObjectOptions{
		ContentType: gallerd.JPEGContentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, path string) error {
	// RemoveObject succeeds for missing keys; stat first so callers can
	// distinguish a missing blob from a removal failure.
	if _, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return gallerd.ErrNotFound
		}
		return fmt.Errorf("stat object %s: %w", path, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", path, err)
	}
	return nil
}

// PresignGet returns a presigned GET URL for the object at path. expiry is
// clamped to the S3 presign ceiling of 7 days.
func (s *Store) PresignGet(ctx context.Context, path string, expiry time.Duration) (string, error) {
	max := time.Duration(gallerd.MaxExpiresSeconds) * time.Second
	if expiry > max {
		expiry = max
	}
	if expiry <= 0 {
		expiry = time.Second
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", path, err)
	}
	return u.String(), nil
}
