package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures an S3 compatible bucket.
type MinioConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
	// CreateBucket creates the bucket on start-up when it is missing.
	CreateBucket bool
}

// MinioStorage stores blobs in an S3 compatible bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinio connects to the bucket described by cfg.
func NewMinio(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("blob: endpoint and bucket are required")
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("blob: create client: %w", err)
	}

	storage := &MinioStorage{client: client, bucket: cfg.Bucket}
	if cfg.CreateBucket {
		if err := storage.ensureBucket(ctx, cfg.Region); err != nil {
			return nil, err
		}
	}
	return storage, nil
}

func (s *MinioStorage) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("blob: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("blob: create bucket: %w", err)
	}
	return nil
}

// Put uploads data under key.
func (s *MinioStorage) Put(ctx context.Context, key string, data []byte, contentType string) (Object, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Object{}, err
	}
	return Object{Key: info.Key, Size: info.Size, ContentType: contentType}, nil
}

// Get downloads the object stored under key.
func (s *MinioStorage) Get(ctx context.Context, key string) ([]byte, Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, Object{}, translateMinioError(err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, translateMinioError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, Object{}, translateMinioError(err)
	}
	return data, Object{Key: key, Size: info.Size, ContentType: info.ContentType}, nil
}

// Delete removes the object stored under key. Missing objects are not an error.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// Ping verifies the bucket is reachable.
func (s *MinioStorage) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("blob: bucket %q does not exist", s.bucket)
	}
	return nil
}

func translateMinioError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return err
}
