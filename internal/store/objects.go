package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig holds S3/MinIO client configuration for artifact objects.
type ObjectConfig struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// ObjectStore holds generated audio artifacts in S3-compatible storage. The
// article's audio_ref is the object key returned by PutAudio.
type ObjectStore struct {
	minioClient *minio.Client
	bucket      string
}

// NewObjectStore creates a new S3/MinIO artifact store.
func NewObjectStore(config ObjectConfig) (*ObjectStore, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ObjectStore{minioClient: minioClient, bucket: config.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.minioClient.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.minioClient.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PutAudio writes narrated audio for an article and returns the object key.
func (s *ObjectStore) PutAudio(ctx context.Context, articleID string, audio []byte) (string, error) {
	key := path.Join("audio", articleID+".mp3")

	_, err := s.minioClient.PutObject(ctx, s.bucket, key, bytes.NewReader(audio), int64(len(audio)),
		minio.PutObjectOptions{ContentType: "audio/mpeg"})
	if err != nil {
		return "", fmt.Errorf("failed to put audio: %w", err)
	}
	return key, nil
}

// GetAudio reads a stored audio object by its key.
func (s *ObjectStore) GetAudio(ctx context.Context, key string) ([]byte, error) {
	object, err := s.minioClient.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get audio: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return data, nil
}

// Bucket returns the bucket name.
func (s *ObjectStore) Bucket() string {
	return s.bucket
}
