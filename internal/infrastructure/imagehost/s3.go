package imagehost

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// S3Storage stores images in an S3-compatible bucket (AWS, MinIO).
type S3Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewS3 connects and makes sure the bucket exists.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", cfg.Endpoint, err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("S3 bucket created")
	}
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = client.EndpointURL().String() + "/" + cfg.Bucket
	}
	return &S3Storage{client: client, bucket: cfg.Bucket, publicURL: public}, nil
}

func (s *S3Storage) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*domain.Image, error) {
	key := ObjectKey(filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &domain.Image{PublicID: key, URL: s.publicURL + "/" + key}, nil
}

func (s *S3Storage) Delete(ctx context.Context, publicID string) error {
	return s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{})
}

// ObjectKey returns a unique key under Folder that keeps the file extension.
func ObjectKey(filename string) string {
	return Folder + "/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}
