// Package imagehost stores listing images on Cloudinary or an S3-compatible bucket.
package imagehost

import (
	"context"
	"fmt"
	"io"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
)

// Folder is the remote folder (Cloudinary) or key prefix (S3) for listing images.
const Folder = "marketplace"

// Host uploads and removes images.
type Host interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*domain.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// New returns the host named by cfg.ImageHost, or nil when it is not configured.
func New(ctx context.Context, cfg *config.Config) (Host, error) {
	switch cfg.ImageHost {
	case "", "cloudinary":
		if cfg.Cloudinary.CloudName == "" {
			return nil, nil
		}
		c, err := NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, "")
		if err != nil {
			return nil, err
		}
		return c, nil
	case "s3":
		if cfg.S3.Endpoint == "" {
			return nil, nil
		}
		s3, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return nil, fmt.Errorf("unknown IMAGE_HOST %q", cfg.ImageHost)
}
