package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"

	"marketplace-backend/internal/domain"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	cldconfig "github.com/cloudinary/cloudinary-go/v2/config"
)

// CloudinaryClient uploads through the Cloudinary SDK, which signs each
// request and streams the file body.
type CloudinaryClient struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary builds a client for the account. uploadPrefix replaces the
// API host when non-empty.
func NewCloudinary(cloudName, apiKey, apiSecret, uploadPrefix string) (*CloudinaryClient, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary: CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set")
	}
	conf, err := cldconfig.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	if uploadPrefix != "" {
		conf.API.UploadPrefix = uploadPrefix
	}
	cld, err := cloudinary.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &CloudinaryClient{cld: cld}, nil
}

func (c *CloudinaryClient) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*domain.Image, error) {
	res, err := c.cld.Upload.Upload(ctx, io.LimitReader(r, size), uploader.UploadParams{
		Folder:       Folder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload %s: %s", filename, res.Error.Message)
	}
	url := res.SecureURL
	if url == "" {
		url = res.URL
	}
	return &domain.Image{PublicID: res.PublicID, URL: url}, nil
}

func (c *CloudinaryClient) Delete(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: "image"})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}
