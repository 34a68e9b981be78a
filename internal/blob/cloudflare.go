package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
)

const providerName = "cloudflare images"

var errNotConfigured = errors.New("no image provider configured")

// Config holds configuration for Cloudflare Images
type Config struct {
	AccountID string
	// MaxSize is the largest accepted upload in bytes; zero disables the check
	MaxSize int64
}

type cloudflareStore struct {
	cfClient adapter.CloudflareClient
	config   Config
	rc       *cloudflare.ResourceContainer
}

// NewCloudflareStore creates a Store backed by Cloudflare Images
func NewCloudflareStore(cfClient adapter.CloudflareClient, config Config) Store {
	return &cloudflareStore{
		cfClient: cfClient,
		config:   config,
		rc: &cloudflare.ResourceContainer{
			Level:      cloudflare.AccountRouteLevel,
			Identifier: config.AccountID,
		},
	}
}

// Upload sniffs the content type, rejects non-images and uploads under a random name
func (s *cloudflareStore) Upload(ctx context.Context, upload Upload) (*Object, error) {
	if len(upload.Data) == 0 {
		return nil, domain.NewValidationError("image is empty")
	}
	if s.config.MaxSize > 0 && int64(len(upload.Data)) > s.config.MaxSize {
		return nil, domain.NewValidationError("image exceeds %d bytes", s.config.MaxSize)
	}

	mtype := mimetype.Detect(upload.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, domain.NewValidationError("unsupported image type %s", mtype.String())
	}

	name := uuid.New().String() + mtype.Extension()
	logger.InfoCtx(ctx, "Uploading plantation image",
		zap.String("filename", upload.Filename),
		zap.String("name", name),
		zap.String("mimeType", mtype.String()),
		zap.Int("size", len(upload.Data)))

	image, err := s.cfClient.UploadImage(ctx, s.rc, cloudflare.UploadImageParams{
		File: io.NopCloser(bytes.NewReader(upload.Data)),
		Name: name,
		Metadata: map[string]interface{}{
			"original_filename": upload.Filename,
		},
	})
	if err != nil {
		return nil, domain.NewDependencyError(providerName, err)
	}

	if len(image.Variants) == 0 {
		// Unusable without a delivery URL
		s.deleteQuietly(ctx, image.ID)
		return nil, domain.NewDependencyError(providerName, fmt.Errorf("image %s has no variants", image.ID))
	}

	return &Object{
		URL: image.Variants[0],
		ID:  image.ID,
	}, nil
}

// Delete removes an uploaded image
func (s *cloudflareStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	if err := s.cfClient.DeleteImage(ctx, s.rc, id); err != nil {
		return domain.NewDependencyError(providerName, err)
	}

	return nil
}

func (s *cloudflareStore) deleteQuietly(ctx context.Context, id string) {
	if err := s.Delete(ctx, id); err != nil {
		logger.WarnCtx(ctx, "Failed to delete image", zap.String("imageID", id), zap.Error(err))
	}
}
