package adapter

import (
	"context"

	"github.com/cloudflare/cloudflare-go"
)

// CloudflareClient defines an interface for Cloudflare Images API operations to enable mocking
//
//go:generate mockgen -source=cloudflare.go -destination=../mocks/cloudflare.go -package=mocks -mock_names=CloudflareClient=MockCloudflareClient
type CloudflareClient interface {
	// UploadImage uploads a single image to Cloudflare Images
	UploadImage(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.UploadImageParams) (cloudflare.Image, error)

	// DeleteImage removes an uploaded image
	DeleteImage(ctx context.Context, rc *cloudflare.ResourceContainer, id string) error
}

// RealCloudflareClient implements CloudflareClient using the official Cloudflare SDK
type RealCloudflareClient struct {
	api *cloudflare.API
}

// NewCloudflareClient creates a new real Cloudflare client
func NewCloudflareClient(apiToken string) (CloudflareClient, error) {
	api, err := cloudflare.NewWithAPIToken(apiToken)
	if err != nil {
		return nil, err
	}
	return &RealCloudflareClient{
		api: api,
	}, nil
}

// UploadImage uploads a single image to Cloudflare Images
func (c *RealCloudflareClient) UploadImage(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.UploadImageParams) (cloudflare.Image, error) {
	return c.api.UploadImage(ctx, rc, params)
}

// DeleteImage removes an uploaded image
func (c *RealCloudflareClient) DeleteImage(ctx context.Context, rc *cloudflare.ResourceContainer, id string) error {
	return c.api.DeleteImage(ctx, rc, id)
}
