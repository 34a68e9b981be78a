package blob

import (
	"context"

	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// Upload is a file received from a client
type Upload struct {
	Filename string
	Data     []byte
}

// Object is a stored blob
type Object struct {
	// URL is the public delivery URL
	URL string
	// ID is the provider id used for deletion
	ID string
}

// Store uploads and deletes plantation images
//
//go:generate mockgen -source=blob.go -destination=../mocks/blob.go -package=mocks -mock_names=Store=MockBlobStore
type Store interface {
	// Upload validates and stores the upload
	Upload(ctx context.Context, upload Upload) (*Object, error)

	// Delete removes a previously uploaded object
	Delete(ctx context.Context, id string) error
}

type disabledStore struct{}

// NewDisabledStore returns a Store for deployments without an image provider; every upload fails
func NewDisabledStore() Store {
	return &disabledStore{}
}

func (s *disabledStore) Upload(ctx context.Context, upload Upload) (*Object, error) {
	return nil, domain.NewDependencyError("blob store", errNotConfigured)
}

func (s *disabledStore) Delete(ctx context.Context, id string) error {
	return nil
}
