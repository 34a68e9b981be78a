package plantation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/balance"
	"github.com/feral-file/carbon-marketplace/internal/blob"
	"github.com/feral-file/carbon-marketplace/internal/credit"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/messaging"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// CreateInput is a plantation registration request
type CreateInput struct {
	FarmerID  uint64
	Latitude  float64
	Longitude float64
	TreeType  string
	// Area is in hectares
	Area float64
	// NDVI is optional; the configured default applies when nil
	NDVI  *float64
	Image *blob.Upload
}

// Config holds ledger settings
type Config struct {
	// DefaultNDVI is assigned when a plantation is registered without a measurement
	DefaultNDVI float64
	Retry       store.RetryPolicy
}

// Ledger owns plantation records and their credit balances
type Ledger interface {
	// Create registers a pending plantation for a farmer
	Create(ctx context.Context, input CreateInput) (*schema.Plantation, error)

	// UpdateNDVI stores a new vegetation index. Verified plantations get their credits
	// recomputed and the owner's total refreshed in the same transaction.
	UpdateNDVI(ctx context.Context, plantationID uint64, ndvi float64, requesterFarmerID uint64) (*schema.Plantation, error)

	// ListByFarmer returns every plantation of a farmer
	ListByFarmer(ctx context.Context, farmerID uint64) ([]schema.Plantation, error)

	// ListVerified returns the marketplace view: all verified plantations
	ListVerified(ctx context.Context) ([]schema.Plantation, error)

	// List returns plantations matching an admin filter
	List(ctx context.Context, filter store.PlantationFilter) ([]schema.Plantation, error)

	// Get returns a plantation or a NotFoundError
	Get(ctx context.Context, id uint64) (*schema.Plantation, error)
}

type ledger struct {
	store      store.Store
	blobs      blob.Store
	aggregator balance.Aggregator
	publisher  messaging.Publisher
	config     Config
}

// NewLedger creates a new plantation ledger
func NewLedger(st store.Store, blobs blob.Store, aggregator balance.Aggregator, publisher messaging.Publisher, config Config) Ledger {
	if config.Retry == (store.RetryPolicy{}) {
		config.Retry = store.DefaultRetryPolicy
	}

	return &ledger{
		store:      st,
		blobs:      blobs,
		aggregator: aggregator,
		publisher:  publisher,
		config:     config,
	}
}

// ValidateNDVI rejects vegetation indices outside [0, 1]
func ValidateNDVI(ndvi float64) error {
	if math.IsNaN(ndvi) || ndvi < 0 || ndvi > 1 {
		return domain.NewValidationError("ndvi must be between 0 and 1")
	}
	return nil
}

func validateCreateInput(input CreateInput) error {
	if strings.TrimSpace(input.TreeType) == "" {
		return domain.NewValidationError("tree_type is required")
	}
	if math.IsNaN(input.Area) || math.IsInf(input.Area, 0) || input.Area <= 0 {
		return domain.NewValidationError("area must be greater than 0")
	}
	if math.IsNaN(input.Latitude) || input.Latitude < -90 || input.Latitude > 90 {
		return domain.NewValidationError("latitude must be between -90 and 90")
	}
	if math.IsNaN(input.Longitude) || input.Longitude < -180 || input.Longitude > 180 {
		return domain.NewValidationError("longitude must be between -180 and 180")
	}
	if input.NDVI != nil {
		return ValidateNDVI(*input.NDVI)
	}
	return nil
}

func (l *ledger) Create(ctx context.Context, input CreateInput) (*schema.Plantation, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	farmer, err := l.store.GetFarmer(ctx, input.FarmerID)
	if err != nil {
		return nil, err
	}
	if farmer == nil {
		return nil, domain.NewNotFoundError("farmer %d not found", input.FarmerID)
	}

	ndvi := l.config.DefaultNDVI
	if input.NDVI != nil {
		ndvi = *input.NDVI
	}

	plantation := &schema.Plantation{
		FarmerID:           input.FarmerID,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		TreeType:           strings.TrimSpace(input.TreeType),
		Area:               input.Area,
		NDVI:               ndvi,
		Credits:            0,
		VerificationStatus: domain.StatusPending,
	}

	// The image is uploaded before anything is written so a provider outage leaves no record behind
	var image *blob.Object
	if input.Image != nil {
		image, err = l.blobs.Upload(ctx, *input.Image)
		if err != nil {
			return nil, err
		}
		plantation.ImageURL = &image.URL
		plantation.ImageID = &image.ID
	}

	err = l.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreatePlantation(ctx, plantation); err != nil {
			return err
		}
		return tx.AppendChange(ctx, domain.SubjectPlantation, plantation.ID, map[string]any{
			"action":    "created",
			"farmer_id": plantation.FarmerID,
			"area":      plantation.Area,
			"ndvi":      plantation.NDVI,
		})
	})
	if err != nil {
		if image != nil {
			if derr := l.blobs.Delete(ctx, image.ID); derr != nil {
				logger.WarnCtx(ctx, "Failed to delete orphaned plantation image",
					zap.String("imageID", image.ID),
					zap.Error(derr))
			}
		}
		return nil, fmt.Errorf("failed to create plantation: %w", err)
	}

	logger.InfoCtx(ctx, "Plantation registered",
		zap.Uint64("plantation_id", plantation.ID),
		zap.Uint64("farmer_id", plantation.FarmerID))

	messaging.PublishAfterCommit(ctx, l.publisher, &domain.MarketplaceEvent{
		Type:         domain.EventPlantationCreated,
		PlantationID: plantation.ID,
		FarmerID:     plantation.FarmerID,
	})

	return plantation, nil
}

func (l *ledger) UpdateNDVI(ctx context.Context, plantationID uint64, ndvi float64, requesterFarmerID uint64) (*schema.Plantation, error) {
	var updated *schema.Plantation
	err := store.TransactionWithRetry(ctx, l.store, l.config.Retry, func(tx store.Store) error {
		plantation, err := tx.GetPlantation(ctx, plantationID)
		if err != nil {
			return err
		}
		if plantation == nil {
			return domain.NewNotFoundError("plantation %d not found", plantationID)
		}
		if plantation.FarmerID != requesterFarmerID {
			return domain.NewAuthorizationError("plantation %d belongs to another farmer", plantationID)
		}
		if err := ValidateNDVI(ndvi); err != nil {
			return err
		}
		if _, err := tx.GetFarmerForUpdate(ctx, plantation.FarmerID); err != nil {
			return err
		}

		previous := plantation.NDVI
		plantation.NDVI = ndvi
		verified := plantation.VerificationStatus == domain.StatusVerified
		if verified {
			plantation.Credits = credit.Compute(plantation.Area, ndvi)
		} else {
			plantation.Credits = 0
		}

		if err := tx.UpdatePlantation(ctx, plantation); err != nil {
			return err
		}
		if verified {
			if _, err := l.aggregator.RefreshFarmer(ctx, tx, plantation.FarmerID); err != nil {
				return err
			}
		}
		if err := tx.AppendChange(ctx, domain.SubjectPlantation, plantation.ID, map[string]any{
			"action":        "ndvi_updated",
			"previous_ndvi": previous,
			"ndvi":          ndvi,
			"credits":       plantation.Credits,
		}); err != nil {
			return err
		}

		updated = plantation
		return nil
	})
	if err != nil {
		return nil, err
	}

	messaging.PublishAfterCommit(ctx, l.publisher, &domain.MarketplaceEvent{
		Type:         domain.EventPlantationNDVIUpdated,
		PlantationID: updated.ID,
		FarmerID:     updated.FarmerID,
		Credits:      updated.Credits,
	})

	return updated, nil
}

func (l *ledger) ListByFarmer(ctx context.Context, farmerID uint64) ([]schema.Plantation, error) {
	return l.store.ListPlantations(ctx, store.PlantationFilter{FarmerID: &farmerID})
}

func (l *ledger) ListVerified(ctx context.Context) ([]schema.Plantation, error) {
	status := domain.StatusVerified
	return l.store.ListPlantations(ctx, store.PlantationFilter{Status: &status})
}

func (l *ledger) List(ctx context.Context, filter store.PlantationFilter) ([]schema.Plantation, error) {
	return l.store.ListPlantations(ctx, filter)
}

func (l *ledger) Get(ctx context.Context, id uint64) (*schema.Plantation, error) {
	plantation, err := l.store.GetPlantation(ctx, id)
	if err != nil {
		return nil, err
	}
	if plantation == nil {
		return nil, domain.NewNotFoundError("plantation %d not found", id)
	}

	return plantation, nil
}
