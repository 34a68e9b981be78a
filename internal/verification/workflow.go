package verification

import (
	"context"

	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/balance"
	"github.com/feral-file/carbon-marketplace/internal/credit"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/messaging"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// Workflow applies admin verification decisions to plantations
type Workflow interface {
	// SetStatus moves a plantation to verified or rejected and refreshes the owner's total
	SetStatus(ctx context.Context, plantationID uint64, status domain.VerificationStatus, role domain.Role) (*schema.Plantation, error)
}

type workflow struct {
	store      store.Store
	aggregator balance.Aggregator
	publisher  messaging.Publisher
	clock      adapter.Clock
	retry      store.RetryPolicy
}

// NewWorkflow creates a new verification workflow
func NewWorkflow(st store.Store, aggregator balance.Aggregator, publisher messaging.Publisher, clock adapter.Clock, retry store.RetryPolicy) Workflow {
	if retry == (store.RetryPolicy{}) {
		retry = store.DefaultRetryPolicy
	}

	return &workflow{
		store:      st,
		aggregator: aggregator,
		publisher:  publisher,
		clock:      clock,
		retry:      retry,
	}
}

func (w *workflow) SetStatus(ctx context.Context, plantationID uint64, status domain.VerificationStatus, role domain.Role) (*schema.Plantation, error) {
	if role != domain.RoleAdmin {
		return nil, domain.NewAuthorizationError("only admins can verify plantations")
	}
	if !status.IsDecision() {
		return nil, domain.NewValidationError("status must be %s or %s", domain.StatusVerified, domain.StatusRejected)
	}

	var (
		updated *schema.Plantation
		total   float64
	)
	err := store.TransactionWithRetry(ctx, w.store, w.retry, func(tx store.Store) error {
		plantation, err := tx.GetPlantation(ctx, plantationID)
		if err != nil {
			return err
		}
		if plantation == nil {
			return domain.NewNotFoundError("plantation %d not found", plantationID)
		}

		farmer, err := tx.GetFarmerForUpdate(ctx, plantation.FarmerID)
		if err != nil {
			return err
		}
		if farmer == nil {
			return domain.NewNotFoundError("farmer %d not found", plantation.FarmerID)
		}

		previous := plantation.VerificationStatus
		if !previous.CanTransitionTo(status) {
			return domain.NewConflictError("plantation %d cannot move from %s to %s", plantationID, previous, status)
		}

		plantation.VerificationStatus = status
		switch status {
		case domain.StatusVerified:
			if plantation.VerifiedAt == nil {
				now := w.clock.Now()
				plantation.VerifiedAt = &now
			}
			plantation.Credits = credit.Compute(plantation.Area, plantation.NDVI)
		case domain.StatusRejected:
			plantation.Credits = 0
		}

		if err := tx.UpdatePlantation(ctx, plantation); err != nil {
			return err
		}

		total, err = w.aggregator.RefreshFarmer(ctx, tx, plantation.FarmerID)
		if err != nil {
			return err
		}

		if err := tx.AppendChange(ctx, domain.SubjectPlantation, plantation.ID, map[string]any{
			"action":          "status_changed",
			"previous_status": previous,
			"status":          status,
			"credits":         plantation.Credits,
		}); err != nil {
			return err
		}

		updated = plantation
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Plantation verification decided",
		zap.Uint64("plantation_id", updated.ID),
		zap.String("status", string(status)),
		zap.Float64("credits", updated.Credits),
		zap.Float64("farmer_total", total))

	eventType := domain.EventPlantationVerified
	if status == domain.StatusRejected {
		eventType = domain.EventPlantationRejected
	}
	messaging.PublishAfterCommit(ctx, w.publisher, &domain.MarketplaceEvent{
		Type:         eventType,
		PlantationID: updated.ID,
		FarmerID:     updated.FarmerID,
		Credits:      updated.Credits,
	})

	return updated, nil
}
