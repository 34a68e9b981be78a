package settlement

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/balance"
	"github.com/feral-file/carbon-marketplace/internal/credit"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/messaging"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// Settlement transfers credits from verified plantations to businesses
type Settlement interface {
	// Buy debits a plantation and records the purchase for the business
	Buy(ctx context.Context, businessID, plantationID uint64, credits float64) (*schema.Purchase, error)

	// ListPurchases returns the purchases of a business
	ListPurchases(ctx context.Context, businessID uint64) ([]schema.Purchase, error)

	// ListAll returns every purchase
	ListAll(ctx context.Context) ([]schema.Purchase, error)
}

type settlement struct {
	store      store.Store
	aggregator balance.Aggregator
	publisher  messaging.Publisher
	retry      store.RetryPolicy
}

// NewSettlement creates a new purchase settlement
func NewSettlement(st store.Store, aggregator balance.Aggregator, publisher messaging.Publisher, retry store.RetryPolicy) Settlement {
	if retry == (store.RetryPolicy{}) {
		retry = store.DefaultRetryPolicy
	}

	return &settlement{
		store:      st,
		aggregator: aggregator,
		publisher:  publisher,
		retry:      retry,
	}
}

func (s *settlement) Buy(ctx context.Context, businessID, plantationID uint64, credits float64) (*schema.Purchase, error) {
	if math.IsNaN(credits) || math.IsInf(credits, 0) {
		return nil, domain.NewValidationError("credits must be a finite number")
	}
	amount := credit.Sum(credits)
	if amount <= 0 {
		return nil, domain.NewValidationError("credits must be greater than 0")
	}

	var (
		purchase *schema.Purchase
		farmerID uint64
	)
	// A stale write reruns the whole closure, so the loser of a race re-reads the debited balance
	err := store.TransactionWithRetry(ctx, s.store, s.retry, func(tx store.Store) error {
		plantation, err := tx.GetPlantation(ctx, plantationID)
		if err != nil {
			return err
		}
		if plantation == nil {
			return domain.NewNotFoundError("plantation %d not found", plantationID)
		}

		business, err := tx.GetBusinessForUpdate(ctx, businessID)
		if err != nil {
			return err
		}
		if business == nil {
			return domain.NewNotFoundError("business %d not found", businessID)
		}

		farmer, err := tx.GetFarmerForUpdate(ctx, plantation.FarmerID)
		if err != nil {
			return err
		}
		if farmer == nil {
			return domain.NewNotFoundError("farmer %d not found", plantation.FarmerID)
		}

		if plantation.VerificationStatus != domain.StatusVerified {
			return domain.NewValidationError("plantation %d is not verified", plantationID)
		}
		if credit.Exceeds(amount, plantation.Credits) {
			return domain.NewInsufficientCreditsError(amount, plantation.Credits)
		}

		plantation.Credits = credit.Sub(plantation.Credits, amount)
		if err := tx.UpdatePlantation(ctx, plantation); err != nil {
			return err
		}
		if _, err := s.aggregator.RefreshFarmer(ctx, tx, plantation.FarmerID); err != nil {
			return err
		}

		p := &schema.Purchase{
			PlantationID:  plantationID,
			BusinessID:    businessID,
			CreditsBought: amount,
		}
		if err := tx.CreatePurchase(ctx, p); err != nil {
			return err
		}
		if _, err := s.aggregator.RefreshBusiness(ctx, tx, businessID); err != nil {
			return err
		}

		if err := tx.AppendChange(ctx, domain.SubjectPurchase, p.ID, map[string]any{
			"plantation_id":      plantationID,
			"business_id":        businessID,
			"credits":            amount,
			"plantation_credits": plantation.Credits,
		}); err != nil {
			return err
		}

		purchase = p
		farmerID = plantation.FarmerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Credits purchased",
		zap.Uint64("purchase_id", purchase.ID),
		zap.Uint64("business_id", businessID),
		zap.Uint64("plantation_id", plantationID),
		zap.Float64("credits", amount))

	messaging.PublishAfterCommit(ctx, s.publisher, &domain.MarketplaceEvent{
		Type:         domain.EventCreditsPurchased,
		PlantationID: plantationID,
		FarmerID:     farmerID,
		BusinessID:   &businessID,
		Credits:      amount,
	})

	return purchase, nil
}

func (s *settlement) ListPurchases(ctx context.Context, businessID uint64) ([]schema.Purchase, error) {
	return s.store.ListPurchases(ctx, store.PurchaseFilter{BusinessID: &businessID})
}

func (s *settlement) ListAll(ctx context.Context) ([]schema.Purchase, error) {
	return s.store.ListPurchases(ctx, store.PurchaseFilter{})
}
