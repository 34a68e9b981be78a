package balance

import (
	"context"
	"fmt"

	"github.com/feral-file/carbon-marketplace/internal/credit"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/store"
)

// Aggregator derives account totals from the ledger rows they summarize.
// Both refreshes recompute from scratch, so calling them repeatedly is harmless.
type Aggregator interface {
	// RefreshFarmer sets total_credits to the sum of credits over the farmer's verified plantations
	RefreshFarmer(ctx context.Context, tx store.Store, farmerID uint64) (float64, error)

	// RefreshBusiness sets purchased_credits to the sum of credits bought by the business
	RefreshBusiness(ctx context.Context, tx store.Store, businessID uint64) (float64, error)
}

type aggregator struct{}

// NewAggregator creates a new balance aggregator
func NewAggregator() Aggregator {
	return &aggregator{}
}

func (a *aggregator) RefreshFarmer(ctx context.Context, tx store.Store, farmerID uint64) (float64, error) {
	status := domain.StatusVerified
	plantations, err := tx.ListPlantations(ctx, store.PlantationFilter{
		FarmerID: &farmerID,
		Status:   &status,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list verified plantations: %w", err)
	}

	values := make([]float64, 0, len(plantations))
	for _, p := range plantations {
		values = append(values, p.Credits)
	}
	total := credit.Sum(values...)

	if err := tx.UpdateFarmerTotalCredits(ctx, farmerID, total); err != nil {
		return 0, err
	}

	return total, nil
}

func (a *aggregator) RefreshBusiness(ctx context.Context, tx store.Store, businessID uint64) (float64, error) {
	purchases, err := tx.ListPurchases(ctx, store.PurchaseFilter{BusinessID: &businessID})
	if err != nil {
		return 0, fmt.Errorf("failed to list purchases: %w", err)
	}

	values := make([]float64, 0, len(purchases))
	for _, p := range purchases {
		values = append(values, p.CreditsBought)
	}
	total := credit.Sum(values...)

	if err := tx.UpdateBusinessPurchasedCredits(ctx, businessID, total); err != nil {
		return 0, err
	}

	return total, nil
}
