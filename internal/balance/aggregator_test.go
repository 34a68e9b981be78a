package balance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/carbon-marketplace/internal/balance"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
	"github.com/feral-file/carbon-marketplace/internal/store/storetest"
)

func TestRefreshFarmer(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewStore(t)
	aggregator := balance.NewAggregator()

	farmerID := storetest.CreateFarmer(t, st, "ram")
	otherID := storetest.CreateFarmer(t, st, "sita")

	storetest.CreatePlantation(t, st, farmerID, 2, 0.5, domain.StatusVerified) // 100
	storetest.CreatePlantation(t, st, farmerID, 1, 0.3, domain.StatusVerified) // 30
	storetest.CreatePlantation(t, st, farmerID, 5, 0.9, domain.StatusPending)  // excluded
	storetest.CreatePlantation(t, st, farmerID, 5, 0.9, domain.StatusRejected) // excluded
	storetest.CreatePlantation(t, st, otherID, 10, 0.5, domain.StatusVerified) // other farmer

	total, err := aggregator.RefreshFarmer(ctx, st, farmerID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, total)

	farmer, err := st.GetFarmer(ctx, farmerID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, farmer.TotalCredits)

	// Idempotent
	again, err := aggregator.RefreshFarmer(ctx, st, farmerID)
	require.NoError(t, err)
	assert.Equal(t, total, again)
}

func TestRefreshFarmer_NoPlantations(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewStore(t)

	farmerID := storetest.CreateFarmer(t, st, "ram")
	require.NoError(t, st.UpdateFarmerTotalCredits(ctx, farmerID, 55))

	total, err := balance.NewAggregator().RefreshFarmer(ctx, st, farmerID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	farmer, err := st.GetFarmer(ctx, farmerID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, farmer.TotalCredits)
}

func TestRefreshFarmer_UnknownFarmer(t *testing.T) {
	st := storetest.NewStore(t)

	_, err := balance.NewAggregator().RefreshFarmer(context.Background(), st, 404)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestRefreshBusiness(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewStore(t)
	aggregator := balance.NewAggregator()

	farmerID := storetest.CreateFarmer(t, st, "ram")
	businessID := storetest.CreateBusiness(t, st, "acme")
	otherBusinessID := storetest.CreateBusiness(t, st, "globex")
	plantation := storetest.CreatePlantation(t, st, farmerID, 10, 0.5, domain.StatusVerified)

	err := st.Transaction(ctx, func(tx store.Store) error {
		for _, p := range []schema.Purchase{
			{PlantationID: plantation.ID, BusinessID: businessID, CreditsBought: 0.1},
			{PlantationID: plantation.ID, BusinessID: businessID, CreditsBought: 0.2},
			{PlantationID: plantation.ID, BusinessID: otherBusinessID, CreditsBought: 50},
		} {
			if err := tx.CreatePurchase(ctx, &p); err != nil {
				return err
			}
		}

		total, err := aggregator.RefreshBusiness(ctx, tx, businessID)
		assert.Equal(t, 0.3, total)
		return err
	})
	require.NoError(t, err)

	business, err := st.GetBusiness(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, 0.3, business.PurchasedCredits)

	other, err := st.GetBusiness(ctx, otherBusinessID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, other.PurchasedCredits)
}
