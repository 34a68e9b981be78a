package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// buildTestAccount creates a test account input
func buildTestAccount(username string) schema.Account {
	return schema.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$hash",
	}
}

// buildTestPlantation creates a pending test plantation for a farmer
func buildTestPlantation(farmerID uint64, area, ndvi float64) *schema.Plantation {
	return &schema.Plantation{
		FarmerID:  farmerID,
		Latitude:  27.7172,
		Longitude: 85.3240,
		TreeType:  "Sal",
		Area:      area,
		NDVI:      ndvi,
	}
}

func createTestFarmer(t *testing.T, store Store, username string) uint64 {
	id, err := store.CreateAccount(context.Background(), domain.AccountFarmer, buildTestAccount(username))
	require.NoError(t, err)
	return id
}

func createTestBusiness(t *testing.T, store Store, username string) uint64 {
	id, err := store.CreateAccount(context.Background(), domain.AccountBusiness, buildTestAccount(username))
	require.NoError(t, err)
	return id
}

func ptr[T any](v T) *T {
	return &v
}

// =============================================================================
// Tests
// =============================================================================

func testAccounts(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and get farmer by every filter", func(t *testing.T) {
		id := createTestFarmer(t, store, "alice")

		byID, err := store.GetAccount(ctx, domain.AccountFarmer, AccountFilter{ID: &id})
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "alice", byID.Username)
		assert.Equal(t, domain.AccountFarmer, byID.Kind)
		assert.False(t, byID.EmailVerified)

		byUsername, err := store.GetAccount(ctx, domain.AccountFarmer, AccountFilter{Username: ptr("alice")})
		require.NoError(t, err)
		require.NotNil(t, byUsername)
		assert.Equal(t, id, byUsername.ID)

		byEmail, err := store.GetAccount(ctx, domain.AccountFarmer, AccountFilter{Email: ptr("alice@example.com")})
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, id, byEmail.ID)
	})

	t.Run("missing account returns nil", func(t *testing.T) {
		account, err := store.GetAccount(ctx, domain.AccountFarmer, AccountFilter{Username: ptr("nobody")})
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("empty filter is rejected", func(t *testing.T) {
		_, err := store.GetAccount(ctx, domain.AccountFarmer, AccountFilter{})
		assert.Error(t, err)
	})

	t.Run("duplicate username fails", func(t *testing.T) {
		createTestFarmer(t, store, "bob")
		// Run in a nested transaction so a failed insert does not poison the outer one
		err := store.Transaction(ctx, func(tx Store) error {
			_, err := tx.CreateAccount(ctx, domain.AccountFarmer, buildTestAccount("bob"))
			return err
		})
		assert.Error(t, err)
	})

	t.Run("farmer and business namespaces are separate", func(t *testing.T) {
		createTestFarmer(t, store, "carol")
		businessID := createTestBusiness(t, store, "carol")

		exists, err := store.UsernameExists(ctx, domain.AccountBusiness, "carol")
		require.NoError(t, err)
		assert.True(t, exists)

		business, err := store.GetBusiness(ctx, businessID)
		require.NoError(t, err)
		require.NotNil(t, business)
		assert.Equal(t, 0.0, business.PurchasedCredits)
	})

	t.Run("save security state writes nulls", func(t *testing.T) {
		id := createTestFarmer(t, store, "dave")
		expires := time.Now().UTC().Add(15 * time.Minute)
		err := store.SaveAccountSecurity(ctx, domain.AccountFarmer, id, schema.AccountSecurity{
			EmailVerificationCode:      ptr("123456"),
			EmailVerificationExpiresAt: &expires,
			FailedLoginAttempts:        3,
		})
		require.NoError(t, err)

		account, err := store.GetAccount(ctx, domain.AccountFarmer, AccountFilter{ID: &id})
		require.NoError(t, err)
		require.NotNil(t, account.EmailVerificationCode)
		assert.Equal(t, "123456", *account.EmailVerificationCode)
		assert.Equal(t, 3, account.FailedLoginAttempts)

		err = store.SaveAccountSecurity(ctx, domain.AccountFarmer, id, schema.AccountSecurity{EmailVerified: true})
		require.NoError(t, err)

		account, err = store.GetAccount(ctx, domain.AccountFarmer, AccountFilter{ID: &id})
		require.NoError(t, err)
		assert.True(t, account.EmailVerified)
		assert.Nil(t, account.EmailVerificationCode)
		assert.Nil(t, account.EmailVerificationExpiresAt)
		assert.Equal(t, 0, account.FailedLoginAttempts)
	})

	t.Run("save security state for missing account", func(t *testing.T) {
		err := store.SaveAccountSecurity(ctx, domain.AccountBusiness, 999999, schema.AccountSecurity{})
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})
}

func testPlantations(t *testing.T, store Store) {
	ctx := context.Background()
	farmerID := createTestFarmer(t, store, "planter")
	otherFarmerID := createTestFarmer(t, store, "other")

	t.Run("create applies lifecycle defaults", func(t *testing.T) {
		p := buildTestPlantation(farmerID, 2, 0.5)
		require.NoError(t, store.CreatePlantation(ctx, p))
		assert.NotZero(t, p.ID)

		got, err := store.GetPlantation(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.StatusPending, got.VerificationStatus)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, 0.0, got.Credits)
		assert.Nil(t, got.VerifiedAt)
	})

	t.Run("missing plantation returns nil", func(t *testing.T) {
		got, err := store.GetPlantation(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list by farmer and status", func(t *testing.T) {
		p := buildTestPlantation(otherFarmerID, 1, 0.2)
		require.NoError(t, store.CreatePlantation(ctx, p))

		p.VerificationStatus = domain.StatusVerified
		p.Credits = 20
		require.NoError(t, store.UpdatePlantation(ctx, p))

		byFarmer, err := store.ListPlantations(ctx, PlantationFilter{FarmerID: &otherFarmerID})
		require.NoError(t, err)
		require.Len(t, byFarmer, 1)
		assert.Equal(t, p.ID, byFarmer[0].ID)

		verified := domain.StatusVerified
		byStatus, err := store.ListPlantations(ctx, PlantationFilter{FarmerID: &otherFarmerID, Status: &verified})
		require.NoError(t, err)
		require.Len(t, byStatus, 1)

		pending := domain.StatusPending
		none, err := store.ListPlantations(ctx, PlantationFilter{FarmerID: &otherFarmerID, Status: &pending})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update increments version", func(t *testing.T) {
		p := buildTestPlantation(farmerID, 4, 0.25)
		require.NoError(t, store.CreatePlantation(ctx, p))

		now := time.Now().UTC()
		p.VerificationStatus = domain.StatusVerified
		p.VerifiedAt = &now
		p.Credits = 100
		require.NoError(t, store.UpdatePlantation(ctx, p))
		assert.Equal(t, int64(2), p.Version)

		got, err := store.GetPlantation(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, 100.0, got.Credits)
		assert.Equal(t, domain.StatusVerified, got.VerificationStatus)
		assert.NotNil(t, got.VerifiedAt)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		p := buildTestPlantation(farmerID, 3, 0.5)
		require.NoError(t, store.CreatePlantation(ctx, p))

		first := *p
		second := *p

		first.NDVI = 0.6
		require.NoError(t, store.UpdatePlantation(ctx, &first))

		second.NDVI = 0.7
		err := store.UpdatePlantation(ctx, &second)
		assert.True(t, errors.Is(err, domain.ErrStaleWrite))

		got, err := store.GetPlantation(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.6, got.NDVI)
	})
}

func testFarmerAndBusinessTotals(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("update farmer total credits", func(t *testing.T) {
		id := createTestFarmer(t, store, "totals")
		require.NoError(t, store.UpdateFarmerTotalCredits(ctx, id, 250.5))

		farmer, err := store.GetFarmer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 250.5, farmer.TotalCredits)
	})

	t.Run("update missing farmer", func(t *testing.T) {
		err := store.UpdateFarmerTotalCredits(ctx, 999999, 1)
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("update business purchased credits", func(t *testing.T) {
		id := createTestBusiness(t, store, "buyer")
		require.NoError(t, store.UpdateBusinessPurchasedCredits(ctx, id, 75))

		business, err := store.GetBusiness(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 75.0, business.PurchasedCredits)

		businesses, err := store.ListBusinesses(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, businesses)
	})

	t.Run("locking reads inside a transaction", func(t *testing.T) {
		farmerID := createTestFarmer(t, store, "locked")
		businessID := createTestBusiness(t, store, "locked_buyer")

		err := store.Transaction(ctx, func(tx Store) error {
			farmer, err := tx.GetFarmerForUpdate(ctx, farmerID)
			require.NoError(t, err)
			require.NotNil(t, farmer)
			assert.Equal(t, "locked", farmer.Username)

			business, err := tx.GetBusinessForUpdate(ctx, businessID)
			require.NoError(t, err)
			require.NotNil(t, business)
			assert.Equal(t, "locked_buyer", business.Username)

			missingFarmer, err := tx.GetFarmerForUpdate(ctx, 999999)
			require.NoError(t, err)
			assert.Nil(t, missingFarmer)

			missingBusiness, err := tx.GetBusinessForUpdate(ctx, 999999)
			require.NoError(t, err)
			assert.Nil(t, missingBusiness)

			return tx.UpdateFarmerTotalCredits(ctx, farmerID, 10)
		})
		require.NoError(t, err)

		farmer, err := store.GetFarmer(ctx, farmerID)
		require.NoError(t, err)
		assert.Equal(t, 10.0, farmer.TotalCredits)
	})
}

func testPurchasesAndStats(t *testing.T, store Store) {
	ctx := context.Background()
	farmerID := createTestFarmer(t, store, "seller")
	businessID := createTestBusiness(t, store, "acme")

	verified := buildTestPlantation(farmerID, 10, 0.5)
	require.NoError(t, store.CreatePlantation(ctx, verified))
	verified.VerificationStatus = domain.StatusVerified
	verified.Credits = 500
	require.NoError(t, store.UpdatePlantation(ctx, verified))

	pending := buildTestPlantation(farmerID, 1, 0.5)
	require.NoError(t, store.CreatePlantation(ctx, pending))

	for _, amount := range []float64{100, 50.5} {
		purchase := &schema.Purchase{PlantationID: verified.ID, BusinessID: businessID, CreditsBought: amount}
		require.NoError(t, store.CreatePurchase(ctx, purchase))
		assert.NotZero(t, purchase.ID)
	}

	purchases, err := store.ListPurchases(ctx, PurchaseFilter{BusinessID: &businessID})
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, 100.0, purchases[0].CreditsBought)

	stats, err := store.GetMarketplaceStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActivePlantations)
	assert.Equal(t, 150.5, stats.TotalCreditsTraded)
	assert.Equal(t, int64(1), stats.VerifiedFarmers)
}

func testTransaction(t *testing.T, store Store) {
	ctx := context.Background()
	farmerID := createTestFarmer(t, store, "txfarmer")

	t.Run("rollback on error", func(t *testing.T) {
		errBoom := errors.New("boom")
		err := store.Transaction(ctx, func(tx Store) error {
			if err := tx.UpdateFarmerTotalCredits(ctx, farmerID, 999); err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		farmer, err := store.GetFarmer(ctx, farmerID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, farmer.TotalCredits)
	})

	t.Run("commit on success", func(t *testing.T) {
		err := store.Transaction(ctx, func(tx Store) error {
			return tx.UpdateFarmerTotalCredits(ctx, farmerID, 42)
		})
		require.NoError(t, err)

		farmer, err := store.GetFarmer(ctx, farmerID)
		require.NoError(t, err)
		assert.Equal(t, 42.0, farmer.TotalCredits)
	})
}

func testGetChanges(t *testing.T, store Store) {
	ctx := context.Background()

	for i := range 3 {
		meta := map[string]any{"step": i}
		require.NoError(t, store.AppendChange(ctx, domain.SubjectPlantation, 7, meta))
	}
	require.NoError(t, store.AppendChange(ctx, domain.SubjectPurchase, 8, map[string]any{"credits": 10}))

	t.Run("filter by subject", func(t *testing.T) {
		subject := domain.SubjectPlantation
		changes, err := store.GetChanges(ctx, ChangesQueryFilter{SubjectType: &subject, SubjectID: ptr("7")})
		require.NoError(t, err)
		require.Len(t, changes, 3)

		var meta map[string]any
		require.NoError(t, json.Unmarshal(changes[2].Meta, &meta))
		assert.Equal(t, float64(2), meta["step"])
	})

	t.Run("pagination by cursor", func(t *testing.T) {
		page1, err := store.GetChanges(ctx, ChangesQueryFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page1, 2)

		page2, err := store.GetChanges(ctx, ChangesQueryFilter{AfterCursor: page1[1].Cursor, Limit: 10})
		require.NoError(t, err)
		require.NotEmpty(t, page2)
		assert.Greater(t, page2[0].Cursor, page1[1].Cursor)
		assert.Equal(t, strconv.FormatUint(8, 10), page2[len(page2)-1].SubjectID)
	})
}

func testSweepCursor(t *testing.T, store Store) {
	ctx := context.Background()
	name := fmt.Sprintf("balance-%d", time.Now().UnixNano())

	at, err := store.GetSweepCursor(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, at)

	first := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetSweepCursor(ctx, name, first))
	require.NoError(t, store.SetSweepCursor(ctx, name, first.Add(time.Hour)))

	at, err = store.GetSweepCursor(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, first.Add(time.Hour).Equal(*at))
}

// RunStoreTests runs every store test against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"Accounts", testAccounts},
		{"Plantations", testPlantations},
		{"FarmerAndBusinessTotals", testFarmerAndBusinessTotals},
		{"PurchasesAndStats", testPurchasesAndStats},
		{"Transaction", testTransaction},
		{"GetChanges", testGetChanges},
		{"SweepCursor", testSweepCursor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
