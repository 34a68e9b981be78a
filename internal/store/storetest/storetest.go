// Package storetest provides an in-memory SQLite store for workflow tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feral-file/carbon-marketplace/internal/credit"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// NewDB opens a migrated in-memory database limited to one connection, so
// concurrent transactions against it are serialized.
func NewDB(t testing.TB) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, store.Migrate(db))

	return db
}

// NewStore returns a store over a fresh in-memory database
func NewStore(t testing.TB) store.Store {
	return store.NewStore(NewDB(t))
}

// CreateFarmer inserts a verified farmer and returns its ID
func CreateFarmer(t testing.TB, st store.Store, username string) uint64 {
	return createAccount(t, st, domain.AccountFarmer, username)
}

// CreateBusiness inserts a verified business and returns its ID
func CreateBusiness(t testing.TB, st store.Store, username string) uint64 {
	return createAccount(t, st, domain.AccountBusiness, username)
}

func createAccount(t testing.TB, st store.Store, kind domain.AccountKind, username string) uint64 {
	id, err := st.CreateAccount(context.Background(), kind, schema.Account{
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    "$2a$10$hash",
		AccountSecurity: schema.AccountSecurity{EmailVerified: true},
	})
	require.NoError(t, err)
	return id
}

// CreatePlantation inserts a plantation in the given status. Verified plantations get
// credits from the formula; the farmer total is not refreshed.
func CreatePlantation(t testing.TB, st store.Store, farmerID uint64, area, ndvi float64, status domain.VerificationStatus) *schema.Plantation {
	p := &schema.Plantation{
		FarmerID:           farmerID,
		Latitude:           27.7,
		Longitude:          85.3,
		TreeType:           "Sal",
		Area:               area,
		NDVI:               ndvi,
		VerificationStatus: status,
	}
	if status == domain.StatusVerified {
		p.Credits = credit.Compute(area, ndvi)
		now := time.Now().UTC()
		p.VerifiedAt = &now
	}

	require.NoError(t, st.CreatePlantation(context.Background(), p))
	return p
}

// FailInserts makes every insert into table fail with err for the rest of the test
func FailInserts(t testing.TB, db *gorm.DB, table string, err error) {
	name := "storetest:fail_" + table
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == table {
			_ = tx.AddError(err)
		}
	}))
	t.Cleanup(func() {
		_ = db.Callback().Create().Remove(name)
	})
}

// RacingStore simulates a concurrent writer: inside a transaction, each of the first
// Races plantation reads is followed by a write that bumps the row version, so the
// caller's conditional update goes stale.
type RacingStore struct {
	store.Store
	Races int
}

func (s *RacingStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(&racingTx{Store: tx, parent: s})
	})
}

type racingTx struct {
	store.Store
	parent *RacingStore
}

func (t *racingTx) GetPlantation(ctx context.Context, id uint64) (*schema.Plantation, error) {
	p, err := t.Store.GetPlantation(ctx, id)
	if err != nil || p == nil || t.parent.Races <= 0 {
		return p, err
	}

	t.parent.Races--
	concurrent := *p
	if err := t.Store.UpdatePlantation(ctx, &concurrent); err != nil {
		return nil, err
	}

	return p, nil
}

// FailingCommitStore runs each transaction body and then rolls it back with Err,
// as if the commit itself had failed.
type FailingCommitStore struct {
	store.Store
	Err error
}

func (s *FailingCommitStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.Transaction(ctx, func(tx store.Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		return s.Err
	})
}
