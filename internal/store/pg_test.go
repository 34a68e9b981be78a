//go:build integration

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// CARBON_MARKET_TEST_DB_DSN points the suite at an existing database instead of a container
const externalDSNEnv = "CARBON_MARKET_TEST_DB_DSN"

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn, terminate, err := postgresDSN(ctx)
	if err != nil {
		fmt.Printf("Failed to prepare PostgreSQL: %v\n", err)
		os.Exit(1)
	}

	code := func() int {
		defer terminate()

		dialector, err := Dialector(DriverPostgres, dsn)
		if err != nil {
			fmt.Printf("Invalid dialector: %v\n", err)
			return 1
		}
		testDB, err = gorm.Open(dialector, &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err != nil {
			fmt.Printf("Failed to connect to database: %v\n", err)
			return 1
		}
		if err := Migrate(testDB); err != nil {
			fmt.Printf("Failed to migrate schema: %v\n", err)
			return 1
		}

		return m.Run()
	}()

	os.Exit(code)
}

// postgresDSN returns the external DSN when configured, otherwise starts a container
func postgresDSN(ctx context.Context) (string, func(), error) {
	if dsn := os.Getenv(externalDSNEnv); dsn != "" {
		return dsn, func() {}, nil
	}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("carbon_market_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start container: %w", err)
	}

	terminate := func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return dsn, terminate, nil
}

// initPGTestDB isolates each test in a transaction that is rolled back on cleanup
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewStore(tx)
}

func cleanupPGTestDB(t *testing.T) {
	// Rolled back by initPGTestDB
}

// TestPostgreSQLStore runs all store tests against PostgreSQL
func TestPostgreSQLStore(t *testing.T) {
	require.NotNil(t, testDB, "test database not initialized")

	RunStoreTests(t, initPGTestDB, cleanupPGTestDB)
}

// TestPostgreSQLConcurrentVersionedUpdate checks that two writers racing on the same
// plantation version produce exactly one stale write under real row locking.
func TestPostgreSQLConcurrentVersionedUpdate(t *testing.T) {
	ctx := context.Background()
	st := NewStore(testDB)

	farmerID, err := st.CreateAccount(ctx, domain.AccountFarmer, buildTestAccount(fmt.Sprintf("race_%d", time.Now().UnixNano())))
	require.NoError(t, err)
	p := buildTestPlantation(farmerID, 10, 0.5)
	p.VerificationStatus = domain.StatusVerified
	p.Credits = 500
	require.NoError(t, st.CreatePlantation(ctx, p))
	t.Cleanup(func() {
		testDB.Where("id = ?", p.ID).Delete(&schema.Plantation{})
		testDB.Where("id = ?", farmerID).Delete(&schema.Farmer{})
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			update := *p
			update.Credits = float64(100 * (i + 1))
			errs[i] = st.Transaction(ctx, func(tx Store) error {
				return tx.UpdatePlantation(ctx, &update)
			})
		}(i)
	}
	wg.Wait()

	stale := 0
	for _, err := range errs {
		if errors.Is(err, domain.ErrStaleWrite) {
			stale++
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 1, stale)

	stored, err := st.GetPlantation(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Version+1, stored.Version)
}

// TestPostgreSQLFarmerLockSerializesTotals verifies one plantation while the NDVI of
// another plantation of the same farmer changes. The NDVI writer waits on the farmer
// row, so the total it writes includes the freshly verified plantation.
func TestPostgreSQLFarmerLockSerializesTotals(t *testing.T) {
	ctx := context.Background()
	st := NewStore(testDB)

	farmerID, err := st.CreateAccount(ctx, domain.AccountFarmer, buildTestAccount(fmt.Sprintf("lock_%d", time.Now().UnixNano())))
	require.NoError(t, err)
	pending := buildTestPlantation(farmerID, 10, 0.5)
	require.NoError(t, st.CreatePlantation(ctx, pending))
	verified := buildTestPlantation(farmerID, 4, 0.5)
	verified.VerificationStatus = domain.StatusVerified
	verified.Credits = 200
	require.NoError(t, st.CreatePlantation(ctx, verified))
	require.NoError(t, st.UpdateFarmerTotalCredits(ctx, farmerID, 200))
	t.Cleanup(func() {
		testDB.Where("farmer_id = ?", farmerID).Delete(&schema.Plantation{})
		testDB.Where("id = ?", farmerID).Delete(&schema.Farmer{})
	})

	refreshTotal := func(tx Store) error {
		status := domain.StatusVerified
		plantations, err := tx.ListPlantations(ctx, PlantationFilter{FarmerID: &farmerID, Status: &status})
		if err != nil {
			return err
		}
		total := 0.0
		for _, p := range plantations {
			total += p.Credits
		}
		return tx.UpdateFarmerTotalCredits(ctx, farmerID, total)
	}

	locked := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = st.Transaction(ctx, func(tx Store) error {
			if _, err := tx.GetFarmerForUpdate(ctx, farmerID); err != nil {
				return err
			}
			close(locked)

			update := *pending
			update.VerificationStatus = domain.StatusVerified
			update.Credits = 500
			if err := tx.UpdatePlantation(ctx, &update); err != nil {
				return err
			}
			if err := refreshTotal(tx); err != nil {
				return err
			}

			// hold the lock while the NDVI writer queues behind it
			time.Sleep(300 * time.Millisecond)
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		select {
		case <-locked:
		case <-time.After(10 * time.Second):
			errs[1] = errors.New("verification never took the farmer lock")
			return
		}
		errs[1] = st.Transaction(ctx, func(tx Store) error {
			if _, err := tx.GetFarmerForUpdate(ctx, farmerID); err != nil {
				return err
			}

			update := *verified
			update.NDVI = 0.8
			update.Credits = 320
			if err := tx.UpdatePlantation(ctx, &update); err != nil {
				return err
			}
			return refreshTotal(tx)
		})
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	farmer, err := st.GetFarmer(ctx, farmerID)
	require.NoError(t, err)
	assert.InDelta(t, 820.0, farmer.TotalCredits, 1e-9)
}
