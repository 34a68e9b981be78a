package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

const defaultChangesLimit = 100

type gormStore struct {
	db *gorm.DB
}

// forUpdate adds SELECT ... FOR UPDATE on PostgreSQL.
// SQLite has no row locks; its writers are already serialized per database.
func forUpdate(q *gorm.DB) *gorm.DB {
	if q.Dialector.Name() != DriverPostgres {
		return q
	}
	return q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// NewStore creates a new store backed by a GORM connection (PostgreSQL or SQLite)
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Migrate creates or updates the marketplace tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Farmer{},
		&schema.Business{},
		&schema.Plantation{},
		&schema.Purchase{},
		&schema.ChangesJournal{},
		&schema.KeyValueStore{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0 or empty, the defaults of NormalizeConnectionPoolSettings are used.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 20
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Transaction runs fn with a store bound to a single database transaction
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// =============================================================================
// Accounts
// =============================================================================

func accountTable(kind domain.AccountKind) (string, error) {
	switch kind {
	case domain.AccountFarmer:
		return schema.Farmer{}.TableName(), nil
	case domain.AccountBusiness:
		return schema.Business{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown account kind: %s", kind)
	}
}

func applyAccountFilter(q *gorm.DB, filter AccountFilter) (*gorm.DB, error) {
	switch {
	case filter.ID != nil:
		return q.Where("id = ?", *filter.ID), nil
	case filter.Username != nil:
		return q.Where("username = ?", *filter.Username), nil
	case filter.Email != nil:
		return q.Where("email = ?", *filter.Email), nil
	case filter.ExternalID != nil:
		return q.Where("external_id = ?", *filter.ExternalID), nil
	default:
		return nil, errors.New("account filter requires one field")
	}
}

// CreateAccount inserts a farmer or business and returns its ID
func (s *gormStore) CreateAccount(ctx context.Context, kind domain.AccountKind, account schema.Account) (uint64, error) {
	var (
		id  uint64
		err error
	)
	switch kind {
	case domain.AccountFarmer:
		farmer := schema.Farmer{Account: account}
		err = s.db.WithContext(ctx).Create(&farmer).Error
		id = farmer.ID
	case domain.AccountBusiness:
		business := schema.Business{Account: account}
		err = s.db.WithContext(ctx).Create(&business).Error
		id = business.ID
	default:
		return 0, fmt.Errorf("unknown account kind: %s", kind)
	}

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, domain.NewConflictError("username or email already registered")
		}
		return 0, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	return id, nil
}

// GetAccount returns the matching account, or nil when none exists
func (s *gormStore) GetAccount(ctx context.Context, kind domain.AccountKind, filter AccountFilter) (*AccountRecord, error) {
	q, err := applyAccountFilter(s.db.WithContext(ctx), filter)
	if err != nil {
		return nil, err
	}

	record := &AccountRecord{Kind: kind}
	switch kind {
	case domain.AccountFarmer:
		var farmer schema.Farmer
		err = q.First(&farmer).Error
		record.ID, record.Account = farmer.ID, farmer.Account
	case domain.AccountBusiness:
		var business schema.Business
		err = q.First(&business).Error
		record.ID, record.Account = business.ID, business.Account
	default:
		return nil, fmt.Errorf("unknown account kind: %s", kind)
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}

	return record, nil
}

// SaveAccountSecurity overwrites the verification, lockout and 2FA state of an account
func (s *gormStore) SaveAccountSecurity(ctx context.Context, kind domain.AccountKind, id uint64, security schema.AccountSecurity) error {
	table, err := accountTable(kind)
	if err != nil {
		return err
	}

	columns := security.Columns()
	columns["updated_at"] = time.Now().UTC()

	result := s.db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to save %s security state: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("%s %d not found", kind, id)
	}

	return nil
}

// UsernameExists checks whether a username is taken for the given account kind
func (s *gormStore) UsernameExists(ctx context.Context, kind domain.AccountKind, username string) (bool, error) {
	table, err := accountTable(kind)
	if err != nil {
		return false, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Table(table).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}

	return count > 0, nil
}

// =============================================================================
// Farmers & businesses
// =============================================================================

// GetFarmer retrieves a farmer by ID
func (s *gormStore) GetFarmer(ctx context.Context, id uint64) (*schema.Farmer, error) {
	return s.getFarmer(s.db.WithContext(ctx), id)
}

func (s *gormStore) GetFarmerForUpdate(ctx context.Context, id uint64) (*schema.Farmer, error) {
	return s.getFarmer(forUpdate(s.db.WithContext(ctx)), id)
}

func (s *gormStore) getFarmer(q *gorm.DB, id uint64) (*schema.Farmer, error) {
	var farmer schema.Farmer
	err := q.Where("id = ?", id).First(&farmer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get farmer: %w", err)
	}

	return &farmer, nil
}

// ListFarmers returns all farmers ordered by ID
func (s *gormStore) ListFarmers(ctx context.Context) ([]schema.Farmer, error) {
	var farmers []schema.Farmer
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&farmers).Error; err != nil {
		return nil, fmt.Errorf("failed to list farmers: %w", err)
	}

	return farmers, nil
}

// UpdateFarmerTotalCredits persists the derived farmer total
func (s *gormStore) UpdateFarmerTotalCredits(ctx context.Context, id uint64, total float64) error {
	result := s.db.WithContext(ctx).
		Model(&schema.Farmer{}).
		Where("id = ?", id).
		Update("total_credits", total)
	if result.Error != nil {
		return fmt.Errorf("failed to update farmer total credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("farmer %d not found", id)
	}

	return nil
}

// GetBusiness retrieves a business by ID
func (s *gormStore) GetBusiness(ctx context.Context, id uint64) (*schema.Business, error) {
	return s.getBusiness(s.db.WithContext(ctx), id)
}

func (s *gormStore) GetBusinessForUpdate(ctx context.Context, id uint64) (*schema.Business, error) {
	return s.getBusiness(forUpdate(s.db.WithContext(ctx)), id)
}

func (s *gormStore) getBusiness(q *gorm.DB, id uint64) (*schema.Business, error) {
	var business schema.Business
	err := q.Where("id = ?", id).First(&business).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &business, nil
}

// ListBusinesses returns all businesses ordered by ID
func (s *gormStore) ListBusinesses(ctx context.Context) ([]schema.Business, error) {
	var businesses []schema.Business
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&businesses).Error; err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}

	return businesses, nil
}

// UpdateBusinessPurchasedCredits persists the derived business purchase total
func (s *gormStore) UpdateBusinessPurchasedCredits(ctx context.Context, id uint64, total float64) error {
	result := s.db.WithContext(ctx).
		Model(&schema.Business{}).
		Where("id = ?", id).
		Update("purchased_credits", total)
	if result.Error != nil {
		return fmt.Errorf("failed to update business purchased credits: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("business %d not found", id)
	}

	return nil
}

// =============================================================================
// Plantations
// =============================================================================

// CreatePlantation inserts a plantation and populates its ID
func (s *gormStore) CreatePlantation(ctx context.Context, plantation *schema.Plantation) error {
	if plantation.Version == 0 {
		plantation.Version = 1
	}
	if plantation.VerificationStatus == "" {
		plantation.VerificationStatus = domain.StatusPending
	}

	if err := s.db.WithContext(ctx).Omit("Farmer").Create(plantation).Error; err != nil {
		return fmt.Errorf("failed to create plantation: %w", err)
	}

	return nil
}

// GetPlantation retrieves a plantation by ID
func (s *gormStore) GetPlantation(ctx context.Context, id uint64) (*schema.Plantation, error) {
	var plantation schema.Plantation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&plantation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plantation: %w", err)
	}

	return &plantation, nil
}

// ListPlantations returns plantations matching the filter ordered by ID
func (s *gormStore) ListPlantations(ctx context.Context, filter PlantationFilter) ([]schema.Plantation, error) {
	q := s.db.WithContext(ctx).Model(&schema.Plantation{})
	if filter.FarmerID != nil {
		q = q.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.Status != nil {
		q = q.Where("verification_status = ?", *filter.Status)
	}

	var plantations []schema.Plantation
	if err := q.Order("id ASC").Find(&plantations).Error; err != nil {
		return nil, fmt.Errorf("failed to list plantations: %w", err)
	}

	return plantations, nil
}

// UpdatePlantation writes ndvi, credits, status and verified_at guarded by the version column
func (s *gormStore) UpdatePlantation(ctx context.Context, plantation *schema.Plantation) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&schema.Plantation{}).
		Where("id = ? AND version = ?", plantation.ID, plantation.Version).
		Updates(map[string]any{
			"ndvi":                plantation.NDVI,
			"credits":             plantation.Credits,
			"verification_status": plantation.VerificationStatus,
			"verified_at":         plantation.VerifiedAt,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update plantation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("plantation %d at version %d: %w", plantation.ID, plantation.Version, domain.ErrStaleWrite)
	}

	plantation.Version++
	plantation.UpdatedAt = now

	return nil
}

// =============================================================================
// Purchases
// =============================================================================

// CreatePurchase appends a purchase record and populates its ID
func (s *gormStore) CreatePurchase(ctx context.Context, purchase *schema.Purchase) error {
	if err := s.db.WithContext(ctx).Omit("Plantation", "Business").Create(purchase).Error; err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

// ListPurchases returns purchases matching the filter ordered by ID
func (s *gormStore) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]schema.Purchase, error) {
	q := s.db.WithContext(ctx).Model(&schema.Purchase{})
	if filter.BusinessID != nil {
		q = q.Where("business_id = ?", *filter.BusinessID)
	}
	if filter.PlantationID != nil {
		q = q.Where("plantation_id = ?", *filter.PlantationID)
	}

	var purchases []schema.Purchase
	if err := q.Order("id ASC").Find(&purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	return purchases, nil
}

// =============================================================================
// Changes journal
// =============================================================================

// AppendChange records a committed mutation in the changes journal
func (s *gormStore) AppendChange(ctx context.Context, subjectType domain.SubjectType, subjectID uint64, meta any) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal change meta: %w", err)
	}

	entry := schema.ChangesJournal{
		SubjectType: subjectType,
		SubjectID:   strconv.FormatUint(subjectID, 10),
		ChangedAt:   time.Now().UTC(),
		Meta:        datatypes.JSON(metaJSON),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append change: %w", err)
	}

	return nil
}

// GetChanges returns journal entries matching the filter ordered by cursor
func (s *gormStore) GetChanges(ctx context.Context, filter ChangesQueryFilter) ([]schema.ChangesJournal, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultChangesLimit
	}

	q := s.db.WithContext(ctx).Model(&schema.ChangesJournal{}).Where("cursor > ?", filter.AfterCursor)
	if filter.SubjectType != nil {
		q = q.Where("subject_type = ?", *filter.SubjectType)
	}
	if filter.SubjectID != nil {
		q = q.Where("subject_id = ?", *filter.SubjectID)
	}

	var changes []schema.ChangesJournal
	if err := q.Order("cursor ASC").Limit(limit).Find(&changes).Error; err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}

	return changes, nil
}

// =============================================================================
// Stats
// =============================================================================

// GetMarketplaceStats computes the landing-page summary
func (s *gormStore) GetMarketplaceStats(ctx context.Context) (*MarketplaceStats, error) {
	var stats MarketplaceStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&schema.Plantation{}).
		Where("verification_status = ?", domain.StatusVerified).
		Count(&stats.ActivePlantations).Error; err != nil {
		return nil, fmt.Errorf("failed to count active plantations: %w", err)
	}

	if err := db.Model(&schema.Purchase{}).
		Select("COALESCE(SUM(credits_bought), 0)").
		Scan(&stats.TotalCreditsTraded).Error; err != nil {
		return nil, fmt.Errorf("failed to sum traded credits: %w", err)
	}

	if err := db.Model(&schema.Plantation{}).
		Where("verification_status = ?", domain.StatusVerified).
		Distinct("farmer_id").
		Count(&stats.VerifiedFarmers).Error; err != nil {
		return nil, fmt.Errorf("failed to count verified farmers: %w", err)
	}

	return &stats, nil
}
