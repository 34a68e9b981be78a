package store

import (
	"context"
	"time"

	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// AccountRecord is a farmer or business account viewed through its shared fields
type AccountRecord struct {
	ID   uint64
	Kind domain.AccountKind
	schema.Account
}

// AccountFilter selects a single account; exactly one field should be set
type AccountFilter struct {
	ID         *uint64
	Username   *string
	Email      *string
	ExternalID *string
}

// PlantationFilter narrows plantation listings; nil fields are ignored
type PlantationFilter struct {
	FarmerID *uint64
	Status   *domain.VerificationStatus
}

// PurchaseFilter narrows purchase listings; nil fields are ignored
type PurchaseFilter struct {
	BusinessID   *uint64
	PlantationID *uint64
}

// ChangesQueryFilter selects journal entries after a cursor
type ChangesQueryFilter struct {
	SubjectType *domain.SubjectType
	SubjectID   *string
	AfterCursor int64
	Limit       int
}

// MarketplaceStats is the landing-page summary
type MarketplaceStats struct {
	ActivePlantations  int64   `json:"active_plantations"`
	TotalCreditsTraded float64 `json:"total_credits_traded"`
	VerifiedFarmers    int64   `json:"verified_farmers"`
}

// Store defines the interface for database operations
type Store interface {
	// Transaction runs fn with a Store bound to a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// CreateAccount inserts a farmer or business and returns its ID
	CreateAccount(ctx context.Context, kind domain.AccountKind, account schema.Account) (uint64, error)
	// GetAccount returns the matching account, or nil when none exists
	GetAccount(ctx context.Context, kind domain.AccountKind, filter AccountFilter) (*AccountRecord, error)
	// SaveAccountSecurity overwrites the verification, lockout and 2FA state of an account
	SaveAccountSecurity(ctx context.Context, kind domain.AccountKind, id uint64, security schema.AccountSecurity) error
	// UsernameExists checks whether a username is taken for the given account kind
	UsernameExists(ctx context.Context, kind domain.AccountKind, username string) (bool, error)

	// GetFarmer retrieves a farmer by ID, or nil when none exists
	GetFarmer(ctx context.Context, id uint64) (*schema.Farmer, error)
	// GetFarmerForUpdate retrieves a farmer and holds its row lock until the transaction ends.
	// Every transaction that refreshes the farmer total takes this lock before reading plantations.
	GetFarmerForUpdate(ctx context.Context, id uint64) (*schema.Farmer, error)
	// ListFarmers returns all farmers ordered by ID
	ListFarmers(ctx context.Context) ([]schema.Farmer, error)
	// UpdateFarmerTotalCredits persists the derived farmer total
	UpdateFarmerTotalCredits(ctx context.Context, id uint64, total float64) error

	// GetBusiness retrieves a business by ID, or nil when none exists
	GetBusiness(ctx context.Context, id uint64) (*schema.Business, error)
	// GetBusinessForUpdate is GetBusiness with a row lock held until the transaction ends
	GetBusinessForUpdate(ctx context.Context, id uint64) (*schema.Business, error)
	// ListBusinesses returns all businesses ordered by ID
	ListBusinesses(ctx context.Context) ([]schema.Business, error)
	// UpdateBusinessPurchasedCredits persists the derived business purchase total
	UpdateBusinessPurchasedCredits(ctx context.Context, id uint64, total float64) error

	// CreatePlantation inserts a plantation and populates its ID
	CreatePlantation(ctx context.Context, plantation *schema.Plantation) error
	// GetPlantation retrieves a plantation by ID, or nil when none exists
	GetPlantation(ctx context.Context, id uint64) (*schema.Plantation, error)
	// ListPlantations returns plantations matching the filter ordered by ID
	ListPlantations(ctx context.Context, filter PlantationFilter) ([]schema.Plantation, error)
	// UpdatePlantation writes the mutable plantation fields if the stored version still
	// equals plantation.Version, then increments the version. Returns domain.ErrStaleWrite otherwise.
	UpdatePlantation(ctx context.Context, plantation *schema.Plantation) error

	// CreatePurchase appends a purchase record and populates its ID
	CreatePurchase(ctx context.Context, purchase *schema.Purchase) error
	// ListPurchases returns purchases matching the filter ordered by ID
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]schema.Purchase, error)

	// AppendChange records a committed mutation in the changes journal
	AppendChange(ctx context.Context, subjectType domain.SubjectType, subjectID uint64, meta any) error
	// GetChanges returns journal entries matching the filter ordered by cursor
	GetChanges(ctx context.Context, filter ChangesQueryFilter) ([]schema.ChangesJournal, error)

	// GetMarketplaceStats computes the landing-page summary
	GetMarketplaceStats(ctx context.Context) (*MarketplaceStats, error)

	// GetSweepCursor returns the last completed run time of a sweeper, or nil if it never ran
	GetSweepCursor(ctx context.Context, sweeper string) (*time.Time, error)
	// SetSweepCursor stores the last completed run time of a sweeper
	SetSweepCursor(ctx context.Context, sweeper string, at time.Time) error
}
