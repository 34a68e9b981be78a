package schema

import (
	"time"
)

// Account holds the identity and credential fields shared by farmers and businesses
type Account struct {
	// Username is the unique login name
	Username string `gorm:"column:username;not null;uniqueIndex;type:text"`
	// Email is the unique contact address, used for verification and 2FA delivery
	Email string `gorm:"column:email;not null;uniqueIndex;type:text"`
	// PasswordHash is the bcrypt hash of the account password
	PasswordHash string `gorm:"column:password_hash;not null;type:text"`
	// ExternalID is the federated identity subject (nil for password-only accounts)
	ExternalID *string `gorm:"column:external_id;uniqueIndex;type:text"`

	AccountSecurity `gorm:"embedded"`

	// CreatedAt is the timestamp when the account registered
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	// UpdatedAt is the timestamp of the last account update
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// AccountSecurity holds the verification, lockout and second-factor state of an account.
// It is always read and written as a whole.
type AccountSecurity struct {
	EmailVerified              bool       `gorm:"column:email_verified;not null;default:false"`
	EmailVerificationCode      *string    `gorm:"column:email_verification_code;type:text"`
	EmailVerificationExpiresAt *time.Time `gorm:"column:email_verification_expires_at"`
	TwoFactorCode              *string    `gorm:"column:two_factor_code;type:text"`
	TwoFactorExpiresAt         *time.Time `gorm:"column:two_factor_expires_at"`
	LastLoginAt                *time.Time `gorm:"column:last_login_at"`
	// FailedLoginAttempts counts consecutive failures; reset on success
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;not null;default:0"`
	LockedUntil         *time.Time `gorm:"column:locked_until"`
}

// Columns returns the column/value map used to persist the security state, including NULLs
func (s AccountSecurity) Columns() map[string]any {
	return map[string]any{
		"email_verified":                s.EmailVerified,
		"email_verification_code":       s.EmailVerificationCode,
		"email_verification_expires_at": s.EmailVerificationExpiresAt,
		"two_factor_code":               s.TwoFactorCode,
		"two_factor_expires_at":         s.TwoFactorExpiresAt,
		"last_login_at":                 s.LastLoginAt,
		"failed_login_attempts":         s.FailedLoginAttempts,
		"locked_until":                  s.LockedUntil,
	}
}

// Farmer represents the farmers table - landowners who register plantations
type Farmer struct {
	// ID is the internal database primary key
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Account `gorm:"embedded"`
	// TotalCredits is derived: the sum of credits over the farmer's verified plantations
	TotalCredits float64 `gorm:"column:total_credits;not null;default:0"`
}

// TableName specifies the table name for the Farmer model
func (Farmer) TableName() string {
	return "farmers"
}

// Business represents the businesses table - buyers of carbon credits
type Business struct {
	// ID is the internal database primary key
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Account `gorm:"embedded"`
	// PurchasedCredits is derived: the sum of credits_bought over the business's purchases
	PurchasedCredits float64 `gorm:"column:purchased_credits;not null;default:0"`
}

// TableName specifies the table name for the Business model
func (Business) TableName() string {
	return "businesses"
}
