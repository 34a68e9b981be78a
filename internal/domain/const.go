package domain

import "time"

const (
	// Account security
	MaxFailedLoginAttempts      = 5
	DefaultLockoutDuration      = 15 * time.Minute
	EmailVerificationCodeTTL    = 15 * time.Minute
	TwoFactorCodeTTL            = 10 * time.Minute
	VerificationCodeLength      = 6
	MinPasswordLength           = 12
	PasswordSpecialCharacters   = `!@#$%^&*(),.?":{}|<>`
	GeneratedUsernamePrefix     = "user_"
	GeneratedUsernameIDLength   = 8
	GeneratedPasswordByteLength = 24

	// Credit formula
	CreditsPerHectareNDVI = 100
	CreditDecimalPlaces   = 6
)
