package dto

import (
	"time"

	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// MessageResponse is returned by endpoints that only acknowledge an action
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Message              string `json:"message"`
	UserID               uint64 `json:"user_id"`
	RequiresVerification bool   `json:"requires_verification"`
	// VerificationEmailSent is false when the account exists but the code must be re-sent
	VerificationEmailSent bool `json:"verification_email_sent"`
}

// LoginResponse is returned once the password (or federated identity) was accepted and a 2FA code sent
type LoginResponse struct {
	Message     string `json:"message"`
	UserID      uint64 `json:"user_id"`
	Requires2FA bool   `json:"requires_2fa"`
	IsNewUser   bool   `json:"is_new_user,omitempty"`
}

// SessionResponse is returned after a completed second factor
type SessionResponse struct {
	Message   string             `json:"message"`
	UserID    uint64             `json:"user_id"`
	UserType  domain.AccountKind `json:"user_type"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// CreatedResponse is returned when a record was created
type CreatedResponse struct {
	Message string `json:"message"`
	ID      uint64 `json:"id"`
}

// Plantation is the public view of a plantation
type Plantation struct {
	ID                 uint64                    `json:"id"`
	FarmerID           uint64                    `json:"farmer_id"`
	Latitude           float64                   `json:"latitude"`
	Longitude          float64                   `json:"longitude"`
	TreeType           string                    `json:"tree_type"`
	Area               float64                   `json:"area"`
	NDVI               float64                   `json:"ndvi"`
	Credits            float64                   `json:"credits"`
	ImagePath          *string                   `json:"image_path"`
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
	CreatedAt          time.Time                 `json:"created_at"`
	VerifiedAt         *time.Time                `json:"verified_at"`
}

// NDVIResponse is returned after a vegetation index update
type NDVIResponse struct {
	Message string  `json:"message"`
	NDVI    float64 `json:"ndvi"`
	Credits float64 `json:"credits"`
}

// VerificationResponse is returned after an admin verification decision
type VerificationResponse struct {
	Message string                    `json:"message"`
	Status  domain.VerificationStatus `json:"status"`
	Credits float64                   `json:"credits"`
}

// CreditsResponse is the farmer's credit total
type CreditsResponse struct {
	TotalCredits float64 `json:"total_credits"`
}

// Purchase is the public view of a credit purchase
type Purchase struct {
	ID            uint64    `json:"id"`
	PlantationID  uint64    `json:"plantation_id"`
	BusinessID    uint64    `json:"business_id"`
	CreditsBought float64   `json:"credits_bought"`
	Date          time.Time `json:"date"`
}

// PurchaseResponse is returned after a successful purchase
type PurchaseResponse struct {
	Message  string   `json:"message"`
	Purchase Purchase `json:"purchase"`
}

// Farmer is the admin view of a farmer
type Farmer struct {
	ID            uint64  `json:"id"`
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	EmailVerified bool    `json:"email_verified"`
	TotalCredits  float64 `json:"total_credits"`
}

// Business is the admin view of a business
type Business struct {
	ID               uint64  `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	EmailVerified    bool    `json:"email_verified"`
	PurchasedCredits float64 `json:"purchased_credits"`
}

// StatsResponse is the landing-page summary
type StatsResponse struct {
	ActivePlantations  int64   `json:"active_plantations"`
	TotalCreditsTraded float64 `json:"total_credits_traded"`
	VerifiedFarmers    int64   `json:"verified_farmers"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
