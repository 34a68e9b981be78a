package domain

import (
	"strings"
	"time"
)

// VerificationStatus represents the lifecycle state of a plantation
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// IsValid checks if a status is one of the known lifecycle states
func (s VerificationStatus) IsValid() bool {
	return s == StatusPending || s == StatusVerified || s == StatusRejected
}

// IsDecision reports whether the status can be the target of an admin decision
func (s VerificationStatus) IsDecision() bool {
	return s == StatusVerified || s == StatusRejected
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Rejected is terminal; re-verifying a verified plantation is allowed and re-applies the formula.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusVerified || next == StatusRejected
	case StatusVerified:
		return next == StatusVerified || next == StatusRejected
	default:
		return false
	}
}

// ParseVerificationStatus normalizes user input into a VerificationStatus
func ParseVerificationStatus(s string) VerificationStatus {
	return VerificationStatus(strings.ToLower(strings.TrimSpace(s)))
}

// AccountKind distinguishes the two self-registered account types
type AccountKind string

const (
	AccountFarmer   AccountKind = "farmer"
	AccountBusiness AccountKind = "business"
)

// IsValid checks if an account kind is known
func (k AccountKind) IsValid() bool {
	return k == AccountFarmer || k == AccountBusiness
}

// Role is the authorization role of an authenticated caller
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleBusiness Role = "business"
	RoleAdmin    Role = "admin"
)

// RoleOf returns the role granted to holders of an account kind
func RoleOf(kind AccountKind) Role {
	return Role(kind)
}

// Requester identifies the authenticated caller of an operation
type Requester struct {
	Role Role
	ID   uint64 // zero for admin API keys
}

// IsAdmin reports whether the requester holds the admin role
func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// SubjectType identifies the record a journal entry or event refers to
type SubjectType string

const (
	SubjectPlantation SubjectType = "plantation"
	SubjectFarmer     SubjectType = "farmer"
	SubjectBusiness   SubjectType = "business"
	SubjectPurchase   SubjectType = "purchase"
)

// EventType represents the type of marketplace event
type EventType string

const (
	EventPlantationCreated     EventType = "plantation.created"
	EventPlantationVerified    EventType = "plantation.verified"
	EventPlantationRejected    EventType = "plantation.rejected"
	EventPlantationNDVIUpdated EventType = "plantation.ndvi_updated"
	EventCreditsPurchased      EventType = "credits.purchased"
)

// MarketplaceEvent is the normalized event published after a committed mutation
type MarketplaceEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	PlantationID uint64    `json:"plantation_id"`
	FarmerID     uint64    `json:"farmer_id"`
	BusinessID   *uint64   `json:"business_id,omitempty"`
	Credits      float64   `json:"credits"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NotificationKind identifies the template of an outbound notification
type NotificationKind string

const (
	NotificationEmailVerification NotificationKind = "email_verification"
	NotificationTwoFactor         NotificationKind = "two_factor"
	NotificationContact           NotificationKind = "contact"
)
