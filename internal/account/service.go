package account

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/notifier"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/store/schema"
)

// Config holds account security thresholds
type Config struct {
	MaxFailedLoginAttempts int
	LockoutDuration        time.Duration
	EmailCodeTTL           time.Duration
	TwoFactorCodeTTL       time.Duration
}

// DefaultConfig returns the standard security thresholds
func DefaultConfig() Config {
	return Config{
		MaxFailedLoginAttempts: domain.MaxFailedLoginAttempts,
		LockoutDuration:        domain.DefaultLockoutDuration,
		EmailCodeTTL:           domain.EmailVerificationCodeTTL,
		TwoFactorCodeTTL:       domain.TwoFactorCodeTTL,
	}
}

// RegisterInput is a password registration request
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// RegisterResult describes a created account
type RegisterResult struct {
	ID       uint64
	Username string
	Email    string
	// VerificationEmailSent is false when the account was created but the code could not be delivered
	VerificationEmailSent bool
}

// FederatedIdentity is an identity asserted by an external provider
type FederatedIdentity struct {
	ExternalID string
	Email      string
	Name       string
}

// LoginResult is returned once the first factor passed and a 2FA code was sent
type LoginResult struct {
	UserID    uint64
	Kind      domain.AccountKind
	IsNewUser bool
}

// Service implements registration, email verification, lockout and two-factor login
type Service interface {
	Register(ctx context.Context, kind domain.AccountKind, input RegisterInput) (*RegisterResult, error)

	// VerifyEmail confirms the emailed code. Returns alreadyVerified=true without changes
	// when the address was verified before.
	VerifyEmail(ctx context.Context, kind domain.AccountKind, userID uint64, code string) (alreadyVerified bool, err error)

	// ResendVerification issues a fresh email code. Returns sent=false for verified accounts.
	ResendVerification(ctx context.Context, kind domain.AccountKind, email string) (sent bool, err error)

	Login(ctx context.Context, kind domain.AccountKind, username, password string) (*LoginResult, error)

	// VerifyTwoFactor consumes the login code and issues a bearer token
	VerifyTwoFactor(ctx context.Context, kind domain.AccountKind, userID uint64, code string) (*Session, error)

	FederatedLogin(ctx context.Context, kind domain.AccountKind, identity FederatedIdentity) (*LoginResult, error)
}

type service struct {
	store       store.Store
	credentials CredentialStore
	notifier    notifier.Notifier
	tokens      TokenIssuer
	random      adapter.Random
	clock       adapter.Clock
	config      Config
}

// NewService creates a new account service
func NewService(
	st store.Store,
	credentials CredentialStore,
	n notifier.Notifier,
	tokens TokenIssuer,
	random adapter.Random,
	clock adapter.Clock,
	config Config,
) Service {
	return &service{
		store:       st,
		credentials: credentials,
		notifier:    n,
		tokens:      tokens,
		random:      random,
		clock:       clock,
		config:      config,
	}
}

func validKind(kind domain.AccountKind) error {
	if !kind.IsValid() {
		return domain.NewValidationError("unknown account type %q", kind)
	}
	return nil
}

func subjectOf(kind domain.AccountKind) domain.SubjectType {
	if kind == domain.AccountBusiness {
		return domain.SubjectBusiness
	}
	return domain.SubjectFarmer
}

func codesEqual(expected *string, got string) bool {
	if expected == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*expected), []byte(got)) == 1
}

func (s *service) newCode(ttl time.Duration) (*string, *time.Time, error) {
	code, err := s.random.NumericCode(domain.VerificationCodeLength)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate code: %w", err)
	}
	expiresAt := s.clock.Now().Add(ttl)
	return &code, &expiresAt, nil
}

func (s *service) Register(ctx context.Context, kind domain.AccountKind, input RegisterInput) (*RegisterResult, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	email := NormalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, domain.NewValidationError("username, email, and password are required")
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	taken, err := s.store.UsernameExists(ctx, kind, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.NewConflictError("username already exists")
	}
	existing, err := s.store.GetAccount(ctx, kind, store.AccountFilter{Email: &email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewConflictError("email already registered")
	}

	hash, err := s.credentials.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	code, expiresAt, err := s.newCode(s.config.EmailCodeTTL)
	if err != nil {
		return nil, err
	}

	var id uint64
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		id, err = tx.CreateAccount(ctx, kind, schema.Account{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			AccountSecurity: schema.AccountSecurity{
				EmailVerificationCode:      code,
				EmailVerificationExpiresAt: expiresAt,
			},
		})
		if err != nil {
			return err
		}
		return tx.AppendChange(ctx, subjectOf(kind), id, map[string]any{"action": "registered"})
	})
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{
		ID:                    id,
		Username:              username,
		Email:                 email,
		VerificationEmailSent: true,
	}

	// The account is committed; a delivery failure only degrades the response
	if err := s.notifier.Send(ctx, notifier.VerificationEmail(email, *code, s.config.EmailCodeTTL)); err != nil {
		logger.WarnCtx(ctx, "Failed to send verification email",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.Uint64("user_id", id))
		result.VerificationEmailSent = false
	}

	return result, nil
}

func (s *service) getAccount(ctx context.Context, kind domain.AccountKind, filter store.AccountFilter) (*store.AccountRecord, error) {
	account, err := s.store.GetAccount(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.NewNotFoundError("user not found")
	}
	return account, nil
}

func (s *service) VerifyEmail(ctx context.Context, kind domain.AccountKind, userID uint64, code string) (bool, error) {
	if err := validKind(kind); err != nil {
		return false, err
	}
	if userID == 0 || code == "" {
		return false, domain.NewValidationError("user ID and verification code are required")
	}

	account, err := s.getAccount(ctx, kind, store.AccountFilter{ID: &userID})
	if err != nil {
		return false, err
	}
	if account.EmailVerified {
		return true, nil
	}

	security := account.AccountSecurity
	if !codesEqual(security.EmailVerificationCode, strings.TrimSpace(code)) {
		return false, domain.NewValidationError("invalid verification code")
	}
	if security.EmailVerificationExpiresAt == nil || s.clock.Now().After(*security.EmailVerificationExpiresAt) {
		return false, domain.NewValidationError("verification code has expired")
	}

	security.EmailVerified = true
	security.EmailVerificationCode = nil
	security.EmailVerificationExpiresAt = nil
	if err := s.store.SaveAccountSecurity(ctx, kind, account.ID, security); err != nil {
		return false, err
	}

	return false, nil
}

func (s *service) ResendVerification(ctx context.Context, kind domain.AccountKind, email string) (bool, error) {
	if err := validKind(kind); err != nil {
		return false, err
	}
	email = NormalizeEmail(email)
	if email == "" {
		return false, domain.NewValidationError("email is required")
	}

	account, err := s.store.GetAccount(ctx, kind, store.AccountFilter{Email: &email})
	if err != nil {
		return false, err
	}
	if account == nil {
		return false, domain.NewNotFoundError("email not found")
	}
	if account.EmailVerified {
		return false, nil
	}

	code, expiresAt, err := s.newCode(s.config.EmailCodeTTL)
	if err != nil {
		return false, err
	}
	security := account.AccountSecurity
	security.EmailVerificationCode = code
	security.EmailVerificationExpiresAt = expiresAt
	if err := s.store.SaveAccountSecurity(ctx, kind, account.ID, security); err != nil {
		return false, err
	}

	if err := s.notifier.Send(ctx, notifier.VerificationEmail(account.Email, *code, s.config.EmailCodeTTL)); err != nil {
		return false, domain.NewDependencyError("notifier", err)
	}

	return true, nil
}

func (s *service) Login(ctx context.Context, kind domain.AccountKind, username, password string) (*LoginResult, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.NewValidationError("username and password are required")
	}

	account, err := s.store.GetAccount(ctx, kind, store.AccountFilter{Username: &username})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if account != nil && account.LockedUntil != nil && account.LockedUntil.After(now) {
		return nil, domain.NewLockedError(account.LockedUntil.Sub(now))
	}

	if account == nil || !s.credentials.Verify(account.PasswordHash, password) {
		if account != nil {
			if err := s.recordFailedLogin(ctx, account, now); err != nil {
				return nil, err
			}
		}
		return nil, domain.NewUnauthenticatedError("invalid credentials")
	}

	if !account.EmailVerified {
		return nil, domain.NewEmailNotVerifiedError(account.ID)
	}

	security := account.AccountSecurity
	security.FailedLoginAttempts = 0
	security.LockedUntil = nil
	security.LastLoginAt = &now
	if err := s.sendTwoFactor(ctx, account, security); err != nil {
		return nil, err
	}

	return &LoginResult{UserID: account.ID, Kind: kind}, nil
}

// recordFailedLogin counts a bad password and locks the account once the threshold is reached
func (s *service) recordFailedLogin(ctx context.Context, account *store.AccountRecord, now time.Time) error {
	security := account.AccountSecurity
	security.FailedLoginAttempts++
	if security.FailedLoginAttempts >= s.config.MaxFailedLoginAttempts {
		lockedUntil := now.Add(s.config.LockoutDuration)
		security.LockedUntil = &lockedUntil
		security.FailedLoginAttempts = 0

		logger.WarnCtx(ctx, "Account locked after repeated login failures",
			zap.String("kind", string(account.Kind)),
			zap.Uint64("user_id", account.ID),
			zap.Time("locked_until", lockedUntil))
	}

	return s.store.SaveAccountSecurity(ctx, account.Kind, account.ID, security)
}

// sendTwoFactor stores a fresh login code with the given security state and delivers it
func (s *service) sendTwoFactor(ctx context.Context, account *store.AccountRecord, security schema.AccountSecurity) error {
	code, expiresAt, err := s.newCode(s.config.TwoFactorCodeTTL)
	if err != nil {
		return err
	}
	security.TwoFactorCode = code
	security.TwoFactorExpiresAt = expiresAt

	if err := s.store.SaveAccountSecurity(ctx, account.Kind, account.ID, security); err != nil {
		return err
	}

	if err := s.notifier.Send(ctx, notifier.TwoFactorEmail(account.Email, *code, s.config.TwoFactorCodeTTL)); err != nil {
		return domain.NewDependencyError("notifier", err)
	}

	return nil
}

func (s *service) VerifyTwoFactor(ctx context.Context, kind domain.AccountKind, userID uint64, code string) (*Session, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if userID == 0 || len(code) != domain.VerificationCodeLength {
		return nil, domain.NewValidationError("invalid 2FA code format")
	}

	account, err := s.getAccount(ctx, kind, store.AccountFilter{ID: &userID})
	if err != nil {
		return nil, err
	}

	security := account.AccountSecurity
	if !codesEqual(security.TwoFactorCode, code) {
		return nil, domain.NewUnauthenticatedError("invalid 2FA code")
	}
	if security.TwoFactorExpiresAt == nil || s.clock.Now().After(*security.TwoFactorExpiresAt) {
		return nil, domain.NewUnauthenticatedError("2FA code has expired")
	}

	security.TwoFactorCode = nil
	security.TwoFactorExpiresAt = nil
	if err := s.store.SaveAccountSecurity(ctx, kind, account.ID, security); err != nil {
		return nil, err
	}

	return s.tokens.Issue(kind, account.ID)
}

func (s *service) FederatedLogin(ctx context.Context, kind domain.AccountKind, identity FederatedIdentity) (*LoginResult, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	externalID := strings.TrimSpace(identity.ExternalID)
	email := NormalizeEmail(identity.Email)
	if externalID == "" || email == "" {
		return nil, domain.NewValidationError("external ID and email are required")
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, kind, store.AccountFilter{ExternalID: &externalID})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	isNew := false
	if account == nil {
		account, err = s.createFederatedAccount(ctx, kind, externalID, email, identity.Name)
		if err != nil {
			return nil, err
		}
		isNew = true
	}

	// The provider vouches for the address
	security := account.AccountSecurity
	security.EmailVerified = true
	security.EmailVerificationCode = nil
	security.EmailVerificationExpiresAt = nil
	security.FailedLoginAttempts = 0
	security.LockedUntil = nil
	security.LastLoginAt = &now
	if err := s.sendTwoFactor(ctx, account, security); err != nil {
		return nil, err
	}

	return &LoginResult{UserID: account.ID, Kind: kind, IsNewUser: isNew}, nil
}

func (s *service) createFederatedAccount(ctx context.Context, kind domain.AccountKind, externalID, email, name string) (*store.AccountRecord, error) {
	existing, err := s.store.GetAccount(ctx, kind, store.AccountFilter{Email: &email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewConflictError("email already registered, please login with your password")
	}

	username, err := s.uniqueUsername(ctx, kind, baseUsername(name, externalID))
	if err != nil {
		return nil, err
	}

	password, err := s.random.Token(domain.GeneratedPasswordByteLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := s.credentials.Hash(password)
	if err != nil {
		return nil, err
	}

	account := schema.Account{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		ExternalID:      &externalID,
		AccountSecurity: schema.AccountSecurity{EmailVerified: true},
	}

	var id uint64
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		id, err = tx.CreateAccount(ctx, kind, account)
		if err != nil {
			return err
		}
		return tx.AppendChange(ctx, subjectOf(kind), id, map[string]any{"action": "registered", "federated": true})
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Federated account created",
		zap.String("kind", string(kind)),
		zap.Uint64("user_id", id),
		zap.String("username", username),
		zap.String("email", logger.MaskEmail(email)))

	return &store.AccountRecord{ID: id, Kind: kind, Account: account}, nil
}

// baseUsername derives a username from the display name, or from the external ID when there is none
func baseUsername(name, externalID string) string {
	if name = strings.TrimSpace(name); name != "" {
		return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	}

	if len(externalID) > domain.GeneratedUsernameIDLength {
		externalID = externalID[:domain.GeneratedUsernameIDLength]
	}
	return domain.GeneratedUsernamePrefix + externalID
}

// uniqueUsername appends _1, _2, ... to base until the name is free
func (s *service) uniqueUsername(ctx context.Context, kind domain.AccountKind, base string) (string, error) {
	username := base
	for counter := 1; ; counter++ {
		taken, err := s.store.UsernameExists(ctx, kind, username)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
		username = fmt.Sprintf("%s_%d", base, counter)
	}
}
