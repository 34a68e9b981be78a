package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/feral-file/carbon-marketplace/internal/account"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/mocks"
	"github.com/feral-file/carbon-marketplace/internal/notifier"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/store/storetest"
)

const (
	testPassword = "Str0ng!Passw0rd"
	testCode     = "123456"
)

type testSetup struct {
	ctx      context.Context
	store    store.Store
	notifier *mocks.MockNotifier
	random   *mocks.MockRandom
	tokens   account.TokenIssuer
	now      time.Time
	service  account.Service
}

func setupTest(t *testing.T) *testSetup {
	ctrl := gomock.NewController(t)
	ts := &testSetup{
		ctx:      context.Background(),
		store:    storetest.NewStore(t),
		notifier: mocks.NewMockNotifier(ctrl),
		random:   mocks.NewMockRandom(ctrl),
		now:      time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return ts.now }).AnyTimes()
	ts.random.EXPECT().NumericCode(domain.VerificationCodeLength).Return(testCode, nil).AnyTimes()

	ts.tokens = account.NewTokenIssuer("secret", time.Hour, clock)
	ts.service = account.NewService(
		ts.store,
		account.NewBcryptCredentialStore(bcrypt.MinCost),
		ts.notifier,
		ts.tokens,
		ts.random,
		clock,
		account.DefaultConfig(),
	)
	return ts
}

func (ts *testSetup) expectSend(kind domain.NotificationKind, recipient string) {
	ts.notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msg notifier.Message) error {
			if msg.Kind != kind || msg.Recipient != recipient {
				return errors.New("unexpected message")
			}
			return nil
		})
}

// registerVerified creates an account through the service and confirms its email
func (ts *testSetup) registerVerified(t *testing.T, kind domain.AccountKind, username string) uint64 {
	email := username + "@example.com"
	ts.expectSend(domain.NotificationEmailVerification, email)
	result, err := ts.service.Register(ts.ctx, kind, account.RegisterInput{
		Username: username,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)

	_, err = ts.service.VerifyEmail(ts.ctx, kind, result.ID, testCode)
	require.NoError(t, err)
	return result.ID
}

func (ts *testSetup) getAccount(t *testing.T, kind domain.AccountKind, id uint64) *store.AccountRecord {
	record, err := ts.store.GetAccount(ts.ctx, kind, store.AccountFilter{ID: &id})
	require.NoError(t, err)
	require.NotNil(t, record)
	return record
}

func TestService_Register(t *testing.T) {
	ts := setupTest(t)
	ts.expectSend(domain.NotificationEmailVerification, "ram@example.com")

	result, err := ts.service.Register(ts.ctx, domain.AccountFarmer, account.RegisterInput{
		Username: "ram",
		Email:    " Ram@Example.com ",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.True(t, result.VerificationEmailSent)
	assert.Equal(t, "ram@example.com", result.Email)

	record := ts.getAccount(t, domain.AccountFarmer, result.ID)
	assert.False(t, record.EmailVerified)
	require.NotNil(t, record.EmailVerificationCode)
	assert.Equal(t, testCode, *record.EmailVerificationCode)
	assert.True(t, ts.now.Add(domain.EmailVerificationCodeTTL).Equal(*record.EmailVerificationExpiresAt))
	assert.NotEqual(t, testPassword, record.PasswordHash)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := ts.service.Register(ts.ctx, domain.AccountFarmer, account.RegisterInput{
			Username: "ram",
			Email:    "other@example.com",
			Password: testPassword,
		})
		assert.True(t, domain.IsKind(err, domain.KindConflict))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := ts.service.Register(ts.ctx, domain.AccountFarmer, account.RegisterInput{
			Username: "ram2",
			Email:    "RAM@example.com",
			Password: testPassword,
		})
		assert.True(t, domain.IsKind(err, domain.KindConflict))
	})

	t.Run("same username is free for the other account type", func(t *testing.T) {
		ts.expectSend(domain.NotificationEmailVerification, "ram@example.com")
		_, err := ts.service.Register(ts.ctx, domain.AccountBusiness, account.RegisterInput{
			Username: "ram",
			Email:    "ram@example.com",
			Password: testPassword,
		})
		assert.NoError(t, err)
	})
}

func TestService_Register_Validation(t *testing.T) {
	ts := setupTest(t)

	tests := []struct {
		name  string
		kind  domain.AccountKind
		input account.RegisterInput
	}{
		{name: "unknown kind", kind: "admin", input: account.RegisterInput{Username: "a", Email: "a@example.com", Password: testPassword}},
		{name: "missing username", kind: domain.AccountFarmer, input: account.RegisterInput{Email: "a@example.com", Password: testPassword}},
		{name: "weak password", kind: domain.AccountFarmer, input: account.RegisterInput{Username: "a", Email: "a@example.com", Password: "password"}},
		{name: "bad email", kind: domain.AccountFarmer, input: account.RegisterInput{Username: "a", Email: "nope", Password: testPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.service.Register(ts.ctx, tt.kind, tt.input)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
		})
	}
}

func TestService_Register_NotifyFailure(t *testing.T) {
	ts := setupTest(t)
	ts.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	result, err := ts.service.Register(ts.ctx, domain.AccountBusiness, account.RegisterInput{
		Username: "acme",
		Email:    "acme@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.False(t, result.VerificationEmailSent)

	// the account exists and can still be verified
	ts.getAccount(t, domain.AccountBusiness, result.ID)
}

func TestService_VerifyEmail(t *testing.T) {
	ts := setupTest(t)
	ts.expectSend(domain.NotificationEmailVerification, "ram@example.com")
	result, err := ts.service.Register(ts.ctx, domain.AccountFarmer, account.RegisterInput{
		Username: "ram",
		Email:    "ram@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	t.Run("wrong code", func(t *testing.T) {
		_, err := ts.service.VerifyEmail(ts.ctx, domain.AccountFarmer, result.ID, "000000")
		assert.True(t, domain.IsKind(err, domain.KindValidation))
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := ts.service.VerifyEmail(ts.ctx, domain.AccountFarmer, 999, testCode)
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("expired", func(t *testing.T) {
		saved := ts.now
		ts.now = ts.now.Add(domain.EmailVerificationCodeTTL + time.Second)
		defer func() { ts.now = saved }()

		_, err := ts.service.VerifyEmail(ts.ctx, domain.AccountFarmer, result.ID, testCode)
		assert.True(t, domain.IsKind(err, domain.KindValidation))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("success", func(t *testing.T) {
		already, err := ts.service.VerifyEmail(ts.ctx, domain.AccountFarmer, result.ID, testCode)
		require.NoError(t, err)
		assert.False(t, already)

		record := ts.getAccount(t, domain.AccountFarmer, result.ID)
		assert.True(t, record.EmailVerified)
		assert.Nil(t, record.EmailVerificationCode)
		assert.Nil(t, record.EmailVerificationExpiresAt)
	})

	t.Run("already verified", func(t *testing.T) {
		already, err := ts.service.VerifyEmail(ts.ctx, domain.AccountFarmer, result.ID, "anything")
		require.NoError(t, err)
		assert.True(t, already)
	})
}

func TestService_ResendVerification(t *testing.T) {
	ts := setupTest(t)
	ts.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
	result, err := ts.service.Register(ts.ctx, domain.AccountFarmer, account.RegisterInput{
		Username: "ram",
		Email:    "ram@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.False(t, result.VerificationEmailSent)

	t.Run("unknown email", func(t *testing.T) {
		_, err := ts.service.ResendVerification(ts.ctx, domain.AccountFarmer, "nobody@example.com")
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("delivery failure", func(t *testing.T) {
		ts.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
		_, err := ts.service.ResendVerification(ts.ctx, domain.AccountFarmer, "ram@example.com")
		assert.True(t, domain.IsKind(err, domain.KindDependency))
	})

	t.Run("new code extends expiry", func(t *testing.T) {
		ts.now = ts.now.Add(time.Hour)
		ts.expectSend(domain.NotificationEmailVerification, "ram@example.com")

		sent, err := ts.service.ResendVerification(ts.ctx, domain.AccountFarmer, "RAM@example.com")
		require.NoError(t, err)
		assert.True(t, sent)

		_, err = ts.service.VerifyEmail(ts.ctx, domain.AccountFarmer, result.ID, testCode)
		require.NoError(t, err)
	})

	t.Run("verified accounts are not re-sent", func(t *testing.T) {
		sent, err := ts.service.ResendVerification(ts.ctx, domain.AccountFarmer, "ram@example.com")
		require.NoError(t, err)
		assert.False(t, sent)
	})
}

func TestService_Login(t *testing.T) {
	ts := setupTest(t)
	id := ts.registerVerified(t, domain.AccountFarmer, "ram")

	t.Run("unknown user", func(t *testing.T) {
		_, err := ts.service.Login(ts.ctx, domain.AccountFarmer, "nobody", testPassword)
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})

	t.Run("wrong account type", func(t *testing.T) {
		_, err := ts.service.Login(ts.ctx, domain.AccountBusiness, "ram", testPassword)
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})

	t.Run("wrong password counts a failure", func(t *testing.T) {
		_, err := ts.service.Login(ts.ctx, domain.AccountFarmer, "ram", "Wr0ng!Password")
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
		assert.Equal(t, 1, ts.getAccount(t, domain.AccountFarmer, id).FailedLoginAttempts)
	})

	t.Run("success sends a second factor and resets failures", func(t *testing.T) {
		ts.expectSend(domain.NotificationTwoFactor, "ram@example.com")

		result, err := ts.service.Login(ts.ctx, domain.AccountFarmer, "ram", testPassword)
		require.NoError(t, err)
		assert.Equal(t, id, result.UserID)
		assert.False(t, result.IsNewUser)

		record := ts.getAccount(t, domain.AccountFarmer, id)
		assert.Equal(t, 0, record.FailedLoginAttempts)
		require.NotNil(t, record.TwoFactorCode)
		assert.Equal(t, testCode, *record.TwoFactorCode)
		require.NotNil(t, record.LastLoginAt)
		assert.True(t, ts.now.Equal(*record.LastLoginAt))
	})

	t.Run("second factor delivery failure", func(t *testing.T) {
		ts.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
		_, err := ts.service.Login(ts.ctx, domain.AccountFarmer, "ram", testPassword)
		assert.True(t, domain.IsKind(err, domain.KindDependency))
	})
}

func TestService_Login_EmailNotVerified(t *testing.T) {
	ts := setupTest(t)
	ts.expectSend(domain.NotificationEmailVerification, "acme@example.com")
	result, err := ts.service.Register(ts.ctx, domain.AccountBusiness, account.RegisterInput{
		Username: "acme",
		Email:    "acme@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	_, err = ts.service.Login(ts.ctx, domain.AccountBusiness, "acme", testPassword)
	require.True(t, domain.IsKind(err, domain.KindEmailNotVerified))

	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, result.ID, derr.Details["user_id"])
	assert.Equal(t, true, derr.Details["requires_email_verification"])
}

func TestService_Login_Lockout(t *testing.T) {
	ts := setupTest(t)
	id := ts.registerVerified(t, domain.AccountFarmer, "ram")

	for i := 0; i < domain.MaxFailedLoginAttempts; i++ {
		_, err := ts.service.Login(ts.ctx, domain.AccountFarmer, "ram", "Wr0ng!Password")
		require.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	}

	record := ts.getAccount(t, domain.AccountFarmer, id)
	require.NotNil(t, record.LockedUntil)
	assert.True(t, ts.now.Add(domain.DefaultLockoutDuration).Equal(*record.LockedUntil))
	assert.Equal(t, 0, record.FailedLoginAttempts)

	// the correct password is refused while locked
	_, err := ts.service.Login(ts.ctx, domain.AccountFarmer, "ram", testPassword)
	require.True(t, domain.IsKind(err, domain.KindLocked))
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.DefaultLockoutDuration, derr.RetryAfter)

	ts.now = ts.now.Add(domain.DefaultLockoutDuration + time.Second)
	ts.expectSend(domain.NotificationTwoFactor, "ram@example.com")
	_, err = ts.service.Login(ts.ctx, domain.AccountFarmer, "ram", testPassword)
	require.NoError(t, err)
	assert.Nil(t, ts.getAccount(t, domain.AccountFarmer, id).LockedUntil)
}

func TestService_VerifyTwoFactor(t *testing.T) {
	ts := setupTest(t)
	id := ts.registerVerified(t, domain.AccountBusiness, "acme")
	ts.expectSend(domain.NotificationTwoFactor, "acme@example.com")
	_, err := ts.service.Login(ts.ctx, domain.AccountBusiness, "acme", testPassword)
	require.NoError(t, err)

	t.Run("malformed code", func(t *testing.T) {
		_, err := ts.service.VerifyTwoFactor(ts.ctx, domain.AccountBusiness, id, "12")
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})

	t.Run("wrong code", func(t *testing.T) {
		_, err := ts.service.VerifyTwoFactor(ts.ctx, domain.AccountBusiness, id, "654321")
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})

	t.Run("expired", func(t *testing.T) {
		saved := ts.now
		ts.now = ts.now.Add(domain.TwoFactorCodeTTL + time.Second)
		defer func() { ts.now = saved }()

		_, err := ts.service.VerifyTwoFactor(ts.ctx, domain.AccountBusiness, id, testCode)
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})

	t.Run("success issues a token", func(t *testing.T) {
		session, err := ts.service.VerifyTwoFactor(ts.ctx, domain.AccountBusiness, id, testCode)
		require.NoError(t, err)
		assert.Equal(t, id, session.UserID)
		assert.Equal(t, domain.AccountBusiness, session.Kind)

		requester, err := ts.tokens.Parse(session.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.Requester{Role: domain.RoleBusiness, ID: id}, requester)
	})

	t.Run("code is single use", func(t *testing.T) {
		_, err := ts.service.VerifyTwoFactor(ts.ctx, domain.AccountBusiness, id, testCode)
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})
}

func TestService_FederatedLogin(t *testing.T) {
	ts := setupTest(t)
	ts.random.EXPECT().Token(domain.GeneratedPasswordByteLength).Return("generated-password", nil).AnyTimes()

	ts.expectSend(domain.NotificationTwoFactor, "sita@example.com")
	first, err := ts.service.FederatedLogin(ts.ctx, domain.AccountFarmer, account.FederatedIdentity{
		ExternalID: "google-1234567890",
		Email:      "Sita@example.com",
		Name:       "Sita Devi",
	})
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)

	record := ts.getAccount(t, domain.AccountFarmer, first.UserID)
	assert.Equal(t, "sita_devi", record.Username)
	assert.True(t, record.EmailVerified)
	require.NotNil(t, record.ExternalID)
	assert.Equal(t, "google-1234567890", *record.ExternalID)
	require.NotNil(t, record.TwoFactorCode)

	t.Run("returning user", func(t *testing.T) {
		ts.expectSend(domain.NotificationTwoFactor, "sita@example.com")
		again, err := ts.service.FederatedLogin(ts.ctx, domain.AccountFarmer, account.FederatedIdentity{
			ExternalID: "google-1234567890",
			Email:      "sita@example.com",
			Name:       "Sita Devi",
		})
		require.NoError(t, err)
		assert.False(t, again.IsNewUser)
		assert.Equal(t, first.UserID, again.UserID)
	})

	t.Run("username collision gets a suffix", func(t *testing.T) {
		ts.expectSend(domain.NotificationTwoFactor, "sita2@example.com")
		other, err := ts.service.FederatedLogin(ts.ctx, domain.AccountFarmer, account.FederatedIdentity{
			ExternalID: "google-2",
			Email:      "sita2@example.com",
			Name:       "Sita Devi",
		})
		require.NoError(t, err)
		assert.Equal(t, "sita_devi_1", ts.getAccount(t, domain.AccountFarmer, other.UserID).Username)
	})

	t.Run("no display name", func(t *testing.T) {
		ts.expectSend(domain.NotificationTwoFactor, "anon@example.com")
		anon, err := ts.service.FederatedLogin(ts.ctx, domain.AccountFarmer, account.FederatedIdentity{
			ExternalID: "abcdefghijkl",
			Email:      "anon@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "user_abcdefgh", ts.getAccount(t, domain.AccountFarmer, anon.UserID).Username)
	})

	t.Run("email owned by a password account", func(t *testing.T) {
		storetest.CreateFarmer(t, ts.store, "ram")
		_, err := ts.service.FederatedLogin(ts.ctx, domain.AccountFarmer, account.FederatedIdentity{
			ExternalID: "google-3",
			Email:      "ram@example.com",
		})
		assert.True(t, domain.IsKind(err, domain.KindConflict))
	})

	t.Run("missing identity", func(t *testing.T) {
		_, err := ts.service.FederatedLogin(ts.ctx, domain.AccountFarmer, account.FederatedIdentity{Email: "x@example.com"})
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})
}
