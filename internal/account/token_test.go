package account_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/carbon-marketplace/internal/account"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/mocks"
)

func TestTokenIssuer(t *testing.T) {
	ctrl := gomock.NewController(t)
	now := time.Now().UTC().Truncate(time.Second)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return now }).AnyTimes()

	issuer := account.NewTokenIssuer("secret", time.Hour, clock)

	session, err := issuer.Issue(domain.AccountBusiness, 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), session.UserID)
	assert.Equal(t, domain.AccountBusiness, session.Kind)
	assert.True(t, now.Add(time.Hour).Equal(session.ExpiresAt))

	t.Run("valid token", func(t *testing.T) {
		requester, err := issuer.Parse(session.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.Requester{Role: domain.RoleBusiness, ID: 42}, requester)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := account.NewTokenIssuer("other", time.Hour, clock).Parse(session.Token)
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})

	t.Run("admin role is never issued as a bearer token", func(t *testing.T) {
		claims := account.Claims{
			Role: domain.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = issuer.Parse(signed)
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})

	t.Run("expired", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, err := issuer.Parse(session.Token)
		assert.True(t, domain.IsKind(err, domain.KindUnauthenticated))
	})
}

func TestBcryptCredentialStore(t *testing.T) {
	credentials := account.NewBcryptCredentialStore(4)

	hash, err := credentials.Hash("Str0ng!Passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Passw0rd", hash)
	assert.True(t, credentials.Verify(hash, "Str0ng!Passw0rd"))
	assert.False(t, credentials.Verify(hash, "wrong"))
	assert.False(t, credentials.Verify("not-a-hash", "Str0ng!Passw0rd"))
}
