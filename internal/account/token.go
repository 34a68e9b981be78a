package account

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// Claims are the bearer token claims; the subject is the account ID
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is the bearer token issued after a completed second factor
type Session struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	UserID    uint64             `json:"user_id"`
	Kind      domain.AccountKind `json:"user_type"`
}

// TokenIssuer issues and validates HS256 bearer tokens
type TokenIssuer interface {
	Issue(kind domain.AccountKind, id uint64) (*Session, error)
	// Parse validates a token and returns the caller it identifies
	Parse(token string) (domain.Requester, error)
}

type jwtIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  adapter.Clock
}

// NewTokenIssuer creates a TokenIssuer signing with secret
func NewTokenIssuer(secret string, ttl time.Duration, clock adapter.Clock) TokenIssuer {
	return &jwtIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
	}
}

func (i *jwtIssuer) Issue(kind domain.AccountKind, id uint64) (*Session, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		Role: domain.RoleOf(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{
		Token:     signed,
		ExpiresAt: expiresAt,
		UserID:    id,
		Kind:      kind,
	}, nil
}

func (i *jwtIssuer) Parse(token string) (domain.Requester, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return domain.Requester{}, domain.NewUnauthenticatedError("invalid token: %v", err)
	}

	if claims.Role != domain.RoleFarmer && claims.Role != domain.RoleBusiness {
		return domain.Requester{}, domain.NewUnauthenticatedError("invalid token: unknown role")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return domain.Requester{}, domain.NewUnauthenticatedError("invalid token: bad subject")
	}

	return domain.Requester{Role: claims.Role, ID: id}, nil
}
