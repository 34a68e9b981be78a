package adapter

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// Random defines an interface for secure random values to enable mocking
//
//go:generate mockgen -source=random.go -destination=../mocks/random.go -package=mocks -mock_names=Random=MockRandom
type Random interface {
	// NumericCode returns a uniformly random string of n decimal digits
	NumericCode(n int) (string, error)
	// Token returns a URL-safe random string encoding n random bytes
	Token(n int) (string, error)
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// NewRandom creates a new crypto-backed Random
func NewRandom() Random {
	return &CryptoRandom{}
}

func (r *CryptoRandom) NumericCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	for range n {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func (r *CryptoRandom) Token(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
