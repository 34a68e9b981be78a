package account

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore hashes and verifies account passwords
type CredentialStore interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash
	Verify(hash, password string) bool
}

type bcryptCredentialStore struct {
	cost int
}

// NewBcryptCredentialStore creates a CredentialStore using bcrypt at the given cost.
// A non-positive cost selects bcrypt.DefaultCost.
func NewBcryptCredentialStore(cost int) CredentialStore {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptCredentialStore{cost: cost}
}

func (s *bcryptCredentialStore) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *bcryptCredentialStore) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
