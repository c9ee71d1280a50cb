// Package auth verifies client credentials and hashes passwords.
package auth

import (
	"context"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Verifier turns a bearer credential into the id of the user it was issued
// for.
type Verifier interface {
	Verify(ctx context.Context, token string) (uint, error)
}

// Hasher hashes and checks secrets.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) bool
}

// Chain tries each verifier in order and returns the first success.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (uint, error) {
	var lastErr error = models.NewUnauthorizedError("Not authorized, no token")
	for _, v := range c {
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
