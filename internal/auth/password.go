package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptCost is the work factor used for stored password hashes.
const BcryptCost = 10

// PasswordHasher hashes and compares passwords with bcrypt. The number of
// concurrent bcrypt operations is bounded so that a burst of logins cannot
// starve the rest of the request handlers of CPU.
type PasswordHasher struct {
	sem  *semaphore.Weighted
	cost int
}

// NewPasswordHasher creates a hasher allowing at most concurrency parallel operations.
func NewPasswordHasher(concurrency int, cost int) *PasswordHasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PasswordHasher{
		sem:  semaphore.NewWeighted(int64(concurrency)),
		cost: cost,
	}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hasher: %w", err)
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether password matches hash. A mismatch is not an error.
func (h *PasswordHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hasher: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}
