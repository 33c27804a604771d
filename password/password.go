// Package password wraps the one-way adaptive hash used for both account passwords and
// secret phrases. The same primitive serves both on purpose.
package password

import (
	"context"
	"errors"
	"fmt"

	// Library for password hashing using bcrypt. bcrypt is a strong, adaptive hashing algorithm.
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost factor the existing account records were hashed with.
const DefaultCost = 10

// Hasher hashes secrets and verifies candidates against stored hashes.
type Hasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	// Verify reports whether plain matches hash. A mismatch is (false, nil);
	// an error means the hash itself is unusable.
	Verify(ctx context.Context, hash, plain string) (bool, error)
}

// Bcrypt is the production Hasher.
// Calls run on the request goroutine and share no state, so concurrent requests never wait on each other.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt Hasher with the given cost; out-of-range costs fall back to DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(ctx context.Context, plain string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		// `fmt.Errorf` with `%w` wraps the original error for `errors.Is`/`errors.As`.
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(h), nil
}

func (b *Bcrypt) Verify(ctx context.Context, hash, plain string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// `bcrypt.CompareHashAndPassword` recomputes the hash and compares in constant time.
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to verify secret: %w", err)
	}
}
