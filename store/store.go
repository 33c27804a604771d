// Package store is the credential store adapter: the only component that owns persisted
// records (users, login-attempt counters, sessions). Callers see small interfaces; the
// Postgres, in-memory and Redis backends implement them.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a unique column (email, about slug, session id) would collide.
	ErrDuplicate = errors.New("store: duplicate record")
)

// UserStore persists accounts.
type UserStore interface {
	// FindUserByEmail looks the user up by its (lower-cased) email address.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	// CreateUser inserts u. When u.ID is empty a new UUID is assigned.
	CreateUser(ctx context.Context, u *User) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AttemptStore persists failed-login counters keyed by source address.
// Timestamps are supplied by the caller so the throttle guard owns the only clock.
type AttemptStore interface {
	FindLoginAttempt(ctx context.Context, ip string) (*LoginAttempt, error)
	// IncrementLoginAttempt atomically creates the counter at 1 or adds 1 to it,
	// setting UpdatedAt to at in both cases.
	IncrementLoginAttempt(ctx context.Context, ip string, at time.Time) (*LoginAttempt, error)
	// ResetLoginAttempt sets the counter back to zero.
	ResetLoginAttempt(ctx context.Context, ip string, at time.Time) error
	// DeleteLoginAttempt removes the counter. Deleting a missing counter is not an error.
	DeleteLoginAttempt(ctx context.Context, ip string) error
	// DeleteStaleLoginAttempts removes counters last updated before cutoff.
	DeleteStaleLoginAttempts(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionStore persists server-side sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	FindSession(ctx context.Context, id string) (*Session, error)
	// DeleteSession removes the session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes sessions whose expiry is not after now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Wiper empties every table; only the seed command uses it.
type Wiper interface {
	Wipe(ctx context.Context) error
}

// Stores groups the three record stores the services depend on.
// Backends may be mixed, e.g. users in Postgres and sessions in Redis.
type Stores struct {
	Users    UserStore
	Attempts AttemptStore
	Sessions SessionStore
}
