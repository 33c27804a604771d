// Package session manages opaque server-side sessions: random ids persisted with a user id
// and an absolute expiry, carried by the client in an HTTP-only cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/user/gatehouse-go/store"
)

// CookieName is the cookie carrying the session id.
const CookieName = "sess_id"

// ErrInvalidSession is returned by Resolve when the id is unknown, expired, or its user is gone.
var ErrInvalidSession = errors.New("session: invalid or expired")

// Manager creates, resolves and destroys sessions. Records live only in the SessionStore.
type Manager struct {
	sessions store.SessionStore
	users    store.UserStore
	now      func() time.Time
	newID    func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager.
func NewManager(sessions store.SessionStore, users store.UserStore, opts ...Option) *Manager {
	m := &Manager{
		sessions: sessions,
		users:    users,
		now:      time.Now,
		// uuid.NewString draws 122 random bits from crypto/rand.
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create persists a new session for userID that expires maxAgeSeconds from now and returns its id.
func (m *Manager) Create(ctx context.Context, userID string, maxAgeSeconds int) (string, error) {
	s := &store.Session{
		ID:        m.newID(),
		UserID:    userID,
		ExpiresAt: m.now().Add(time.Duration(maxAgeSeconds) * time.Second).UTC(),
	}
	if err := m.sessions.CreateSession(ctx, s); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return s.ID, nil
}

// Cookie builds the cookie that stores id on the client.
// Secure is off so the cookie also works over plain HTTP in development; production
// deployments sit behind TLS and should flip it.
func (m *Manager) Cookie(id string, maxAgeSeconds int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
}

// ClearCookie builds a cookie that makes the client drop its session id.
func (m *Manager) ClearCookie() *http.Cookie {
	c := m.Cookie("", 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// Resolve returns the user bound to session id if the session exists and has not expired.
// Expired records are left for the background sweeper.
func (m *Manager) Resolve(ctx context.Context, id string) (*store.User, error) {
	if id == "" {
		return nil, ErrInvalidSession
	}
	s, err := m.sessions.FindSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	if !s.ValidAt(m.now()) {
		return nil, ErrInvalidSession
	}
	u, err := m.users.FindUserByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("session: load user: %w", err)
	}
	return u, nil
}

// Destroy deletes the session record. Destroying an unknown id is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// FromRequest returns the session id carried by r, or "" when there is none.
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
