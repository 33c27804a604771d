package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/user/gatehouse-go/config"
	"github.com/user/gatehouse-go/session"
	"github.com/user/gatehouse-go/store"
)

// Artifact is what a successful login hands back to the client.
// In session mode Profile and Cookie are set; in jwt mode only Token is.
type Artifact struct {
	Profile *store.Profile
	Cookie  *http.Cookie
	Token   string
}

// Negotiator turns a verified user into a credential. Its mode is fixed at construction.
type Negotiator struct {
	mode     config.AuthMode
	secret   []byte
	sessions *session.Manager
	now      func() time.Time
}

// NegotiatorOption configures a Negotiator.
type NegotiatorOption func(*Negotiator)

// WithNegotiatorClock replaces the wall clock used for token timestamps.
func WithNegotiatorClock(now func() time.Time) NegotiatorOption {
	return func(n *Negotiator) { n.now = now }
}

// NewNegotiator validates cfg against the collaborators it needs.
// Session mode requires a session manager; jwt mode requires a secret.
func NewNegotiator(cfg config.AuthConfig, sessions *session.Manager, opts ...NegotiatorOption) (*Negotiator, error) {
	n := &Negotiator{mode: cfg.Mode, secret: []byte(cfg.JWTSecret), sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	switch {
	case cfg.IsSession():
		if sessions == nil {
			return nil, errors.New("auth: session mode requires a session manager")
		}
	case cfg.IsJWT():
		if len(n.secret) == 0 {
			return nil, errors.New("auth: jwt mode requires a secret")
		}
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", cfg.Mode)
	}
	return n, nil
}

// Mode returns the configured mode.
func (n *Negotiator) Mode() config.AuthMode { return n.mode }

// Negotiate issues the credential for u according to the configured mode.
func (n *Negotiator) Negotiate(ctx context.Context, u *store.User) (*Artifact, error) {
	maxAge := int(TokenLifetime / time.Second)
	profile := u.Profile()

	if n.mode == config.AuthModeSession {
		id, err := n.sessions.Create(ctx, u.ID, maxAge)
		if err != nil {
			return nil, err
		}
		return &Artifact{Profile: &profile, Cookie: n.sessions.Cookie(id, maxAge)}, nil
	}

	token, err := SignToken(n.secret, profile, n.now(), TokenLifetime)
	if err != nil {
		return nil, err
	}
	return &Artifact{Token: token}, nil
}

// Authenticate identifies the caller of r by the mode's credential: the session cookie
// or an `Authorization: Bearer` token. It returns session.ErrInvalidSession or
// ErrInvalidToken (possibly wrapped) when the credential is missing or invalid.
func (n *Negotiator) Authenticate(r *http.Request) (*store.Profile, error) {
	if n.mode == config.AuthModeSession {
		u, err := n.sessions.Resolve(r.Context(), session.FromRequest(r))
		if err != nil {
			return nil, err
		}
		p := u.Profile()
		return &p, nil
	}

	raw, ok := bearerToken(r)
	if !ok {
		return nil, ErrInvalidToken
	}
	claims, err := ParseToken(n.secret, raw, n.now)
	if err != nil {
		return nil, err
	}
	p := claims.Profile()
	return &p, nil
}

// Revoke ends the login carried by r. Only session mode keeps server-side state; the
// returned cookie clears the client's copy and is nil in jwt mode, where a token simply
// runs until its expiry.
func (n *Negotiator) Revoke(ctx context.Context, r *http.Request) (*http.Cookie, error) {
	if n.mode != config.AuthModeSession {
		return nil, nil
	}
	if err := n.sessions.Destroy(ctx, session.FromRequest(r)); err != nil {
		return nil, err
	}
	return n.sessions.ClearCookie(), nil
}
