package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/gatehouse-go/config"
	"github.com/user/gatehouse-go/session"
)

func TestNewNegotiator_ValidatesMode(t *testing.T) {
	_, err := NewNegotiator(config.AuthConfig{Mode: config.AuthModeJWT}, nil)
	assert.Error(t, err, "jwt mode without secret")

	_, err = NewNegotiator(config.AuthConfig{Mode: config.AuthModeSession}, nil)
	assert.Error(t, err, "session mode without manager")

	_, err = NewNegotiator(config.AuthConfig{Mode: "oauth", JWTSecret: "x"}, nil)
	assert.Error(t, err)
}

func TestNegotiate_SessionMode(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	u := env.addUser(t, "user@example.com", "correct1", "")
	ctx := context.Background()

	a, err := env.negotiator.Negotiate(ctx, u)
	require.NoError(t, err)
	require.NotNil(t, a.Profile)
	require.NotNil(t, a.Cookie)
	assert.Empty(t, a.Token)
	assert.Equal(t, u.Profile(), *a.Profile)
	assert.Equal(t, session.CookieName, a.Cookie.Name)
	assert.Equal(t, 10800, a.Cookie.MaxAge)

	bound, err := env.sessions.Resolve(ctx, a.Cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", bound.Email)

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.AddCookie(a.Cookie)
	p, err := env.negotiator.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)

	env.clock.Advance(TokenLifetime)
	_, err = env.negotiator.Authenticate(r)
	assert.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestNegotiate_JWTMode(t *testing.T) {
	env := newTestEnv(t, config.AuthModeJWT)
	u := env.addUser(t, "user@example.com", "correct1", "")

	a, err := env.negotiator.Negotiate(context.Background(), u)
	require.NoError(t, err)
	assert.Nil(t, a.Profile)
	assert.Nil(t, a.Cookie)
	require.NotEmpty(t, a.Token)

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.Header.Set("Authorization", "Bearer "+a.Token)
	p, err := env.negotiator.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, u.Profile(), *p)

	r.Header.Set("Authorization", "Token "+a.Token)
	_, err = env.negotiator.Authenticate(r)
	assert.ErrorIs(t, err, ErrInvalidToken)

	r.Header.Set("Authorization", "Bearer "+a.Token)
	env.clock.Advance(TokenLifetime + time.Second)
	_, err = env.negotiator.Authenticate(r)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	env := newTestEnv(t, config.AuthModeSession)
	u := env.addUser(t, "user@example.com", "correct1", "")
	ctx := context.Background()

	a, err := env.negotiator.Negotiate(ctx, u)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	r.AddCookie(a.Cookie)
	clear, err := env.negotiator.Revoke(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, clear)
	assert.Equal(t, -1, clear.MaxAge)

	_, err = env.sessions.Resolve(ctx, a.Cookie.Value)
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	jwtEnv := newTestEnv(t, config.AuthModeJWT)
	clear, err = jwtEnv.negotiator.Revoke(ctx, r)
	require.NoError(t, err)
	assert.Nil(t, clear)
}
