package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/gatehouse-go/config"
	"github.com/user/gatehouse-go/password"
	"github.com/user/gatehouse-go/session"
	"github.com/user/gatehouse-go/store"
	"github.com/user/gatehouse-go/throttle"
)

const testSecret = "test-secret"

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	mem        *store.Memory
	clock      *testClock
	hasher     password.Hasher
	sessions   *session.Manager
	negotiator *Negotiator
	service    *AuthService
}

func newTestEnv(t *testing.T, mode config.AuthMode) *testEnv {
	t.Helper()
	env := &testEnv{
		mem:    store.NewMemory(),
		clock:  &testClock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)},
		hasher: password.NewBcrypt(4),
	}
	env.sessions = session.NewManager(env.mem, env.mem, session.WithClock(env.clock.Now))

	n, err := NewNegotiator(config.AuthConfig{Mode: mode, JWTSecret: testSecret}, env.sessions,
		WithNegotiatorClock(env.clock.Now))
	require.NoError(t, err)
	env.negotiator = n

	guard := throttle.NewGuard(env.mem, throttle.WithClock(env.clock.Now))
	env.service = NewAuthService(env.mem, guard, env.hasher, n, WithSignupPacing(0))
	return env
}

// addUser stores an account with the given password and, if non-empty, secret phrase.
func (e *testEnv) addUser(t *testing.T, email, plain, phrase string) *store.User {
	t.Helper()
	ctx := context.Background()
	hash, err := e.hasher.Hash(ctx, plain)
	require.NoError(t, err)
	u := &store.User{Name: "Test Taro", Email: email, HashedPassword: hash, Role: store.RoleUser}
	if phrase != "" {
		ph, err := e.hasher.Hash(ctx, phrase)
		require.NoError(t, err)
		u.HashedSecretPhrase = &ph
	}
	created, err := e.mem.CreateUser(ctx, u)
	require.NoError(t, err)
	return created
}

func nopLogger() *zap.Logger { return zap.NewNop() }
