package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The suites below describe the contract every backend must satisfy. Each backend test
// file wires its implementation into them.

func strPtr(s string) *string { return &s }

func newTestUser(email string) *User {
	return &User{
		Name:               "Test Taro",
		Email:              email,
		HashedPassword:     "$2a$10$hash",
		HashedSecretPhrase: strPtr("$2a$10$phrase"),
		Role:               RoleUser,
	}
}

func runUserSuite(t *testing.T, users UserStore) {
	ctx := context.Background()

	t.Run("create assigns id and lower-cases email", func(t *testing.T) {
		u, err := users.CreateUser(ctx, newTestUser("Mixed.Case@Example.com"))
		require.NoError(t, err)
		_, err = uuid.Parse(u.ID)
		assert.NoError(t, err)
		assert.Equal(t, "mixed.case@example.com", u.Email)
		assert.False(t, u.CreatedAt.IsZero())

		found, err := users.FindUserByEmail(ctx, "MIXED.case@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
		assert.Equal(t, "$2a$10$hash", found.HashedPassword)
		require.NotNil(t, found.HashedSecretPhrase)
		assert.Equal(t, "$2a$10$phrase", *found.HashedSecretPhrase)

		byID, err := users.FindUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := users.CreateUser(ctx, newTestUser("dup@example.com"))
		require.NoError(t, err)
		_, err = users.CreateUser(ctx, newTestUser("DUP@example.com"))
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("legacy record without secret phrase", func(t *testing.T) {
		legacy := newTestUser("legacy@example.com")
		legacy.HashedSecretPhrase = nil
		legacy.Role = RoleAdmin
		_, err := users.CreateUser(ctx, legacy)
		require.NoError(t, err)

		found, err := users.FindUserByEmail(ctx, "legacy@example.com")
		require.NoError(t, err)
		assert.False(t, found.HasSecretPhrase())
		assert.Equal(t, RoleAdmin, found.Role)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := users.FindUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = users.FindUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, users.DeleteUser(ctx, uuid.NewString()), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		u, err := users.CreateUser(ctx, newTestUser("gone@example.com"))
		require.NoError(t, err)
		require.NoError(t, users.DeleteUser(ctx, u.ID))
		_, err = users.FindUserByEmail(ctx, "gone@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func runAttemptSuite(t *testing.T, attempts AttemptStore) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	t.Run("increment creates then adds", func(t *testing.T) {
		ip := "198.51.100." + uuid.NewString()[:4]
		_, err := attempts.FindLoginAttempt(ctx, ip)
		assert.ErrorIs(t, err, ErrNotFound)

		a, err := attempts.IncrementLoginAttempt(ctx, ip, t0)
		require.NoError(t, err)
		assert.Equal(t, 1, a.Attempts)

		a, err = attempts.IncrementLoginAttempt(ctx, ip, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 2, a.Attempts)

		found, err := attempts.FindLoginAttempt(ctx, ip)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Attempts)
		assert.True(t, found.UpdatedAt.Equal(t0.Add(time.Minute)), "updated_at refreshed: %v", found.UpdatedAt)
	})

	t.Run("reset and delete", func(t *testing.T) {
		ip := "203.0.113." + uuid.NewString()[:4]
		assert.ErrorIs(t, attempts.ResetLoginAttempt(ctx, ip, t0), ErrNotFound)

		_, err := attempts.IncrementLoginAttempt(ctx, ip, t0)
		require.NoError(t, err)
		require.NoError(t, attempts.ResetLoginAttempt(ctx, ip, t0.Add(time.Hour)))

		found, err := attempts.FindLoginAttempt(ctx, ip)
		require.NoError(t, err)
		assert.Zero(t, found.Attempts)

		require.NoError(t, attempts.DeleteLoginAttempt(ctx, ip))
		require.NoError(t, attempts.DeleteLoginAttempt(ctx, ip), "deleting twice is a no-op")
		_, err = attempts.FindLoginAttempt(ctx, ip)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		ip := "192.0.2." + uuid.NewString()[:4]
		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := attempts.IncrementLoginAttempt(ctx, ip, t0)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		found, err := attempts.FindLoginAttempt(ctx, ip)
		require.NoError(t, err)
		assert.Equal(t, n, found.Attempts)
	})
}

func runSessionSuite(t *testing.T, users UserStore, sessions SessionStore) {
	ctx := context.Background()

	owner, err := users.CreateUser(ctx, newTestUser("session-owner-"+uuid.NewString()[:8]+"@example.com"))
	require.NoError(t, err)

	t.Run("create find delete", func(t *testing.T) {
		expires := time.Now().Add(3 * time.Hour).UTC().Truncate(time.Microsecond)
		s := &Session{ID: uuid.NewString(), UserID: owner.ID, ExpiresAt: expires}
		require.NoError(t, sessions.CreateSession(ctx, s))

		found, err := sessions.FindSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, found.UserID)
		assert.True(t, found.ExpiresAt.Equal(expires))
		assert.True(t, found.ValidAt(time.Now()))
		assert.False(t, found.ValidAt(expires))

		err = sessions.CreateSession(ctx, s)
		assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

		require.NoError(t, sessions.DeleteSession(ctx, s.ID))
		require.NoError(t, sessions.DeleteSession(ctx, s.ID))
		_, err = sessions.FindSession(ctx, s.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
