package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/gatehouse-go/apperror"
	"github.com/user/gatehouse-go/password"
	"github.com/user/gatehouse-go/store"
	"github.com/user/gatehouse-go/throttle"
	"github.com/user/gatehouse-go/validation"
)

// Client-facing messages. They are deliberately generic: a failed login never says
// whether the email or the password was wrong.
const (
	MsgLocked         = "too many login attempts. please try again in 10 minutes."
	MsgMalformed      = "malformed request"
	MsgBadCredentials = "email/password combination incorrect"
	MsgLoginInternal  = "login failed on the server side"
	MsgSignupConflict = "could not register"
	MsgSignupInternal = "signup failed on the server side"
	MsgNotSignedIn    = "not signed in"
	MsgLogoutInternal = "logout failed on the server side"
)

// SignupPacingDelay is waited before a signup checks whether the email is taken, so the
// response time does not depend on that answer and automated signups are slowed down.
const SignupPacingDelay = time.Second

// LockedError is wrapped in the AppError returned for a locked-out address.
type LockedError struct {
	throttle.Decision
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("address locked for another %s", e.RetryAfter.Round(time.Second))
}

// AuthService implements login and signup.
type AuthService struct {
	users      store.UserStore
	guard      *throttle.Guard
	hasher     password.Hasher
	negotiator *Negotiator
	pacing     time.Duration
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithSignupPacing overrides SignupPacingDelay.
func WithSignupPacing(d time.Duration) Option {
	return func(s *AuthService) { s.pacing = d }
}

// NewAuthService creates a new AuthService.
func NewAuthService(users store.UserStore, guard *throttle.Guard, hasher password.Hasher, negotiator *Negotiator, opts ...Option) *AuthService {
	s := &AuthService{
		users:      users,
		guard:      guard,
		hasher:     hasher,
		negotiator: negotiator,
		pacing:     SignupPacingDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login runs the login state machine for a request from sourceAddress whose JSON body is
// read from body. The throttle is consulted before the body is even parsed; a locked
// address or a malformed body leaves the failure counter untouched.
func (s *AuthService) Login(ctx context.Context, sourceAddress string, body io.Reader) (*Artifact, error) {
	decision, err := s.guard.Check(ctx, sourceAddress)
	if err != nil {
		return nil, apperror.NewInternalError(MsgLoginInternal, err)
	}
	if !decision.Allowed {
		return nil, apperror.NewTooManyRequestsError(MsgLocked, &LockedError{Decision: decision})
	}

	var req LoginRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, apperror.NewValidationError(MsgMalformed, err)
	}
	if err := validation.Struct(req); err != nil {
		return nil, apperror.NewValidationError(MsgMalformed, err)
	}

	user, err := s.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, s.rejectCredentials(ctx, sourceAddress)
		}
		return nil, apperror.NewDatabaseError(MsgLoginInternal, err)
	}

	ok, err := s.hasher.Verify(ctx, user.HashedPassword, req.Password)
	if err != nil {
		return nil, apperror.NewInternalError(MsgLoginInternal, err)
	}
	if !ok {
		return nil, s.rejectCredentials(ctx, sourceAddress)
	}

	if err := s.guard.RecordSuccess(ctx, sourceAddress); err != nil {
		return nil, apperror.NewDatabaseError(MsgLoginInternal, err)
	}
	artifact, err := s.negotiator.Negotiate(ctx, user)
	if err != nil {
		return nil, apperror.NewInternalError(MsgLoginInternal, err)
	}
	return artifact, nil
}

// rejectCredentials counts the failure and returns the generic credentials error.
func (s *AuthService) rejectCredentials(ctx context.Context, sourceAddress string) error {
	if _, err := s.guard.RecordFailure(ctx, sourceAddress); err != nil {
		return apperror.NewDatabaseError(MsgLoginInternal, err)
	}
	return apperror.NewAuthError(MsgBadCredentials, nil)
}

// Signup registers a new account and returns its sanitized profile.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*Profile, error) {
	if err := validation.Struct(req); err != nil {
		return nil, apperror.NewValidationError(MsgMalformed, err)
	}

	if err := pace(ctx, s.pacing); err != nil {
		return nil, apperror.NewInternalError(MsgSignupInternal, err)
	}

	_, err := s.users.FindUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperror.NewConflictError(MsgSignupConflict, nil)
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperror.NewDatabaseError(MsgSignupInternal, err)
	}

	hashedPassword, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, apperror.NewInternalError(MsgSignupInternal, err)
	}
	hashedPhrase, err := s.hasher.Hash(ctx, req.SecretPhrase)
	if err != nil {
		return nil, apperror.NewInternalError(MsgSignupInternal, err)
	}

	created, err := s.users.CreateUser(ctx, &store.User{
		Name:               req.Name,
		Email:              req.Email,
		HashedPassword:     hashedPassword,
		HashedSecretPhrase: &hashedPhrase,
		Role:               store.RoleUser,
	})
	if err != nil {
		// Another signup for the same email won the race after our existence check.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.NewConflictError(MsgSignupConflict, err)
		}
		return nil, apperror.NewDatabaseError(MsgSignupInternal, err)
	}
	p := created.Profile()
	return &p, nil
}

// pace waits d, returning early with ctx's error if the request goes away.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout revokes the caller's credential and returns the cookie to send back, if any.
func (s *AuthService) Logout(ctx context.Context, r *http.Request) (*http.Cookie, error) {
	cookie, err := s.negotiator.Revoke(ctx, r)
	if err != nil {
		return nil, apperror.NewDatabaseError(MsgLogoutInternal, err)
	}
	return cookie, nil
}
