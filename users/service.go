package users

import (
	"context"
	"errors"

	"github.com/user/gatehouse-go/apperror"
	"github.com/user/gatehouse-go/auth"
	"github.com/user/gatehouse-go/password"
	"github.com/user/gatehouse-go/store"
	"github.com/user/gatehouse-go/validation"
)

// Messages returned by DeleteAccount. A missing user and a wrong password share one message;
// the two secret-phrase failures are distinguishable from it and from each other.
const (
	MsgInvalidInput   = "the submitted input is invalid"
	MsgBadCredentials = "credentials do not match"
	MsgPhraseNotSet   = "secret phrase not configured for this account"
	MsgPhraseMismatch = "secret phrase does not match"
	MsgDeleted        = "account deleted"
	MsgInternal       = "a server error occurred"
)

// UserService implements the account operations.
type UserService struct {
	users  store.UserStore
	hasher password.Hasher
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, hasher password.Hasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// DeleteAccount deletes the account named by req once every check passes, in this order:
// well-formed input with the confirmation given, a known email, a matching password, a
// secret phrase on record, and a matching secret phrase. The first failing check decides
// the error. Deletion is permanent; the account's sessions go with it.
func (s *UserService) DeleteAccount(ctx context.Context, req DeleteAccountRequest) error {
	if err := validation.Struct(req); err != nil {
		return apperror.NewValidationError(MsgInvalidInput, err)
	}

	user, err := s.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewAuthError(MsgBadCredentials, nil)
		}
		return apperror.NewDatabaseError(MsgInternal, err)
	}

	ok, err := s.hasher.Verify(ctx, user.HashedPassword, req.Password)
	if err != nil {
		return apperror.NewInternalError(MsgInternal, err)
	}
	if !ok {
		return apperror.NewAuthError(MsgBadCredentials, nil)
	}

	// Accounts created before secret phrases existed cannot be deleted this way.
	if !user.HasSecretPhrase() {
		return apperror.NewConflictError(MsgPhraseNotSet, nil)
	}

	ok, err = s.hasher.Verify(ctx, *user.HashedSecretPhrase, req.SecretPhrase)
	if err != nil {
		return apperror.NewInternalError(MsgInternal, err)
	}
	if !ok {
		return apperror.NewAuthError(MsgPhraseMismatch, nil)
	}

	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deleted concurrently between lookup and delete.
			return apperror.NewAuthError(MsgBadCredentials, err)
		}
		return apperror.NewDatabaseError(MsgInternal, err)
	}
	return nil
}

// GetProfile returns the current profile of the account with the given id.
// An id whose account no longer exists is reported as unauthorized: its credential is stale.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*store.Profile, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NewUnauthorizedError(auth.MsgNotSignedIn, err)
		}
		return nil, apperror.NewDatabaseError(MsgInternal, err)
	}
	p := user.Profile()
	return &p, nil
}
