package store

import "time"

// Role is the binary admin/user distinction carried by every account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account as persisted by the credential store.
// Hash fields are tagged `json:"-"` so a User can never leak them through an encoder;
// handlers still respond with Profile, never with User.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	// HashedSecretPhrase is nil on legacy records created before secret phrases existed.
	HashedSecretPhrase *string   `json:"-"`
	Role               Role      `json:"role"`
	AboutSlug          *string   `json:"aboutSlug,omitempty"`
	AboutContent       string    `json:"aboutContent"`
	CreatedAt          time.Time `json:"createdAt"`
}

// HasSecretPhrase reports whether a secret-phrase hash is set on the record.
func (u *User) HasSecretPhrase() bool {
	return u.HashedSecretPhrase != nil && *u.HashedSecretPhrase != ""
}

// Profile is the sanitized projection of a User handed to callers.
// @Description Sanitized user profile
type Profile struct {
	ID    string `json:"id" example:"0b6f2a4e-3c1d-4f7e-9a59-3f0c2d1e8b77"`
	Name  string `json:"name" example:"Test Taro"`
	Email string `json:"email" example:"user@example.com"`
	Role  Role   `json:"role" example:"USER"`
}

// Profile returns the sanitized projection of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// LoginAttempt is the failed-login counter for one source address.
type LoginAttempt struct {
	IP        string
	Attempts  int
	UpdatedAt time.Time
}

// Session binds an opaque id to one user until ExpiresAt.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// ValidAt reports whether the session is still usable at now.
func (s *Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
