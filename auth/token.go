package auth

import (
	"errors"
	"fmt"
	"time"

	// Third-party library for JWT handling. `jwt/v5` indicates version 5.
	"github.com/golang-jwt/jwt/v5"

	"github.com/user/gatehouse-go/store"
)

const (
	// TokenLifetime is how long a login stays valid in either mode: the session max-age
	// and the `exp` claim of a token are both derived from it.
	TokenLifetime = 3 * time.Hour
	// TokenIssuer is the `iss` claim of every token this service signs.
	TokenIssuer = "gatehouse"
)

// ErrInvalidToken is returned by ParseToken for any token that fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the payload of a token: the sanitized profile plus registered claims.
// The user id travels in `sub`.
type Claims struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  store.Role `json:"role"`
	jwt.RegisteredClaims
}

// Profile rebuilds the sanitized profile the token was issued for.
func (c *Claims) Profile() store.Profile {
	return store.Profile{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
		Role:  c.Role,
	}
}

// SignToken creates an HS256 token for p that expires `lifetime` after now.
func SignToken(secret []byte, p store.Profile, now time.Time, lifetime time.Duration) (string, error) {
	claims := &Claims{
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, issuer and expiry of tokenString and returns its claims.
// now is the reference time for the expiry check.
func ParseToken(secret []byte, tokenString string, now func() time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
