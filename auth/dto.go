package auth

import "github.com/user/gatehouse-go/store"

// Profile is the sanitized user projection returned by login and signup.
type Profile = store.Profile

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"correct1"`
}

// SignupRequest represents the registration request payload.
// The secret phrase is asked for again when the account is deleted.
type SignupRequest struct {
	Name         string `json:"name" validate:"required" example:"Test Taro"`
	Email        string `json:"email" validate:"required,email" example:"user@example.com"`
	Password     string `json:"password" validate:"required,password" example:"correct1"`
	SecretPhrase string `json:"secretPhrase" validate:"required,min=4,secret" example:"open sesame"`
}

// ProfileResponse is the envelope returned by session-mode login, signup and /api/me.
type ProfileResponse struct {
	Success bool     `json:"success" example:"true"`
	Payload *Profile `json:"payload"`
	Message string   `json:"message" example:""`
}

// TokenResponse is the envelope returned by jwt-mode login; the payload is the signed token.
type TokenResponse struct {
	Success bool    `json:"success" example:"true"`
	Payload *string `json:"payload" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Message string  `json:"message" example:""`
}
