// Package users holds the operations on an existing account: reading the caller's own
// profile and deleting the account behind a chain of credential checks.
package users

// ConfirmDeletePhrase must be typed verbatim by the user to confirm account deletion.
const ConfirmDeletePhrase = "delete my account"

// DeleteAccountRequest represents the account deletion payload.
// @Description Account deletion request; confirmText must equal "delete my account" and isConfirmed must be true
type DeleteAccountRequest struct {
	Email        string `json:"email" validate:"required,email" example:"user@example.com"`
	Password     string `json:"password" validate:"required,password" example:"correct1"`
	SecretPhrase string `json:"secretPhrase" validate:"required,min=4,secret" example:"open sesame"`
	ConfirmText  string `json:"confirmText" validate:"eq=delete my account" example:"delete my account"`
	IsConfirmed  bool   `json:"isConfirmed" validate:"eq=true" example:"true"`
}
