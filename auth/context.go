// Package auth handles login, signup and the credential each login produces.
// This file, `context.go`, carries the authenticated caller through request contexts.
package auth

import (
	"context"
)

// `contextKey` is a custom type for context keys, so keys from other packages cannot collide.
type contextKey string

const (
	profileContextKey contextKey = "auth_profile"
)

// NewContextWithProfile returns a child of ctx carrying the authenticated caller.
func NewContextWithProfile(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, p)
}

// ProfileFromContext extracts the caller stored by RequireAuth.
func ProfileFromContext(ctx context.Context) (*Profile, bool) {
	p, ok := ctx.Value(profileContextKey).(*Profile)
	return p, ok && p != nil
}
