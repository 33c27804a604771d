// Package seed loads the demo accounts used in development: two admins and three users.
// Seeding wipes the stores first, so it must never run against production data.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/gatehouse-go/password"
	"github.com/user/gatehouse-go/store"
	"github.com/user/gatehouse-go/validation"
)

// UserSeed is one demo account before hashing.
type UserSeed struct {
	Name         string     `json:"name" validate:"required"`
	Email        string     `json:"email" validate:"required,email"`
	Password     string     `json:"password" validate:"required,password"`
	Role         store.Role `json:"role" validate:"oneof=ADMIN USER"`
	AboutSlug    string     `json:"aboutSlug" validate:"omitempty,slug"`
	AboutContent string     `json:"aboutContent" validate:"max=1000"`
}

// DefaultUsers returns the demo accounts. They carry no secret phrase, like accounts
// created before secret phrases existed, so they cannot be deleted through the API.
func DefaultUsers() []UserSeed {
	return []UserSeed{
		{Name: "Kofuka Taiko", Email: "admin01@example.com", Password: "password1111", Role: store.RoleAdmin},
		{Name: "Fuguai Naoshi", Email: "admin02@example.com", Password: "password2222", Role: store.RoleAdmin},
		{
			Name: "Kobun Gojiro", Email: "user01@example.com", Password: "password3333", Role: store.RoleUser,
			AboutSlug: "gojiro", AboutContent: "I am Kobun Gojiro.<br>Nice to meet you.",
		},
		{
			Name: "Shiyo Aimaiko", Email: "user02@example.com", Password: "password4444", Role: store.RoleUser,
			AboutSlug: "aimaiko", AboutContent: "My name is Shiyo Aimaiko. Let's be friends.",
		},
		{
			Name: "Test Taro", Email: "user03@example.com", Password: "password5555", Role: store.RoleUser,
			AboutSlug: "taro", AboutContent: "I am Test Taro. Nice to meet you.",
		},
	}
}

// Validate checks every seed and reports the first invalid record with its failing fields.
func Validate(seeds []UserSeed) error {
	for i, s := range seeds {
		if err := validation.Struct(s); err != nil {
			return fmt.Errorf("validation failed at record %d (%s): fields %v: %w", i, s.Email, validation.Fields(err), err)
		}
	}
	return nil
}

// Run validates seeds, wipes every wiper, then creates the accounts. Nothing is written if
// any seed is invalid. It returns the number of accounts created.
func Run(ctx context.Context, users store.UserStore, wipers []store.Wiper, hasher password.Hasher, seeds []UserSeed, logger *zap.Logger) (int, error) {
	logger.Info("seeding database", zap.Int("users", len(seeds)))
	if err := Validate(seeds); err != nil {
		return 0, err
	}

	for _, w := range wipers {
		if err := w.Wipe(ctx); err != nil {
			return 0, fmt.Errorf("wipe: %w", err)
		}
	}

	for i, s := range seeds {
		hash, err := hasher.Hash(ctx, s.Password)
		if err != nil {
			return i, fmt.Errorf("hash password for %s: %w", s.Email, err)
		}
		u := &store.User{
			Name:           s.Name,
			Email:          s.Email,
			HashedPassword: hash,
			Role:           s.Role,
			AboutContent:   s.AboutContent,
		}
		if s.AboutSlug != "" {
			slug := s.AboutSlug
			u.AboutSlug = &slug
		}
		if _, err := users.CreateUser(ctx, u); err != nil {
			return i, fmt.Errorf("create %s: %w", s.Email, err)
		}
	}

	logger.Info("seeding completed successfully")
	return len(seeds), nil
}
