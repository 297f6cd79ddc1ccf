package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
)

type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
}

// EnsureAdminUser creates the configured admin account once; it is a no-op
// when no admin is configured or the username already exists.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher PasswordHasher, cfg config.Config) (bool, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err := store.GetByUsername(ctx, cfg.AdminUsername)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(ctx, cfg.AdminPassword)

	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	_, err = store.Create(ctx, user.NewUser{
		Username:       cfg.AdminUsername,
		Email:          cfg.AdminEmail,
		FirstName:      "Admin",
		LastName:       "User",
		HashedPassword: hash,
		Role:           user.RoleAdmin,
	})

	// another instance may have seeded it first
	if errors.Is(err, user.ErrUsernameTaken) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
