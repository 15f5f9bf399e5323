package auth

import (
	"context"
	"errors"
	"fmt"
)

// CredentialStore registers users and checks their passwords.
type CredentialStore struct {
	repo   UserRepository
	hasher Hasher
}

// NewCredentialStore wraps repo, hashing new passwords with hasher.
func NewCredentialStore(repo UserRepository, hasher Hasher) *CredentialStore {
	return &CredentialStore{repo: repo, hasher: hasher}
}

// Register stores username with a hash of password.
//
// Returns ErrUsernameExists if the username is taken and ErrPasswordTooLong
// if the hasher cannot accept the password.
func (c *CredentialStore) Register(ctx context.Context, username, password string) error {
	// Skip the expensive hash for an obvious duplicate; Create still
	// enforces uniqueness for concurrent signups.
	exists, err := c.repo.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if exists {
		return ErrUsernameExists
	}

	hash, err := c.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := c.repo.Create(ctx, &User{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return ErrUsernameExists
		}
		return fmt.Errorf("registering user: %w", err)
	}
	return nil
}

// Verify reports whether password matches the stored hash for username.
// An unknown username yields false with no error; the error return is for
// backend failures only.
func (c *CredentialStore) Verify(ctx context.Context, username, password string) (bool, error) {
	user, err := c.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("verifying password for %q: %w", username, err)
	}
	return ok, nil
}

// Authenticate is Verify with a mismatch or unknown username reported as
// ErrInvalidCredentials.
func (c *CredentialStore) Authenticate(ctx context.Context, username, password string) error {
	ok, err := c.Verify(ctx, username, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// Exists reports whether username is registered.
func (c *CredentialStore) Exists(ctx context.Context, username string) (bool, error) {
	return c.repo.Exists(ctx, username)
}
