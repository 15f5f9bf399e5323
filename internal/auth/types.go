package auth

import (
	"errors"
	"time"
)

// User is a registered account.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	CreatedAt    time.Time `json:"created_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrUnknownHash        = errors.New("unrecognised password hash format")
)
