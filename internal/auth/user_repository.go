package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/itemvault/internal/infrastructure/database"
)

// UserRepository defines the interface for user account persistence.
//
// Create must be atomic with respect to the uniqueness check: two concurrent
// creates for the same username yield exactly one success and one
// ErrUsernameExists.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	Exists(ctx context.Context, username string) (bool, error)
}

// MemoryUserRepository keeps users in a map for the process lifetime.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]User)}
}

// Create stores user unless the username is taken.
func (r *MemoryUserRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return ErrUsernameExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.users[user.Username] = *user
	return nil
}

// GetByUsername returns a copy of the stored user or ErrUserNotFound.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// Exists reports whether username is registered.
func (r *MemoryUserRepository) Exists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[username]
	return ok, nil
}

// SQLiteUserRepository implements UserRepository using the users table.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite-backed user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Create inserts a new user. The primary key enforces uniqueness.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT username, password_hash, created_at FROM users WHERE username = ?", username,
	).Scan(&u.Username, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &u, nil
}

// Exists reports whether username is registered.
func (r *SQLiteUserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", username,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return n > 0, nil
}
