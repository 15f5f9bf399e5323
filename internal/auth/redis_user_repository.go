package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisUserRepository stores each user as a JSON string under
// "<prefix>:user:<username>".
type RedisUserRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisUserRepository creates a Redis-backed user repository.
func NewRedisUserRepository(client *redis.Client, prefix string) *RedisUserRepository {
	return &RedisUserRepository{client: client, prefix: prefix}
}

type redisUser struct {
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *RedisUserRepository) key(username string) string {
	return r.prefix + ":user:" + username
}

// Create stores user with SETNX so concurrent signups cannot both win.
func (r *RedisUserRepository) Create(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(redisUser{PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt})
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(user.Username), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	if !created {
		return ErrUsernameExists
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *RedisUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	raw, err := r.client.Get(ctx, r.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var stored redisUser
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decoding user %q: %w", username, err)
	}

	return &User{
		Username:     username,
		PasswordHash: stored.PasswordHash,
		CreatedAt:    stored.CreatedAt,
	}, nil
}

// Exists reports whether username is registered.
func (r *RedisUserRepository) Exists(ctx context.Context, username string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(username)).Result()
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return n > 0, nil
}
