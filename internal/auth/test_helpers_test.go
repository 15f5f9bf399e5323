package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/nerrad567/itemvault/internal/infrastructure/config"
	"github.com/nerrad567/itemvault/internal/infrastructure/database"
	"github.com/nerrad567/itemvault/migrations"
)

// testDB creates a temporary SQLite database with the full schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db.DB
}

// testRedis starts an in-process Redis server and returns a client for it.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

// testRepositories returns one of each UserRepository implementation.
func testRepositories(t *testing.T) map[string]UserRepository {
	t.Helper()
	return map[string]UserRepository{
		"memory": NewMemoryUserRepository(),
		"sqlite": NewSQLiteUserRepository(testDB(t)),
		"redis":  NewRedisUserRepository(testRedis(t), "test"),
	}
}

// fastHasher keeps tests quick while still exercising real bcrypt.
func fastHasher() Hasher {
	return BcryptHasher{Cost: bcrypt.MinCost}
}
