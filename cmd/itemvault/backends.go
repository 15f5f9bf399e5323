package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/itemvault/internal/api"
	"github.com/nerrad567/itemvault/internal/audit"
	"github.com/nerrad567/itemvault/internal/auth"
	"github.com/nerrad567/itemvault/internal/infrastructure/config"
	"github.com/nerrad567/itemvault/internal/infrastructure/database"
	"github.com/nerrad567/itemvault/internal/infrastructure/logging"
	"github.com/nerrad567/itemvault/internal/infrastructure/redisdb"
	"github.com/nerrad567/itemvault/internal/item"
	"github.com/nerrad567/itemvault/migrations"
)

// backends holds the repositories for the configured storage backend.
type backends struct {
	users  auth.UserRepository
	items  item.Repository
	audit  audit.Repository
	health map[string]api.HealthChecker
	close  func() error
}

// Close releases the backend connection, if any.
func (b *backends) Close(log *logging.Logger) {
	if b.close == nil {
		return
	}
	log.Info("closing storage backend")
	if err := b.close(); err != nil {
		log.Error("error closing storage backend", "error", err)
	}
}

// openBackends connects the storage backend named by storage.backend.
// SQLite databases are migrated before use.
func openBackends(ctx context.Context, cfg *config.Config, log *logging.Logger) (*backends, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return &backends{
			users:  auth.NewMemoryUserRepository(),
			items:  item.NewMemoryRepository(),
			audit:  audit.NewMemoryRepository(audit.DefaultCapacity),
			health: map[string]api.HealthChecker{},
		}, nil

	case config.BackendSQLite:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database connected", "path", cfg.Database.Path)
		return &backends{
			users:  auth.NewSQLiteUserRepository(db.DB),
			items:  item.NewSQLiteRepository(db.DB),
			audit:  audit.NewSQLiteRepository(db.DB),
			health: map[string]api.HealthChecker{"database": db},
			close:  db.Close,
		}, nil

	case config.BackendRedis:
		rc, err := redisdb.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting to Redis: %w", err)
		}
		log.Info("redis connected", "addr", cfg.Redis.Addr, "key_prefix", rc.KeyPrefix())
		return &backends{
			users:  auth.NewRedisUserRepository(rc.Client, rc.KeyPrefix()),
			items:  item.NewRedisRepository(rc.Client, rc.KeyPrefix()),
			audit:  audit.NewRedisRepository(rc.Client, rc.KeyPrefix(), audit.DefaultCapacity),
			health: map[string]api.HealthChecker{"redis": rc},
			close:  rc.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
