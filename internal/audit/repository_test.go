package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/itemvault/internal/infrastructure/config"
	"github.com/nerrad567/itemvault/internal/infrastructure/database"
	"github.com/nerrad567/itemvault/migrations"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "audit-test.db"),
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	require.NoError(t, db.Migrate(context.Background(), migrations.FS))
	return db.DB
}

func testRepositories(t *testing.T) map[string]Repository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup

	return map[string]Repository{
		"memory": NewMemoryRepository(0),
		"sqlite": NewSQLiteRepository(testDB(t)),
		"redis":  NewRedisRepository(client, "test", 0),
	}
}

func seed(t *testing.T, repo Repository) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []AuditLog{
		{Action: ActionSignup, EntityType: EntityUser, EntityID: "alice", Username: "alice", Source: "api"},
		{Action: ActionLogin, EntityType: EntityUser, EntityID: "alice", Username: "alice", Source: "api"},
		{Action: ActionCreate, EntityType: EntityItem, EntityID: "item-1", Username: "alice", Source: "api",
			Details: map[string]any{"name": "book"}},
		{Action: ActionUpdate, EntityType: EntityItem, EntityID: "item-1", Username: "alice", Source: "api"},
		{Action: ActionDelete, EntityType: EntityItem, EntityID: "item-1", Username: "alice", Source: "api"},
	}
	for i := range entries {
		entries[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(context.Background(), &entries[i]))
		assert.NotEmpty(t, entries[i].ID)
	}
}

func TestRepository_ListNewestFirst(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)

			res, err := repo.List(context.Background(), Filter{})
			require.NoError(t, err)

			assert.Equal(t, 5, res.Total)
			assert.Equal(t, DefaultLimit, res.Limit)
			require.Len(t, res.Logs, 5)
			assert.Equal(t, ActionDelete, res.Logs[0].Action)
			assert.Equal(t, ActionSignup, res.Logs[4].Action)
			assert.Equal(t, "alice", res.Logs[0].Username)
		})
	}
}

func TestRepository_ListFilters(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
	}{
		{"by action", Filter{Action: ActionLogin}, 1},
		{"by entity type", Filter{EntityType: EntityItem}, 3},
		{"by entity id", Filter{EntityType: EntityItem, EntityID: "item-1"}, 3},
		{"no match", Filter{EntityID: "nope"}, 0},
	}

	for name, repo := range testRepositories(t) {
		seed(t, repo)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				res, err := repo.List(context.Background(), tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, res.Total)
				assert.Len(t, res.Logs, tt.wantTotal)
				assert.NotNil(t, res.Logs)
			})
		}
	}
}

func TestRepository_ListPagination(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)

			res, err := repo.List(context.Background(), Filter{Limit: 2, Offset: 1})
			require.NoError(t, err)
			assert.Equal(t, 5, res.Total)
			require.Len(t, res.Logs, 2)
			assert.Equal(t, ActionUpdate, res.Logs[0].Action)
			assert.Equal(t, ActionCreate, res.Logs[1].Action)

			res, err = repo.List(context.Background(), Filter{Offset: 10})
			require.NoError(t, err)
			assert.Empty(t, res.Logs)
			assert.Equal(t, 5, res.Total)
		})
	}
}

func TestRepository_Details(t *testing.T) {
	for name, repo := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)

			res, err := repo.List(context.Background(), Filter{Action: ActionCreate})
			require.NoError(t, err)
			require.Len(t, res.Logs, 1)
			assert.Equal(t, "book", res.Logs[0].Details["name"])
		})
	}
}

func TestFilterNormalize(t *testing.T) {
	tests := []struct {
		in, want Filter
	}{
		{Filter{}, Filter{Limit: DefaultLimit}},
		{Filter{Limit: 1000}, Filter{Limit: MaxLimit}},
		{Filter{Limit: 10, Offset: -5}, Filter{Limit: 10}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.normalize())
	}
}

func TestMemoryRepository_Capacity(t *testing.T) {
	repo := NewMemoryRepository(3)
	ctx := context.Background()
	for i := range 5 {
		require.NoError(t, repo.Create(ctx, &AuditLog{
			Action:    ActionLogin,
			EntityID:  string(rune('a' + i)),
			Source:    "api",
			CreatedAt: time.Unix(int64(i), 0),
		}))
	}

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	assert.Equal(t, "e", res.Logs[0].EntityID)
	assert.Equal(t, "c", res.Logs[2].EntityID)
}

func TestMemoryRepository_DefaultCapacity(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	for i := range DefaultCapacity + 10 {
		require.NoError(t, repo.Create(ctx, &AuditLog{
			Action:    ActionLoginFailed,
			EntityID:  strconv.Itoa(i),
			CreatedAt: time.Unix(int64(i), 0),
		}))
	}

	res, err := repo.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, res.Total)
	assert.Equal(t, strconv.Itoa(DefaultCapacity+9), res.Logs[0].EntityID)
}

func TestRedisRepository_Capacity(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisRepository(client, "cap", 2)
	ctx := context.Background()
	for i := range 4 {
		require.NoError(t, repo.Create(ctx, &AuditLog{Action: ActionLogin, Source: "api", CreatedAt: time.Unix(int64(i), 0)}))
	}

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}
