package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/nerrad567/itemvault/internal/audit"
	"github.com/nerrad567/itemvault/internal/infrastructure/config"
	"github.com/nerrad567/itemvault/internal/infrastructure/logging"
)

// writeConfig writes a minimal valid config with the given storage section
// and API port, returning its path.
func writeConfig(t *testing.T, storage string, port int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := fmt.Sprintf(`
api:
  host: "127.0.0.1"
  port: %d
%s
logging:
  level: error
  format: text
  output: stderr
security:
  jwt:
    access_secret: "access-secret-for-main-tests-0123456789"
    refresh_secret: "refresh-secret-for-main-tests-9876543210"
  password:
    algorithm: bcrypt
    bcrypt_cost: 4
`, port, storage)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func sqliteStorage(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf(`
storage:
  backend: sqlite
database:
  path: %q
  wal_mode: true
  busy_timeout: 5
`, filepath.Join(t.TempDir(), "itemvault.db"))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidBackend verifies config validation stops startup.
func TestRun_InvalidBackend(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: postgres\n", 8000)

	err := run(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "storage.backend") {
		t.Fatalf("run() error = %v, want storage.backend validation error", err)
	}
}

// TestRun_ServesUntilCancelled starts the full server on the memory
// backend and shuts it down through the context.
func TestRun_ServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	path := writeConfig(t, "storage:\n  backend: memory\n", port)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, path) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url) //nolint:noctx // test helper
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("health status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not come up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestOpenBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name       string
		storage    config.StorageConfig
		wantHealth string
	}{
		{"memory", config.StorageConfig{Backend: config.BackendMemory}, ""},
		{"sqlite", config.StorageConfig{Backend: config.BackendSQLite}, "database"},
		{"redis", config.StorageConfig{Backend: config.BackendRedis}, "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Storage:  tt.storage,
				Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db"), BusyTimeout: 5},
				Redis:    config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "test"},
			}

			b, err := openBackends(context.Background(), cfg, logging.Discard())
			if err != nil {
				t.Fatalf("openBackends() error = %v", err)
			}
			defer b.Close(logging.Discard())

			if b.users == nil || b.items == nil || b.audit == nil {
				t.Fatal("openBackends() left a repository nil")
			}
			if tt.wantHealth == "" {
				if len(b.health) != 0 {
					t.Errorf("health checks = %v, want none", b.health)
				}
				return
			}
			check, ok := b.health[tt.wantHealth]
			if !ok {
				t.Fatalf("health checks missing %q", tt.wantHealth)
			}
			if err := check.HealthCheck(context.Background()); err != nil {
				t.Errorf("HealthCheck() error = %v", err)
			}
		})
	}
}

func TestOpenBackends_MemoryAuditBounded(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}
	b, err := openBackends(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("openBackends() error = %v", err)
	}
	defer b.Close(logging.Discard())

	ctx := context.Background()
	for i := range audit.DefaultCapacity + 1 {
		entry := &audit.AuditLog{Action: audit.ActionLoginFailed, CreatedAt: time.Unix(int64(i), 0)}
		if err := b.audit.Create(ctx, entry); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	res, err := b.audit.List(ctx, audit.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != audit.DefaultCapacity {
		t.Errorf("audit trail holds %d entries, want %d", res.Total, audit.DefaultCapacity)
	}
}

func TestOpenBackends_Unknown(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "etcd"}}
	if _, err := openBackends(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("openBackends() error = nil, want error")
	}
}

func TestMigrateCommand(t *testing.T) {
	path := writeConfig(t, sqliteStorage(t), 8000)

	runApp := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		argv := append([]string{"itemvault", "--config", path}, args...)
		if err := app.RunContext(context.Background(), argv); err != nil {
			t.Fatalf("%v error = %v", args, err)
		}
		return out.String()
	}

	if out := runApp("migrate", "status"); !strings.Contains(out, "0 applied, 2 pending") {
		t.Errorf("initial status = %q", out)
	}
	runApp("migrate", "up")
	if out := runApp("migrate", "status"); !strings.Contains(out, "2 applied, 0 pending") {
		t.Errorf("status after up = %q", out)
	}
	runApp("migrate", "down")
	if out := runApp("migrate", "status"); !strings.Contains(out, "1 applied, 1 pending") {
		t.Errorf("status after down = %q", out)
	}
}

func TestMigrateCommand_RequiresSQLite(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: memory\n", 8000)

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.RunContext(context.Background(), []string{"itemvault", "--config", path, "migrate", "up"})
	if err == nil {
		t.Fatal("migrate up on memory backend should fail")
	}
}
