package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testAccessSecret  = "test-access-secret-at-least-32-chars!"
	testRefreshSecret = "test-refresh-secret-at-least-32-chars"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
api:
  host: "127.0.0.1"
  port: 9000
storage:
  backend: "sqlite"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
security:
  jwt:
    access_secret: "` + testAccessSecret + `"
    refresh_secret: "` + testRefreshSecret + `"
    access_token_ttl: 5
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendSQLite)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Security.JWT.AccessTTL() != 5*time.Minute {
		t.Errorf("AccessTTL() = %v, want 5m", cfg.Security.JWT.AccessTTL())
	}
	// Unset keys keep their defaults.
	if cfg.Security.JWT.RefreshTTL() != 7*24*time.Hour {
		t.Errorf("RefreshTTL() = %v, want 168h", cfg.Security.JWT.RefreshTTL())
	}
	if cfg.Security.Password.Algorithm != HashBcrypt {
		t.Errorf("Password.Algorithm = %q, want %q", cfg.Security.Password.Algorithm, HashBcrypt)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
api:
  port: 8000
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for missing secrets, got nil")
	}
	if !strings.Contains(err.Error(), "access_secret") || !strings.Contains(err.Error(), "refresh_secret") {
		t.Errorf("Load() error = %v, want both secrets reported", err)
	}
}

func TestLoad_EnvSecrets(t *testing.T) {
	t.Setenv("ITEMVAULT_JWT_ACCESS_SECRET", testAccessSecret)
	t.Setenv("ITEMVAULT_JWT_REFRESH_SECRET", testRefreshSecret)

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.JWT.AccessSecret != testAccessSecret {
		t.Errorf("AccessSecret = %q, want env value", cfg.Security.JWT.AccessSecret)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.AccessSecret = testAccessSecret
		cfg.Security.JWT.RefreshSecret = testRefreshSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "argon2id hashing", mutate: func(c *Config) { c.Security.Password.Algorithm = HashArgon2id }},
		{name: "redis backend", mutate: func(c *Config) { c.Storage.Backend = BackendRedis }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "postgres" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) {
			c.Storage.Backend = BackendSQLite
			c.Database.Path = ""
		}, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Redis.Addr = ""
		}, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "TLS without cert", mutate: func(c *Config) { c.API.TLS.Enabled = true }, wantErr: true},
		{name: "missing access secret", mutate: func(c *Config) { c.Security.JWT.AccessSecret = "" }, wantErr: true},
		{name: "refresh secret too short", mutate: func(c *Config) { c.Security.JWT.RefreshSecret = "short" }, wantErr: true},
		{name: "identical secrets", mutate: func(c *Config) {
			c.Security.JWT.RefreshSecret = c.Security.JWT.AccessSecret
		}, wantErr: true},
		{name: "zero access TTL", mutate: func(c *Config) { c.Security.JWT.AccessTokenTTL = 0 }, wantErr: true},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Security.Password.BcryptCost = 2 }, wantErr: true},
		{name: "unknown hash", mutate: func(c *Config) { c.Security.Password.Algorithm = "md5" }, wantErr: true},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ITEMVAULT_API_HOST", "192.168.1.1")
	t.Setenv("ITEMVAULT_API_PORT", "9090")
	t.Setenv("ITEMVAULT_STORAGE_BACKEND", "redis")
	t.Setenv("ITEMVAULT_DATABASE_PATH", "/custom/path.db")
	t.Setenv("ITEMVAULT_REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("ITEMVAULT_MQTT_HOST", "mqtt.example.com")
	t.Setenv("ITEMVAULT_MQTT_USERNAME", "testuser")
	t.Setenv("ITEMVAULT_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("ITEMVAULT_JWT_ACCESS_SECRET", "access")
	t.Setenv("ITEMVAULT_JWT_REFRESH_SECRET", "refresh")

	applyEnvOverrides(cfg)

	checks := []struct {
		field, got, want string
	}{
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"Storage.Backend", cfg.Storage.Backend, "redis"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"Redis.Addr", cfg.Redis.Addr, "redis.example.com:6379"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Security.JWT.AccessSecret", cfg.Security.JWT.AccessSecret, "access"},
		{"Security.JWT.RefreshSecret", cfg.Security.JWT.RefreshSecret, "refresh"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("ITEMVAULT_API_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8000 {
		t.Errorf("API.Port = %d, want default 8000", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("defaultConfig Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Security.JWT.AccessTokenTTL != 15 {
		t.Errorf("defaultConfig AccessTokenTTL = %d, want 15", cfg.Security.JWT.AccessTokenTTL)
	}
	if cfg.Security.JWT.RefreshTokenTTL != 10080 {
		t.Errorf("defaultConfig RefreshTokenTTL = %d, want 10080", cfg.Security.JWT.RefreshTokenTTL)
	}
	if cfg.MQTT.Enabled {
		t.Error("defaultConfig should leave MQTT disabled")
	}
	if cfg.Security.JWT.AccessSecret != "" {
		t.Error("defaultConfig must not ship a signing secret")
	}
}
