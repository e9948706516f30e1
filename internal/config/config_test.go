package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  name: test
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.JWT.AccessTTLSeconds != 3600 {
		t.Fatalf("expected default access TTL 3600, got %d", cfg.JWT.AccessTTLSeconds)
	}
	if cfg.JWT.RefreshTTLSeconds != 2592000 {
		t.Fatalf("expected default refresh TTL 2592000, got %d", cfg.JWT.RefreshTTLSeconds)
	}
	if cfg.Risk.TimeoutSeconds != 30 {
		t.Fatalf("expected default generation timeout 30, got %d", cfg.Risk.TimeoutSeconds)
	}
	if cfg.Risk.Cumulative {
		t.Fatal("cumulative risk must default to false")
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.Log.Level)
	}
}

func TestLoadConfigReadsValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  name: mindcare-api
postgres:
  host: db
  port: 5432
  user: u
  password: p
  dbName: mindcare
risk:
  cumulative: true
  timeoutSeconds: 10
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.Server.Port)
	}
	if !cfg.Risk.Cumulative || cfg.Risk.TimeoutSeconds != 10 {
		t.Fatalf("risk config not parsed: %+v", cfg.Risk)
	}
	if got := cfg.Postgres.DSN(); got != "postgres://u:p@db:5432/mindcare" {
		t.Fatalf("unexpected DSN: %s", got)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
