package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/intelboard/api/internal/db"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %q", cfg.Server.Addr)
	}
	if cfg.Database.Driver != db.DriverSQLite {
		t.Fatalf("unexpected default driver: %q", cfg.Database.Driver)
	}
	if cfg.Session.ProcessedRetention != 64 {
		t.Fatalf("unexpected default retention: %d", cfg.Session.ProcessedRetention)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `server:
  addr: ":9090"
  max_upload_bytes: 1048576
database:
  driver: sqlite
  path: /tmp/test.db
session:
  processed_retention: 8
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr not loaded: %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != 1048576 {
		t.Fatalf("max upload not loaded: %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Fatalf("database path not loaded: %q", cfg.Database.Path)
	}
	if cfg.Session.ProcessedRetention != 8 {
		t.Fatalf("retention not loaded: %d", cfg.Session.ProcessedRetention)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	yaml := "database:\n  driver: oracle\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_DATABASE_PATH", "/var/data/override.db")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "/var/data/override.db" {
		t.Fatalf("env override not applied: %q", cfg.Database.Path)
	}
}
