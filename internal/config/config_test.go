package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ListenAddr != ":5000" {
		t.Errorf("Expected default listen addr :5000, got %q", cfg.ListenAddr)
	}
	if cfg.PageSize != 10 {
		t.Errorf("Expected default page size 10, got %d", cfg.PageSize)
	}
	if cfg.RateBurst != 100 {
		t.Errorf("Expected default rate burst 100, got %d", cfg.RateBurst)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("Expected default CORS origins [*], got %v", cfg.CORSOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TASKWIRE_LISTEN_ADDR", ":9999")
	t.Setenv("TASKWIRE_JWT_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ListenAddr != ":9999" {
		t.Errorf("Expected listen addr from env, got %q", cfg.ListenAddr)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("Expected jwt secret from env, got %q", cfg.JWTSecret)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskwire.yaml")
	content := []byte("listen_addr: \":7777\"\ndb_path: /tmp/test.db\npage_size: 25\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ListenAddr != ":7777" {
		t.Errorf("Expected listen addr from file, got %q", cfg.ListenAddr)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected db path from file, got %q", cfg.DBPath)
	}
	if cfg.PageSize != 25 {
		t.Errorf("Expected page size from file, got %d", cfg.PageSize)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskwire.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: \":7777\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("TASKWIRE_LISTEN_ADDR", ":8888")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.ListenAddr != ":8888" {
		t.Errorf("Expected env to override file, got %q", cfg.ListenAddr)
	}
}
