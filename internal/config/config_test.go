package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testYAML = `
server:
  host: 127.0.0.1
  port: 9000
database:
  host: db.internal
  port: 5433
  user: naksha
  password: filepass
  dbname: naksha
  sslmode: require
auth:
  jwt_secret: file-secret
  token_ttl: 24h
recognizer:
  base_url: http://recognizer:8000
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("server port: got %d want 9000", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl: got %v want 24h", cfg.Auth.TokenTTL)
	}
	if got := cfg.Database.DSN(); got != "host=db.internal port=5433 user=naksha password=filepass dbname=naksha sslmode=require" {
		t.Errorf("unexpected DSN: %q", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "env-password")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "8081")

	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Database.Password != "env-password" {
		t.Errorf("database password: got %q want env override", cfg.Database.Password)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt secret: got %q want env override", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("server port: got %d want 8081", cfg.Server.Port)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("RECOGNIZER_URL", "http://localhost:8000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Recognizer.BaseURL != "http://localhost:8000" {
		t.Errorf("recognizer url: got %q", cfg.Recognizer.BaseURL)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("default token ttl: got %v want 24h", cfg.Auth.TokenTTL)
	}
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RECOGNIZER_URL", "http://localhost:8000")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error when JWT secret is missing")
	}
}
