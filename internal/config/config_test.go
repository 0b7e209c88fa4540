package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("POS_POSTGRES_DSN", "postgres://localhost/feeledger")
	t.Setenv("POS_JWT_SECRET", "jwt-secret")
	t.Setenv("POS_SNAPSHOT_SECRET", "snap-secret")
	t.Setenv("POS_HTTP_PORT", "9090")
	t.Setenv("POS_JWT_EXPIRES_HOURS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.DSN != "postgres://localhost/feeledger" {
		t.Fatalf("dsn: %q", cfg.Database.DSN)
	}
	if cfg.HTTPAddress() != ":9090" {
		t.Fatalf("http address: %q", cfg.HTTPAddress())
	}
	if cfg.JWTExpiration() != 2*time.Hour {
		t.Fatalf("jwt expiration: %s", cfg.JWTExpiration())
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("POS_POSTGRES_DSN", "")
	t.Setenv("POS_JWT_SECRET", "")
	t.Setenv("POS_SNAPSHOT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure without DSN")
	}

	t.Setenv("POS_POSTGRES_DSN", "postgres://localhost/feeledger")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure without jwt secret")
	}

	t.Setenv("POS_JWT_SECRET", "jwt-secret")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure without snapshot secret")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("http:\n  port: \"7000\"\njwt:\n  secret: from-yaml\n  expiresHours: 4\ndatabase:\n  dsn: postgres://yaml/db\nsnapshot:\n  secret: snap\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("POS_HTTP_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != "7001" {
		t.Fatalf("env should win over yaml, got %q", cfg.HTTP.Port)
	}
	if cfg.JWT.Secret != "from-yaml" {
		t.Fatalf("yaml value lost: %q", cfg.JWT.Secret)
	}
	if cfg.JWTExpiration() != 4*time.Hour {
		t.Fatalf("jwt expiration: %s", cfg.JWTExpiration())
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("POS_HTTP_PORT", "")
	t.Setenv("POS_POSTGRES_DSN", "postgres://localhost/feeledger")
	t.Setenv("POS_JWT_SECRET", "jwt-secret")
	t.Setenv("POS_SNAPSHOT_SECRET", "snap-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("default port: %q", cfg.HTTPAddress())
	}
	if cfg.JWTExpiration() != 8*time.Hour {
		t.Fatalf("default lifetime: %s", cfg.JWTExpiration())
	}
	if cfg.PingInterval() != 30*time.Second {
		t.Fatalf("default ping: %s", cfg.PingInterval())
	}
	if cfg.Reporting.Timezone != "Asia/Manila" {
		t.Fatalf("default timezone: %q", cfg.Reporting.Timezone)
	}
}
