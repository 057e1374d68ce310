package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PROVIDER_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected default db port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Sync.ManualCooldown != 5*time.Minute {
		t.Errorf("expected default cooldown 5m, got %v", cfg.Sync.ManualCooldown)
	}
	if !cfg.Scheduler.Enabled {
		t.Error("expected scheduler enabled by default")
	}
	if cfg.Scheduler.JobTimeout != 2*time.Minute {
		t.Errorf("expected default job timeout 2m, got %v", cfg.Scheduler.JobTimeout)
	}
	if cfg.Provider.PageSize != 500 {
		t.Errorf("expected default page size 500, got %d", cfg.Provider.PageSize)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PROVIDER_API_KEY", "test-key")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for missing JWT_SECRET, got nil")
	}
}

func TestLoadMissingProviderKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PROVIDER_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for missing PROVIDER_API_KEY, got nil")
	}
}

func TestLoadInvalidCooldown(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_MANUAL_COOLDOWN", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for invalid SYNC_MANUAL_COOLDOWN, got nil")
	}
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", DBName: "finledger", SSLMode: "require",
	}
	want := "host=db port=5433 user=u password=p dbname=finledger sslmode=require"
	if got := c.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}

func TestAllowedHostsParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_HOSTS", "api.example.com, example.com ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(cfg.Server.AllowedHosts) != 2 {
		t.Fatalf("expected 2 allowed hosts, got %d: %v", len(cfg.Server.AllowedHosts), cfg.Server.AllowedHosts)
	}
	if cfg.Server.AllowedHosts[0] != "api.example.com" {
		t.Errorf("expected first host api.example.com, got %s", cfg.Server.AllowedHosts[0])
	}
}
