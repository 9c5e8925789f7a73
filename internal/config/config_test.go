package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.RunTimeout != 10*time.Minute {
		t.Errorf("expected 10m run timeout, got %v", cfg.RunTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IS_CLOUD", "true")
	t.Setenv("JOBS_URL", "https://jobs.example.com")
	t.Setenv("API_KEY", "k-123")
	t.Setenv("DATABASE_URL", "postgres://localhost/shipyard")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsCloud {
		t.Error("expected IsCloud true")
	}
	if cfg.JobsURL != "https://jobs.example.com" {
		t.Errorf("unexpected jobs url %q", cfg.JobsURL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("DATABASE_URL should imply postgres driver, got %q", cfg.Database.Driver)
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "site_url: https://file.example.com\nlisten_addr: \":4000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITE_URL", "https://env.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":4000" {
		t.Errorf("file value not applied, got %q", cfg.ListenAddr)
	}
	if cfg.SiteURL != "https://env.example.com" {
		t.Errorf("env should win over file, got %q", cfg.SiteURL)
	}
}

func TestProductionRequiresAuthSecret(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("AUTH_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing AUTH_SECRET in production")
	}
}
