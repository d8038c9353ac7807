package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Scheduler.Duration() != 6*time.Hour {
		t.Fatalf("interval = %v", cfg.Scheduler.Duration())
	}
	if cfg.Cleaner.YearCutoff != 2020 || cfg.Cleaner.ApplyCutoffScheduled {
		t.Fatalf("cleaner = %+v", cfg.Cleaner)
	}
	if len(cfg.Sources) != 6 {
		t.Fatalf("sources = %v", cfg.Sources)
	}
	if src := cfg.Source("pubmed"); !src.Enabled || !src.Retry {
		t.Fatalf("pubmed = %+v", src)
	}
	if src := cfg.Source("ctgov"); !src.Enabled || src.Retry {
		t.Fatalf("ctgov = %+v", src)
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  addr: ":9090"
scheduler:
  interval: 30m
cleaner:
  applyCutoffScheduled: true
sources:
  - name: pubmed
    enabled: true
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REFENGINE_CONFIG", path)

	cfg := Load()

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Scheduler.Duration() != 30*time.Minute {
		t.Fatalf("interval = %v", cfg.Scheduler.Duration())
	}
	if !cfg.Cleaner.ApplyCutoffScheduled || cfg.Cleaner.YearCutoff != 2020 {
		t.Fatalf("cleaner = %+v", cfg.Cleaner)
	}
	// A file source list replaces the default list entirely.
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "pubmed" {
		t.Fatalf("sources = %v", cfg.Sources)
	}
	// Defaults survive where the file is silent.
	if cfg.Server.Timeout() != 60*time.Second {
		t.Fatalf("timeout = %v", cfg.Server.Timeout())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env/db")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("REFENGINE_ADDR", ":7070")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("api key = %q", cfg.OpenAI.APIKey)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadBadFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REFENGINE_CONFIG", path)

	cfg := Load()
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestUnknownSourceIsDisabled(t *testing.T) {
	cfg := Load()
	if src := cfg.Source("arxiv"); src.Enabled || src.Retry {
		t.Fatalf("unknown source must be disabled: %+v", src)
	}
}
