package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-prompt-cache/pkg/testsupport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	return testsupport.TempFile(t, []byte(content))
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
}

func TestLoad_NoPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("unexpected driver %q", cfg.Database.Driver)
	}
	if cfg.Regeneration.ValidityWindow.Std() != 24*time.Hour {
		t.Errorf("unexpected validity window %v", cfg.Regeneration.ValidityWindow.Std())
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9090"
  sweep_token: "sweep-secret"
database:
  driver: postgres
  dsn: "postgres://localhost/prompts?sslmode=disable"
regeneration:
  validity_window: "12h"
  refresh_timeout: "10s"
  max_background: 2
sweep:
  concurrency: 8
  item_timeout: "5s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.SweepToken != "sweep-secret" {
		t.Errorf("unexpected sweep token %q", cfg.HTTP.SweepToken)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("unexpected driver %q", cfg.Database.Driver)
	}
	if cfg.Regeneration.ValidityWindow.Std() != 12*time.Hour {
		t.Errorf("unexpected validity window %v", cfg.Regeneration.ValidityWindow.Std())
	}
	if cfg.Sweep.Concurrency != 8 {
		t.Errorf("unexpected concurrency %d", cfg.Sweep.Concurrency)
	}
	// Sections absent from the file keep their defaults.
	if cfg.SessionCache.TTL.Std() != 5*time.Minute {
		t.Errorf("unexpected session ttl %v", cfg.SessionCache.TTL.Std())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9090"
`)
	t.Setenv("PROMPT_CACHE_ADDR", ":7070")
	t.Setenv("PROMPT_CACHE_SWEEP_TOKEN", "env-secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Errorf("env must win over file, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.SweepToken != "env-secret" {
		t.Errorf("unexpected sweep token %q", cfg.HTTP.SweepToken)
	}
	if cfg.Generation.APIKey != "sk-test" || cfg.Generation.Model != "gpt-4o" {
		t.Errorf("unexpected generation config %+v", cfg.Generation)
	}
}

func TestLoad_InvalidDriverRejected(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: oracle
  dsn: "whatever"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown driver")
	}
}

func TestLoad_InvalidDurationRejected(t *testing.T) {
	path := writeConfig(t, `
regeneration:
  validity_window: "one day"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for invalid duration")
	}
}

func TestLoad_MissingFileRejected(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate_RejectsZeroConcurrency(t *testing.T) {
	cfg := Default()
	cfg.Sweep.Concurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero concurrency")
	}
}
