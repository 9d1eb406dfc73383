package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/config"
)

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Term.CurrentID = "2262"
	cfg.Notifications.FromAddress = "capture@example.edu"
	cfg.Notifications.AdminAddress = "admin@example.edu"
	return cfg
}

func TestDefaultKeepsNotificationsOff(t *testing.T) {
	cfg := config.Default()
	if cfg.Notifications.Enabled {
		t.Fatal("notifications must stay off until addresses are configured")
	}
}

func TestValidateRequiresTerm(t *testing.T) {
	cfg := validConfig()
	cfg.Term.CurrentID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing term")
	} else if !strings.Contains(err.Error(), "term.current_id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateApprovalPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Approvals.Policy = "committee"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown approval policy")
	}
	cfg.Approvals.Policy = "admin"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("admin policy should validate: %v", err)
	}
}

func TestValidateOffsetDirections(t *testing.T) {
	cfg := validConfig()
	cfg.Capture.RecordingOffsetEnd = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for positive end offset")
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[term]
current_id = "2258"

[capture]
base_url = "https://capture.example.edu/api/"

[approvals]
policy = "ADMIN"

[notifications]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be found, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Capture.BaseURL != "https://capture.example.edu/api" {
		t.Fatalf("base URL not normalized: %q", cfg.Capture.BaseURL)
	}
	if cfg.Approvals.Policy != "admin" {
		t.Fatalf("approval policy not lowercased: %q", cfg.Approvals.Policy)
	}
	if cfg.Reconcile.PassInterval != 900 {
		t.Fatalf("default pass interval missing: %d", cfg.Reconcile.PassInterval)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	_, _, exists, err := config.Load(path)
	if exists {
		t.Fatal("expected missing config to report exists=false")
	}
	// Defaults alone fail validation because the term is unset.
	if err == nil {
		t.Fatal("expected validation error from defaults without term")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}
