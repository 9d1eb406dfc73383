package testsupport

import (
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.FeedPath = filepath.Join(base, "feed.json")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Term.CurrentID = "2262"
	cfg.Capture.BaseURL = "http://capture.test"
	cfg.Capture.Token = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithApprovalPolicy overrides the scheduling approval policy.
func WithApprovalPolicy(policy string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Approvals.Policy = policy
	}
}

// WithNotifications enables the email outbox with test addresses.
func WithNotifications() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.Enabled = true
		cfg.Notifications.FromAddress = "capture@test.example"
		cfg.Notifications.AdminAddress = "admins@test.example"
		cfg.Notifications.AdminName = "Capture Admins"
	}
}

// WithRecordingOffsets overrides the start and end minute offsets.
func WithRecordingOffsets(start, end int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Capture.RecordingOffsetMin = start
		cfg.Capture.RecordingOffsetEnd = end
	}
}
