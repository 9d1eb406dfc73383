package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	FeedPath string `toml:"feed_path"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Term selects the academic term being reconciled.
type Term struct {
	CurrentID string `toml:"current_id"`
}

// Capture contains configuration for the external recording provider.
type Capture struct {
	BaseURL            string `toml:"base_url"`
	Token              string `toml:"token"`
	RequestTimeout     int    `toml:"request_timeout"`
	RecordingOffsetMin int    `toml:"recording_offset_start"`
	RecordingOffsetEnd int    `toml:"recording_offset_end"`
}

// CourseSites contains configuration for the course-site directory lookup.
type CourseSites struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Approvals selects the threshold required before a series is first created.
type Approvals struct {
	// Policy is "any" (one affirmative instructor or admin decision) or
	// "admin" (admin decisions only).
	Policy string `toml:"policy"`
}

// Notifications contains configuration for the email outbox.
type Notifications struct {
	Enabled      bool   `toml:"enabled"`
	FromAddress  string `toml:"from_address"`
	AdminAddress string `toml:"admin_address"`
	AdminName    string `toml:"admin_name"`
}

// Reconcile contains daemon timing configuration.
type Reconcile struct {
	PassInterval   int `toml:"pass_interval"`
	CallTimeout    int `toml:"call_timeout"`
	OutboxInterval int `toml:"outbox_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lectern.
//
// Configuration sections by subsystem:
//   - Paths: state/log directories, feed location, API bind address
//   - Term: the term currently under reconciliation
//   - Capture: external recording provider connection and offsets
//   - CourseSites: publish-target directory lookups
//   - Approvals: scheduling approval threshold
//   - Notifications: outbound email settings
//   - Reconcile: pass cadence and external call timeouts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Term          Term          `toml:"term"`
	Capture       Capture       `toml:"capture"`
	CourseSites   CourseSites   `toml:"course_sites"`
	Approvals     Approvals     `toml:"approvals"`
	Notifications Notifications `toml:"notifications"`
	Reconcile     Reconcile     `toml:"reconcile"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lectern/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("lectern.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the state and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
