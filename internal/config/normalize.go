package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeApprovals()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.FeedPath, err = expandPath(c.Paths.FeedPath); err != nil {
		return fmt.Errorf("paths.feed_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.BaseURL = strings.TrimRight(strings.TrimSpace(c.Capture.BaseURL), "/")
	c.CourseSites.BaseURL = strings.TrimRight(strings.TrimSpace(c.CourseSites.BaseURL), "/")
	if c.Capture.RequestTimeout <= 0 {
		c.Capture.RequestTimeout = defaultCaptureTimeout
	}
	if c.CourseSites.RequestTimeout <= 0 {
		c.CourseSites.RequestTimeout = defaultCourseSitesTimeout
	}
}

func (c *Config) normalizeApprovals() {
	c.Approvals.Policy = strings.ToLower(strings.TrimSpace(c.Approvals.Policy))
	if c.Approvals.Policy == "" {
		c.Approvals.Policy = defaultApprovalPolicy
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return home + path[1:], nil
	}
	return path, nil
}
