package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTerm(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateApprovals(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTerm() error {
	if c.Term.CurrentID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lectern/config.toml"
		}
		return fmt.Errorf("term.current_id is required. Edit %s (create with 'lectern config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.RecordingOffsetMin < 0 {
		return errors.New("capture.recording_offset_start must be zero or positive minutes")
	}
	if c.Capture.RecordingOffsetEnd > 0 {
		return errors.New("capture.recording_offset_end must be zero or negative minutes")
	}
	return nil
}

func (c *Config) validateApprovals() error {
	switch c.Approvals.Policy {
	case "any", "admin":
		return nil
	default:
		return fmt.Errorf("approvals.policy must be \"any\" or \"admin\", got %q", c.Approvals.Policy)
	}
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.PassInterval < 60 {
		return errors.New("reconcile.pass_interval must be at least 60 seconds")
	}
	if c.Reconcile.CallTimeout <= 0 {
		return errors.New("reconcile.call_timeout must be positive")
	}
	if c.Reconcile.OutboxInterval <= 0 {
		return errors.New("reconcile.outbox_interval must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if !c.Notifications.Enabled {
		return nil
	}
	if c.Notifications.FromAddress == "" {
		return errors.New("notifications.from_address must be set when notifications are enabled")
	}
	if c.Notifications.AdminAddress == "" {
		return errors.New("notifications.admin_address must be set when notifications are enabled")
	}
	return nil
}
