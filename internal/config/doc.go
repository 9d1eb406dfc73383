// Package config loads, validates, and normalizes lectern's TOML
// configuration.
package config
