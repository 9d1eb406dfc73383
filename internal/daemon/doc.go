// Package daemon runs the reconciliation loop as a single-instance
// background service with a loopback HTTP API for the CLI.
package daemon
