// Package main hosts the lectern CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon's loopback API, plus local preflight checks and
// configuration scaffolding. It centralizes configuration resolution and API
// client construction so subcommands can focus on output rendering.
package main
