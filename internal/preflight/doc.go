// Package preflight validates the environment before the daemon starts
// scheduling passes.
package preflight
