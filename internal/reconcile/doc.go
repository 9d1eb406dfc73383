// Package reconcile diffs the desired recording schedule against the
// observed series rows and applies the difference to the external provider.
// Planning is pure; execution applies each mutation externally first and
// persists the result only after the provider call succeeds, so a crash
// between the two leaves a retryable gap instead of a phantom series.
package reconcile
