// Package sis models the read-only section/meeting/instructor records
// consumed from the source-of-truth feed, plus the administrative records
// (opt-outs, approvals, preferences) layered on top of them.
package sis
