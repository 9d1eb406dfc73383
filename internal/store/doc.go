// Package store persists observed scheduling state in SQLite: the series
// rows mirroring what was last pushed to the recording provider, the
// append-only change history, notification dedupe keys, and the email
// outbox. All writes retry on SQLITE_BUSY.
package store
