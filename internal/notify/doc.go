// Package notify turns reconciliation outcomes into typed instructor and
// admin emails. Messages land in a store-backed outbox first; delivery runs
// separately so pass failures never drop queued mail.
package notify
