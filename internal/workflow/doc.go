// Package workflow schedules reconciliation passes: one loop, one pass at a
// time, on an interval with manual wake-ups.
package workflow
