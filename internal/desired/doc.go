// Package desired derives, per meeting pattern, the canonical description of
// what should exist on the external recording provider: eligibility,
// collaborators, recording and publish settings, and the concrete recurrence.
package desired
