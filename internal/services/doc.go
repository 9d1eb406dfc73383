// Package services holds shared plumbing for external service clients:
// sentinel error markers and classification helpers.
package services
