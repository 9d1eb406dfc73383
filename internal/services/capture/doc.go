// Package capture talks to the external recording provider that owns the
// actual recurring series. The provider cannot edit recurrence on a live
// series, so recurrence changes are expressed as delete plus create.
package capture
