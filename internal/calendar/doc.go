// Package calendar turns weekly meeting patterns and term calendars into
// concrete recording dates.
package calendar
