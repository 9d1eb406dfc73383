package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags a log line with a machine-readable event name.
	FieldEventType = "event_type"
	// FieldTermID identifies the academic term a log line concerns.
	FieldTermID = "term_id"
	// FieldSectionID identifies the course section a log line concerns.
	FieldSectionID = "section_id"
	// FieldPatternID identifies the meeting pattern a log line concerns.
	FieldPatternID = "pattern_id"
	// FieldSeriesID identifies an external recording series.
	FieldSeriesID = "series_id"
	// FieldPassID correlates log lines within one reconciliation pass.
	FieldPassID = "pass_id"
	// FieldAction names the reconciliation action being applied.
	FieldAction = "action"
	// FieldErrorHint suggests an operator remedy alongside an error.
	FieldErrorHint = "error_hint"
	// FieldAlert flags anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
