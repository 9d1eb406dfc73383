package notify

// Type identifies a notification template. Each transition the reconciler
// detects maps to exactly one type; the (section, pattern, recipient, type)
// tuple dedupes delivery across passes.
type Type string

const (
	TypeNewSchedule        Type = "new_schedule"
	TypeScheduleChanged    Type = "schedule_changed"
	TypeChangesConfirmed   Type = "changes_confirmed"
	TypeInstructorAdded    Type = "instructor_added"
	TypeInstructorRemoved  Type = "instructor_removed"
	TypeRoomIneligible     Type = "room_ineligible"
	TypeCourseCanceled     Type = "course_canceled"
	TypeOptedOut           Type = "opted_out"
	TypeOperatorRequested  Type = "operator_requested"
	TypeMultiPatternChange Type = "multi_pattern_change"
	TypeAdminAlert         Type = "admin_alert"
)

// Recipient is one addressee for a notification.
type Recipient struct {
	UID     string
	Name    string
	Address string
}

// Event is one notification request. Data feeds the template for the
// event's type; missing keys render as empty strings.
type Event struct {
	Type       Type
	TermID     string
	SectionID  string
	PatternID  string
	Recipients []Recipient
	Data       map[string]string
}
