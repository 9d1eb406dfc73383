package store

import (
	"time"
)

// HistoryStatus is the lifecycle of a history entry.
type HistoryStatus string

const (
	StatusQueued    HistoryStatus = "queued"
	StatusSucceeded HistoryStatus = "succeeded"
	StatusFailed    HistoryStatus = "failed"
)

// EmailStatus is the lifecycle of an outbox row.
type EmailStatus string

const (
	EmailQueued EmailStatus = "queued"
	EmailSent   EmailStatus = "sent"
	EmailFailed EmailStatus = "failed"
)

// Series is the observed state for one meeting pattern: what was last
// successfully pushed to the external provider. A soft-deleted row records
// that the external series was removed; the row itself is never reused.
type Series struct {
	ID               int64
	TermID           string
	SectionID        string
	PatternID        string
	SeriesID         string
	Title            string
	Description      string
	RoomID           string
	InstructorUIDs   []string
	CollaboratorUIDs []string
	RecordingType    string
	PublishType      string
	PublishTargetIDs []string
	MeetingDays      string
	StartDate        string
	EndDate          string
	StartTime        string
	EndTime          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// Active reports whether the row still describes a live external series.
func (s *Series) Active() bool {
	return s != nil && s.DeletedAt == nil
}

// HistoryEntry is one append-only audit row: a single field change with its
// terminal status. PatternID is empty for section-scoped changes.
type HistoryEntry struct {
	ID          int64
	TermID      string
	SectionID   string
	PatternID   string
	FieldName   string
	ValueOld    string
	ValueNew    string
	RequestedBy string
	Status      HistoryStatus
	Published   bool
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// NoticeKey deduplicates notifications: a second pass detecting the same
// already-notified transition must not enqueue again.
type NoticeKey struct {
	TermID       string
	SectionID    string
	PatternID    string
	Recipient    string
	TemplateType string
}

// QueuedEmail is one outbox row awaiting delivery by the mailer.
type QueuedEmail struct {
	ID               int64
	TermID           string
	SectionID        string
	TemplateType     string
	RecipientAddress string
	RecipientName    string
	Subject          string
	Body             string
	Status           EmailStatus
	CreatedAt        time.Time
	SentAt           *time.Time
}
