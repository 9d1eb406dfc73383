package desired

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lectern/internal/calendar"
	"lectern/internal/sis"
)

// Reason explains why a pattern is ineligible for recording.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonCanceled        Reason = "course_canceled"
	ReasonOptedOut        Reason = "opted_out"
	ReasonNoRoom          Reason = "room_not_eligible"
	ReasonRoomNotCapable  Reason = "room_not_capable"
	ReasonInvalidSchedule Reason = "invalid_schedule"
	ReasonNoDates         Reason = "no_recordable_dates"
)

// Recurrence is the concrete shape pushed to the provider for one pattern:
// weekday set, recording-date bounds, and offset-adjusted clock times.
type Recurrence struct {
	Days      sis.WeekdaySet
	StartDate sis.Date
	EndDate   sis.Date
	StartTime sis.ClockTime
	EndTime   sis.ClockTime
	Dates     calendar.Dates
}

// Equal compares the recurrence fields the provider cannot edit in place.
// A difference here forces delete-then-create of the external series.
func (r Recurrence) Equal(other Recurrence) bool {
	return r.Days.Equal(other.Days) &&
		r.StartDate.Equal(other.StartDate) &&
		r.EndDate.Equal(other.EndDate) &&
		r.StartTime == other.StartTime &&
		r.EndTime == other.EndTime
}

// PatternState is the canonical description of what should exist externally
// for one (section, meeting pattern) pair.
type PatternState struct {
	TermID    string
	SectionID string
	PatternID string

	Eligible    bool
	Reason      Reason
	ApprovalMet bool

	Title       string
	Description string

	RoomID            string
	CaptureResourceID string
	IsAuditorium      bool

	InstructorUIDs   []string
	CollaboratorUIDs []string
	Instructors      []sis.Instructor

	RecordingType    RecordingType
	PublishType      PublishType
	PublishTargetIDs []string

	Recurrence Recurrence

	RequestedBy string
}

// Builder derives desired pattern states from a feed snapshot. It performs
// no I/O and mutates nothing.
type Builder struct {
	Policy      ApprovalPolicy
	OffsetStart int
	OffsetEnd   int
}

// Build produces one PatternState per (section, meeting pattern) in the
// snapshot, in feed order. Malformed records degrade to ineligible states.
func (b Builder) Build(snapshot *sis.Snapshot, today sis.Date) []PatternState {
	policy := b.Policy
	if policy == nil {
		policy = AnyApproval
	}

	var out []PatternState
	for _, section := range snapshot.Sections {
		pref, _ := snapshot.PreferenceFor(section.SectionID)
		approvalMet := policy(section, snapshot.ApprovalsFor(section.SectionID))
		primary := snapshot.ResolvePrimary(section)

		for _, pattern := range section.MeetingPatterns {
			state := b.buildPattern(snapshot, section, primary, pattern, pref, today)
			state.ApprovalMet = approvalMet
			out = append(out, state)
		}
	}
	return out
}

func (b Builder) buildPattern(
	snapshot *sis.Snapshot,
	section sis.Section,
	primary sis.Section,
	pattern sis.MeetingPattern,
	pref sis.Preference,
	today sis.Date,
) PatternState {
	state := PatternState{
		TermID:      section.TermID,
		SectionID:   section.SectionID,
		PatternID:   pattern.ID,
		Title:       SeriesTitle(primary, snapshot.Term),
		Description: SeriesDescription(primary),
		RequestedBy: pref.RequestedBy,
		Instructors: section.AuthorizedInstructors(),
	}

	state.InstructorUIDs = instructorUIDs(state.Instructors)
	state.CollaboratorUIDs = collaboratorUIDs(section, pref)

	if pattern.Room != nil {
		state.RoomID = pattern.Room.ID
		state.CaptureResourceID = pattern.Room.CaptureResourceID
		state.IsAuditorium = pattern.Room.IsAuditorium
	}

	state.RecordingType = chooseRecordingType(pattern.Room, pref)
	state.PublishType = choosePublishType(pref)
	state.PublishTargetIDs = sortedCopy(state.PublishType.Targets(pref.PublishTargetIDs))

	dates := calendar.Recordable(pattern, snapshot.Term, today)
	startTime, endTime := calendar.AdjustTimes(pattern.StartTime, pattern.EndTime, b.OffsetStart, b.OffsetEnd)
	first, last, hasDates := dates.Bounds()
	state.Recurrence = Recurrence{
		Days:      pattern.Days,
		StartDate: first,
		EndDate:   last,
		StartTime: startTime,
		EndTime:   endTime,
		Dates:     dates,
	}

	switch {
	case section.IsCanceled:
		state.Reason = ReasonCanceled
	case snapshot.FullyOptedOut(section):
		state.Reason = ReasonOptedOut
	case pattern.Room == nil:
		state.Reason = ReasonNoRoom
	case !pattern.Room.Capability.Recordable():
		state.Reason = ReasonRoomNotCapable
	case !pattern.HasSchedule():
		state.Reason = ReasonInvalidSchedule
	case !hasDates:
		state.Reason = ReasonNoDates
	default:
		state.Eligible = true
	}

	return state
}

func chooseRecordingType(room *sis.Room, pref sis.Preference) RecordingType {
	chosen := RecordingType(pref.RecordingType)
	if !chosen.Known() {
		chosen = DefaultRecordingType(room)
	}
	// A preference the room can no longer satisfy downgrades automatically.
	return chosen.DowngradeFor(room)
}

func choosePublishType(pref sis.Preference) PublishType {
	chosen := PublishType(pref.PublishType)
	if !chosen.Known() {
		return DefaultPublishType
	}
	return chosen
}

func instructorUIDs(instructors []sis.Instructor) []string {
	uids := make([]string, 0, len(instructors))
	for _, instructor := range instructors {
		uids = append(uids, instructor.UID)
	}
	sort.Strings(uids)
	return uids
}

// collaboratorUIDs merges instructors of record, proxies, and manually added
// collaborators, then removes anyone explicitly removed since the last pass.
func collaboratorUIDs(section sis.Section, pref sis.Preference) []string {
	merged := make(map[string]struct{})
	for _, instructor := range section.AuthorizedInstructors() {
		merged[instructor.UID] = struct{}{}
	}
	for _, proxy := range section.Proxies() {
		merged[proxy.UID] = struct{}{}
	}
	for _, uid := range pref.CollaboratorUIDs {
		merged[uid] = struct{}{}
	}
	for _, uid := range pref.RemovedUIDs {
		delete(merged, uid)
	}

	uids := make([]string, 0, len(merged))
	for uid := range merged {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

var titleCaser = cases.Title(language.AmericanEnglish)

// Short connecting words stay lowercase unless they open the title.
var lowercaseTitleWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "for": true, "in": true, "nor": true, "of": true, "on": true,
	"or": true, "per": true, "the": true, "to": true, "via": true, "with": true,
}

func normalizeTitle(raw string) string {
	words := strings.Fields(titleCaser.String(strings.ToLower(raw)))
	for i, word := range words {
		if i == 0 {
			continue
		}
		if lower := strings.ToLower(word); lowercaseTitleWords[lower] {
			words[i] = lower
		}
	}
	return strings.Join(words, " ")
}

// SeriesTitle names the external series from the primary listing's course
// code and the term, e.g. "ASTRON C10, LEC 001 (Spring 2026)".
func SeriesTitle(primary sis.Section, term sis.Term) string {
	code := strings.TrimSpace(primary.CourseCode)
	if code == "" {
		code = primary.SectionID
	}
	if term.Name == "" {
		return code
	}
	return code + " (" + term.Name + ")"
}

// SeriesDescription renders the human-readable description shown alongside
// recordings.
func SeriesDescription(primary sis.Section) string {
	title := strings.TrimSpace(primary.Title)
	if title == "" {
		return ""
	}
	// Course feeds shout in uppercase; normalize for display.
	if title == strings.ToUpper(title) {
		title = normalizeTitle(title)
	}
	names := make([]string, 0, len(primary.Instructors))
	for _, instructor := range primary.AuthorizedInstructors() {
		names = append(names, instructor.Name)
	}
	if len(names) == 0 {
		return title
	}
	return title + " - " + strings.Join(names, ", ")
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
