package sis

import (
	"time"
)

// Term describes one academic period, including the window within which
// recordings may be scheduled and the blackout calendar.
type Term struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	StartDate      Date        `json:"startDate"`
	EndDate        Date        `json:"endDate"`
	RecordingStart Date        `json:"recordingStart"`
	RecordingEnd   Date        `json:"recordingEnd"`
	Blackouts      []DateRange `json:"blackouts"`
}

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	Name  string `json:"name,omitempty"`
	Start Date   `json:"start"`
	End   Date   `json:"end"`
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Room is a physical location with a capture capability rating.
type Room struct {
	ID                string         `json:"id"`
	Location          string         `json:"location"`
	CaptureResourceID string         `json:"captureResourceId"`
	Capability        RoomCapability `json:"capability"`
	IsAuditorium      bool           `json:"isAuditorium"`
}

// RoomCapability enumerates what a room's installed equipment can record.
type RoomCapability string

const (
	CapabilityNone            RoomCapability = ""
	CapabilityScreencast      RoomCapability = "screencast"
	CapabilityScreencastVideo RoomCapability = "screencast_and_video"
)

// Recordable reports whether the room has any capture equipment at all.
func (c RoomCapability) Recordable() bool {
	return c == CapabilityScreencast || c == CapabilityScreencastVideo
}

// Instructor role codes carried by the SIS feed. Only authorized codes grant
// scheduling rights; APRX marks a proxy who may be granted collaborator
// access by an instructor.
const (
	RoleInstructor        = "ICNT"
	RolePrimaryInstructor = "PI"
	RoleTeachingNonCredit = "TNIC"
	RoleProxy             = "APRX"
)

// AuthorizedRoleCodes lists the role codes treated as instructors of record.
var AuthorizedRoleCodes = []string{RoleInstructor, RolePrimaryInstructor, RoleTeachingNonCredit}

// Instructor is a person attached to a section with a role code.
type Instructor struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	RoleCode string `json:"roleCode"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// Authorized reports whether the instructor's role code grants scheduling rights.
func (i Instructor) Authorized() bool {
	if i.Deleted {
		return false
	}
	for _, code := range AuthorizedRoleCodes {
		if i.RoleCode == code {
			return true
		}
	}
	return false
}

// MeetingPattern is one weekly recurrence within a section. A nil Room or an
// unparsable time leaves the pattern valid as data but ineligible for
// recording.
type MeetingPattern struct {
	ID        string     `json:"id"`
	Room      *Room      `json:"room"`
	Days      WeekdaySet `json:"days"`
	StartTime ClockTime  `json:"startTime"`
	EndTime   ClockTime  `json:"endTime"`
	StartDate Date       `json:"startDate"`
	EndDate   Date       `json:"endDate"`
}

// HasSchedule reports whether the pattern carries a complete weekly schedule.
func (m MeetingPattern) HasSchedule() bool {
	return !m.Days.Empty() && m.StartTime.Valid() && m.EndTime.Valid() &&
		!m.StartDate.IsZero() && !m.EndDate.IsZero()
}

// CrossListing points the members of a cross-listing group at the section
// currently flagged primary. The primary section owns the shared series
// title and description.
type CrossListing struct {
	PrimarySectionID string   `json:"primarySectionId"`
	SectionIDs       []string `json:"sectionIds"`
}

// Section is a course offering for a term.
type Section struct {
	TermID          string           `json:"termId"`
	SectionID       string           `json:"sectionId"`
	CourseCode      string           `json:"courseCode"`
	Title           string           `json:"title"`
	IsCanceled      bool             `json:"isCanceled"`
	Instructors     []Instructor     `json:"instructors"`
	MeetingPatterns []MeetingPattern `json:"meetingPatterns"`
	CrossListing    *CrossListing    `json:"crossListing,omitempty"`
}

// AuthorizedInstructors returns instructors of record, skipping deleted rows.
func (s Section) AuthorizedInstructors() []Instructor {
	out := make([]Instructor, 0, len(s.Instructors))
	for _, instructor := range s.Instructors {
		if instructor.Authorized() {
			out = append(out, instructor)
		}
	}
	return out
}

// Proxies returns instructors carrying the proxy role code.
func (s Section) Proxies() []Instructor {
	out := make([]Instructor, 0, 2)
	for _, instructor := range s.Instructors {
		if !instructor.Deleted && instructor.RoleCode == RoleProxy {
			out = append(out, instructor)
		}
	}
	return out
}

// OptOut excludes an instructor's sections from scheduling. A blank
// SectionID covers the whole term; a blank TermID as well covers all terms.
type OptOut struct {
	InstructorUID string `json:"instructorUid"`
	TermID        string `json:"termId,omitempty"`
	SectionID     string `json:"sectionId,omitempty"`
}

// Approval is an affirmative scheduling decision recorded for a section.
type Approval struct {
	SectionID  string    `json:"sectionId"`
	ApprovedBy string    `json:"approvedBy"`
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Preference captures instructor or admin choices for a section's
// recordings. Zero values fall back to room-derived defaults.
type Preference struct {
	SectionID        string   `json:"sectionId"`
	RecordingType    string   `json:"recordingType,omitempty"`
	PublishType      string   `json:"publishType,omitempty"`
	PublishTargetIDs []string `json:"publishTargetIds,omitempty"`
	CollaboratorUIDs []string `json:"collaboratorUids,omitempty"`
	RemovedUIDs      []string `json:"removedUids,omitempty"`
	RequestedBy      string   `json:"requestedBy,omitempty"`
}
