package testsupport

import (
	"time"

	"lectern/internal/sis"
)

// SpringTerm returns the standard fixture term: Spring 2026, recording
// window Jan 5 through Apr 17, spring recess Mar 23 through Mar 26.
func SpringTerm() sis.Term {
	return sis.Term{
		ID:             "2262",
		Name:           "Spring 2026",
		StartDate:      sis.NewDate(2026, time.January, 5),
		EndDate:        sis.NewDate(2026, time.May, 15),
		RecordingStart: sis.NewDate(2026, time.January, 5),
		RecordingEnd:   sis.NewDate(2026, time.April, 17),
		Blackouts: []sis.DateRange{
			{
				Name:  "Spring Recess",
				Start: sis.NewDate(2026, time.March, 23),
				End:   sis.NewDate(2026, time.March, 26),
			},
		},
	}
}

// CaptureRoom returns an eligible non-auditorium room.
func CaptureRoom(id string) *sis.Room {
	return &sis.Room{
		ID:                id,
		Location:          "Barker 101",
		CaptureResourceID: "resource-" + id,
		Capability:        sis.CapabilityScreencastVideo,
		IsAuditorium:      false,
	}
}

// Auditorium returns an eligible auditorium room.
func Auditorium(id string) *sis.Room {
	room := CaptureRoom(id)
	room.Location = "Wheeler Auditorium"
	room.IsAuditorium = true
	return room
}

// WeekdayPattern builds a meeting pattern in the given room across the
// term's recording window.
func WeekdayPattern(id string, room *sis.Room, days string) sis.MeetingPattern {
	start, _ := sis.ParseClockTime("10:00")
	end, _ := sis.ParseClockTime("10:59")
	return sis.MeetingPattern{
		ID:        id,
		Room:      room,
		Days:      sis.ParseWeekdays(days),
		StartTime: start,
		EndTime:   end,
		StartDate: sis.NewDate(2026, time.January, 5),
		EndDate:   sis.NewDate(2026, time.April, 17),
	}
}

// Lecture builds a section with one instructor of record and the given
// meeting patterns.
func Lecture(sectionID, courseCode string, patterns ...sis.MeetingPattern) sis.Section {
	return sis.Section{
		TermID:     "2262",
		SectionID:  sectionID,
		CourseCode: courseCode,
		Title:      "INTRODUCTION TO GENERAL ASTRONOMY",
		Instructors: []sis.Instructor{
			{UID: "100100", Name: "Alex Vega", Email: "avega@test.example", RoleCode: sis.RolePrimaryInstructor},
		},
		MeetingPatterns: patterns,
	}
}

// Snapshot wraps sections into a loaded feed snapshot with one instructor
// approval per section, enough to pass the default approval policy.
func Snapshot(term sis.Term, sections ...sis.Section) *sis.Snapshot {
	snapshot := &sis.Snapshot{
		Term:     term,
		Sections: sections,
	}
	for _, section := range sections {
		for _, instructor := range section.AuthorizedInstructors() {
			snapshot.Approvals = append(snapshot.Approvals, sis.Approval{
				SectionID:  section.SectionID,
				ApprovedBy: instructor.UID,
				CreatedAt:  time.Date(2026, time.January, 2, 12, 0, 0, 0, time.UTC),
			})
			break
		}
	}
	return snapshot
}
