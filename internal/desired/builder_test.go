package desired

import (
	"testing"
	"time"

	"lectern/internal/sis"
)

func testTerm() sis.Term {
	return sis.Term{
		ID:             "2262",
		Name:           "Spring 2026",
		StartDate:      sis.NewDate(2026, time.January, 5),
		EndDate:        sis.NewDate(2026, time.May, 15),
		RecordingStart: sis.NewDate(2026, time.January, 5),
		RecordingEnd:   sis.NewDate(2026, time.April, 17),
	}
}

func videoRoom() *sis.Room {
	return &sis.Room{
		ID:                "r1",
		Location:          "Dwinelle 155",
		CaptureResourceID: "cap-155",
		Capability:        sis.CapabilityScreencastVideo,
	}
}

func testSection(room *sis.Room) sis.Section {
	return sis.Section{
		TermID:     "2262",
		SectionID:  "12345",
		CourseCode: "ASTRON C10",
		Title:      "INTRODUCTION TO GENERAL ASTRONOMY",
		Instructors: []sis.Instructor{
			{UID: "1001", Name: "Ada Lovelace", Email: "ada@example.edu", RoleCode: sis.RolePrimaryInstructor},
		},
		MeetingPatterns: []sis.MeetingPattern{{
			ID:        "m1",
			Room:      room,
			Days:      sis.ParseWeekdays("MOWEFR"),
			StartTime: sis.NewClockTime(10, 0),
			EndTime:   sis.NewClockTime(11, 0),
			StartDate: sis.NewDate(2026, time.January, 5),
			EndDate:   sis.NewDate(2026, time.April, 17),
		}},
	}
}

func testSnapshot(sections ...sis.Section) *sis.Snapshot {
	return &sis.Snapshot{Term: testTerm(), Sections: sections}
}

var today = sis.NewDate(2026, time.January, 1)

func TestBuildEligiblePattern(t *testing.T) {
	snapshot := testSnapshot(testSection(videoRoom()))
	states := Builder{OffsetStart: 5, OffsetEnd: -5}.Build(snapshot, today)
	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}
	state := states[0]
	if !state.Eligible {
		t.Fatalf("expected eligible, reason=%s", state.Reason)
	}
	if state.RecordingType != RecordingVideo {
		t.Fatalf("room-derived default should be video, got %s", state.RecordingType)
	}
	if state.PublishType != PublishMyMedia {
		t.Fatalf("default publish type should be my_media, got %s", state.PublishType)
	}
	if got := state.Recurrence.StartTime.String(); got != "10:05" {
		t.Fatalf("start time offset not applied: %s", got)
	}
	if state.Title != "ASTRON C10 (Spring 2026)" {
		t.Fatalf("series title: %q", state.Title)
	}
	if state.Description != "Introduction to General Astronomy - Ada Lovelace" {
		t.Fatalf("series description: %q", state.Description)
	}
}

func TestSeriesDescriptionKeepsConnectingWordsLowercase(t *testing.T) {
	section := testSection(videoRoom())
	section.Title = "HISTORY OF THE UNITED STATES"
	states := Builder{}.Build(testSnapshot(section), today)
	want := "History of the United States - Ada Lovelace"
	if states[0].Description != want {
		t.Fatalf("description = %q, want %q", states[0].Description, want)
	}
}

func TestBuildNoRoomIsIneligible(t *testing.T) {
	snapshot := testSnapshot(testSection(nil))
	states := Builder{}.Build(snapshot, today)
	if states[0].Eligible {
		t.Fatal("pattern without a room must be ineligible")
	}
	if states[0].Reason != ReasonNoRoom {
		t.Fatalf("reason: %s", states[0].Reason)
	}
}

func TestBuildCanceledWinsOverOtherReasons(t *testing.T) {
	section := testSection(nil)
	section.IsCanceled = true
	states := Builder{}.Build(testSnapshot(section), today)
	if states[0].Reason != ReasonCanceled {
		t.Fatalf("cancellation should take priority, got %s", states[0].Reason)
	}
}

func TestBuildFullyOptedOut(t *testing.T) {
	snapshot := testSnapshot(testSection(videoRoom()))
	snapshot.OptOuts = []sis.OptOut{{InstructorUID: "1001", TermID: "2262"}}
	states := Builder{}.Build(snapshot, today)
	if states[0].Eligible || states[0].Reason != ReasonOptedOut {
		t.Fatalf("expected opted_out, got eligible=%v reason=%s", states[0].Eligible, states[0].Reason)
	}
}

func TestBuildBlanketOptOutCoversEveryTerm(t *testing.T) {
	snapshot := testSnapshot(testSection(videoRoom()))
	snapshot.OptOuts = []sis.OptOut{{InstructorUID: "1001"}}
	states := Builder{}.Build(snapshot, today)
	if states[0].Reason != ReasonOptedOut {
		t.Fatalf("blanket opt-out should apply, got %s", states[0].Reason)
	}
}

func TestBuildCollaboratorsMergeAndRemove(t *testing.T) {
	section := testSection(videoRoom())
	section.Instructors = append(section.Instructors,
		sis.Instructor{UID: "2002", Name: "Proxy Person", RoleCode: sis.RoleProxy},
	)
	snapshot := testSnapshot(section)
	snapshot.Preferences = []sis.Preference{{
		SectionID:        "12345",
		CollaboratorUIDs: []string{"3003"},
		RemovedUIDs:      []string{"2002"},
	}}
	states := Builder{}.Build(snapshot, today)
	got := states[0].CollaboratorUIDs
	want := []string{"1001", "3003"}
	if len(got) != len(want) {
		t.Fatalf("collaborators: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("collaborators: got %v want %v", got, want)
		}
	}
}

func TestBuildOperatorDowngradeOutsideAuditorium(t *testing.T) {
	section := testSection(videoRoom()) // not an auditorium
	snapshot := testSnapshot(section)
	snapshot.Preferences = []sis.Preference{{
		SectionID:     "12345",
		RecordingType: string(RecordingVideoOperator),
	}}
	states := Builder{}.Build(snapshot, today)
	if states[0].RecordingType != RecordingVideo {
		t.Fatalf("operator type must downgrade outside auditoriums, got %s", states[0].RecordingType)
	}
}

func TestBuildOperatorKeptInAuditorium(t *testing.T) {
	room := videoRoom()
	room.IsAuditorium = true
	snapshot := testSnapshot(testSection(room))
	snapshot.Preferences = []sis.Preference{{
		SectionID:     "12345",
		RecordingType: string(RecordingVideoOperator),
	}}
	states := Builder{}.Build(snapshot, today)
	if states[0].RecordingType != RecordingVideoOperator {
		t.Fatalf("operator type should survive in auditorium, got %s", states[0].RecordingType)
	}
}

func TestBuildMyMediaDropsTargets(t *testing.T) {
	snapshot := testSnapshot(testSection(videoRoom()))
	snapshot.Preferences = []sis.Preference{{
		SectionID:        "12345",
		PublishType:      string(PublishMyMedia),
		PublishTargetIDs: []string{"site-1"},
	}}
	states := Builder{}.Build(snapshot, today)
	if len(states[0].PublishTargetIDs) != 0 {
		t.Fatalf("my_media must not carry targets: %v", states[0].PublishTargetIDs)
	}
}

func TestBuildCrossListingUsesPrimaryTitle(t *testing.T) {
	primary := testSection(videoRoom())
	secondary := testSection(videoRoom())
	secondary.SectionID = "67890"
	secondary.CourseCode = "LS C70"
	listing := &sis.CrossListing{PrimarySectionID: "12345", SectionIDs: []string{"12345", "67890"}}
	primary.CrossListing = listing
	secondary.CrossListing = listing

	snapshot := testSnapshot(primary, secondary)
	states := Builder{}.Build(snapshot, today)
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d", len(states))
	}
	for _, state := range states {
		if state.Title != "ASTRON C10 (Spring 2026)" {
			t.Fatalf("cross-listed section %s should use primary title, got %q", state.SectionID, state.Title)
		}
	}
}

func TestApprovalPolicies(t *testing.T) {
	section := testSection(videoRoom())
	instructorApproval := []sis.Approval{{SectionID: "12345", ApprovedBy: "1001"}}
	adminApproval := []sis.Approval{{SectionID: "12345", ApprovedBy: "9000", IsAdmin: true}}
	strangerApproval := []sis.Approval{{SectionID: "12345", ApprovedBy: "nobody"}}

	if !AnyApproval(section, instructorApproval) {
		t.Fatal("any: instructor approval should satisfy")
	}
	if !AnyApproval(section, adminApproval) {
		t.Fatal("any: admin approval should satisfy")
	}
	if AnyApproval(section, strangerApproval) {
		t.Fatal("any: unrelated approval must not satisfy")
	}
	if AdminOnly(section, instructorApproval) {
		t.Fatal("admin: instructor approval must not satisfy")
	}
	if !AdminOnly(section, adminApproval) {
		t.Fatal("admin: admin approval should satisfy")
	}
}

func TestPolicyByName(t *testing.T) {
	if _, err := PolicyByName("any"); err != nil {
		t.Fatalf("any: %v", err)
	}
	if _, err := PolicyByName("admin"); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if _, err := PolicyByName("nope"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}
