package reconcile

import (
	"testing"
	"time"

	"lectern/internal/desired"
	"lectern/internal/sis"
	"lectern/internal/store"
	"lectern/internal/testsupport"
)

func buildStates(t *testing.T, snapshot *sis.Snapshot) []desired.PatternState {
	t.Helper()
	builder := desired.Builder{OffsetStart: 5, OffsetEnd: -5}
	return builder.Build(snapshot, sis.NewDate(2026, time.January, 1))
}

func observedFrom(state desired.PatternState, id int64) *store.Series {
	row := rowFromState(state, "ext-"+state.PatternID)
	row.ID = id
	return row
}

func TestPlanCreatesEligibleApprovedPattern(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")))
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, nil)
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != KindCreate {
		t.Fatalf("plan = %+v, want one create", plan.Actions)
	}
	if len(plan.Actions[0].Changes) != 1 || plan.Actions[0].Changes[0].Field != "scheduled" {
		t.Fatalf("changes = %+v", plan.Actions[0].Changes)
	}
}

func TestPlanHoldsUnapprovedPattern(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")))
	snapshot.Approvals = nil
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, nil)
	if len(plan.Actions) != 0 {
		t.Fatalf("actions = %+v, want none", plan.Actions)
	}
	if len(plan.Skips) != 1 || plan.Skips[0].Reason != SkipAwaitingApproval {
		t.Fatalf("skips = %+v, want awaiting_approval", plan.Skips)
	}
}

func TestPlanSkipsIneligiblePatternWithoutSeries(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", nil, "MOWEFR")))
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, nil)
	if len(plan.Actions) != 0 {
		t.Fatalf("actions = %+v, want none", plan.Actions)
	}
	if len(plan.Skips) != 1 || plan.Skips[0].Reason != SkipIneligible {
		t.Fatalf("skips = %+v, want ineligible", plan.Skips)
	}
	if plan.Skips[0].Detail != string(desired.ReasonNoRoom) {
		t.Fatalf("detail = %q", plan.Skips[0].Detail)
	}
}

func TestPlanCancelsWhenCourseCanceled(t *testing.T) {
	section := testsupport.Lecture("12345", "ASTRON C10",
		testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR"))
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(), section)
	live := observedFrom(buildStates(t, snapshot)[0], 1)

	section.IsCanceled = true
	snapshot = testsupport.Snapshot(testsupport.SpringTerm(), section)
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, []*store.Series{live})
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != KindCancel {
		t.Fatalf("plan = %+v, want one cancel", plan.Actions)
	}
	if plan.Actions[0].CancelReason != CancelCourseCanceled {
		t.Fatalf("reason = %q", plan.Actions[0].CancelReason)
	}
	change := plan.Actions[0].Changes[0]
	if change.Field != "not_scheduled" || change.New != "—" || change.Old == "" {
		t.Fatalf("change = %+v", change)
	}
}

func TestPlanCancelsWhenRoomLosesEquipment(t *testing.T) {
	room := testsupport.CaptureRoom("room-1")
	section := testsupport.Lecture("12345", "ASTRON C10",
		testsupport.WeekdayPattern("p1", room, "MOWEFR"))
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(), section)
	live := observedFrom(buildStates(t, snapshot)[0], 1)

	room.Capability = sis.CapabilityNone
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, []*store.Series{live})
	if len(plan.Actions) != 1 || plan.Actions[0].CancelReason != CancelRoomIneligible {
		t.Fatalf("plan = %+v, want room-ineligible cancel", plan.Actions)
	}
}

func TestPlanLeavesLiveSeriesWhenApprovalDisappears(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")))
	live := observedFrom(buildStates(t, snapshot)[0], 1)

	snapshot.Approvals = nil
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, []*store.Series{live})
	if len(plan.Actions) != 0 {
		t.Fatalf("actions = %+v, approval loss must not tear down a series", plan.Actions)
	}
	if len(plan.Skips) != 1 || plan.Skips[0].Reason != SkipInSync {
		t.Fatalf("skips = %+v, want in_sync", plan.Skips)
	}
}

func TestPlanReplacesOnRecurrenceChange(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")))
	live := observedFrom(buildStates(t, snapshot)[0], 1)

	// The class moves to Tuesday/Thursday.
	snapshot.Sections[0].MeetingPatterns[0].Days = sis.ParseWeekdays("TUTH")
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, []*store.Series{live})
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != KindReplace {
		t.Fatalf("plan = %+v, want one replace", plan.Actions)
	}
	change := plan.Actions[0].Changes[0]
	if change.Field != "meeting_updated" || change.Old == change.New {
		t.Fatalf("change = %+v", change)
	}
}

func TestPlanUpdatesCollaboratorsInPlace(t *testing.T) {
	section := testsupport.Lecture("12345", "ASTRON C10",
		testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR"))
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(), section)
	live := observedFrom(buildStates(t, snapshot)[0], 1)

	section.Instructors = append(section.Instructors, sis.Instructor{
		UID: "200200", Name: "Sam Okafor", Email: "sokafor@test.example", RoleCode: sis.RoleInstructor,
	})
	snapshot = testsupport.Snapshot(testsupport.SpringTerm(), section)
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, []*store.Series{live})
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != KindUpdate {
		t.Fatalf("plan = %+v, want one update", plan.Actions)
	}
	action := plan.Actions[0]
	if len(action.AddedUIDs) != 1 || action.AddedUIDs[0] != "200200" {
		t.Fatalf("added = %v", action.AddedUIDs)
	}
	if len(action.RemovedUIDs) != 0 {
		t.Fatalf("removed = %v", action.RemovedUIDs)
	}
	// The description names instructors, so the roster change also updates
	// series metadata. The recurrence is untouched either way.
	for _, change := range action.Changes {
		if change.Field == "meeting_updated" {
			t.Fatalf("roster change must not touch recurrence: %+v", action.Changes)
		}
	}
}

func TestPlanUpdatesMetadataOnPrimaryFlip(t *testing.T) {
	pattern := testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")
	a := testsupport.Lecture("11111", "ASTRON C10", pattern)
	b := testsupport.Lecture("22222", "GEOG C55")
	listing := &sis.CrossListing{PrimarySectionID: "11111", SectionIDs: []string{"11111", "22222"}}
	a.CrossListing = listing
	b.CrossListing = listing

	snapshot := testsupport.Snapshot(testsupport.SpringTerm(), a, b)
	live := observedFrom(buildStates(t, snapshot)[0], 1)

	// The other listing becomes primary; title follows, recurrence does not.
	listing.PrimarySectionID = "22222"
	states := buildStates(t, snapshot)

	plan := BuildPlan(states, []*store.Series{live})
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != KindUpdate {
		t.Fatalf("plan = %+v, want one update", plan.Actions)
	}
	foundMetadata := false
	for _, change := range plan.Actions[0].Changes {
		if change.Field == "series_metadata" {
			foundMetadata = true
		}
		if change.Field == "meeting_updated" {
			t.Fatalf("primary flip must not replace the series: %+v", plan.Actions[0].Changes)
		}
	}
	if !foundMetadata {
		t.Fatalf("changes = %+v, want series_metadata", plan.Actions[0].Changes)
	}
}

func TestPlanIsIdempotentWhenObservedMatchesDesired(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")))
	states := buildStates(t, snapshot)
	live := observedFrom(states[0], 1)

	plan := BuildPlan(states, []*store.Series{live})
	if len(plan.Actions) != 0 {
		t.Fatalf("actions = %+v, want none", plan.Actions)
	}
	if len(plan.Skips) != 1 || plan.Skips[0].Reason != SkipInSync {
		t.Fatalf("skips = %+v, want in_sync", plan.Skips)
	}
}

func TestPlanCancelsOrphanRows(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")))
	live := observedFrom(buildStates(t, snapshot)[0], 1)

	// Feed no longer lists the section at all.
	plan := BuildPlan(nil, []*store.Series{live})
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != KindCancel {
		t.Fatalf("plan = %+v, want one cancel", plan.Actions)
	}
	if plan.Actions[0].CancelReason != CancelMeetingRemoved {
		t.Fatalf("reason = %q", plan.Actions[0].CancelReason)
	}
}

func TestPlanFreezesDuplicateObservedRows(t *testing.T) {
	snapshot := testsupport.Snapshot(testsupport.SpringTerm(),
		testsupport.Lecture("12345", "ASTRON C10",
			testsupport.WeekdayPattern("p1", testsupport.CaptureRoom("room-1"), "MOWEFR")))
	states := buildStates(t, snapshot)
	first := observedFrom(states[0], 1)
	second := observedFrom(states[0], 2)

	plan := BuildPlan(states, []*store.Series{first, second})
	if len(plan.Actions) != 0 {
		t.Fatalf("actions = %+v, frozen pattern must not mutate", plan.Actions)
	}
	if len(plan.Skips) != 1 || plan.Skips[0].Reason != SkipFrozen {
		t.Fatalf("skips = %+v, want frozen", plan.Skips)
	}
}

func TestDiffStrings(t *testing.T) {
	added, removed := diffStrings([]string{"a", "b", "c"}, []string{"b", "c", "d", "e"})
	if len(added) != 2 || added[0] != "d" || added[1] != "e" {
		t.Fatalf("added = %v", added)
	}
	if len(removed) != 1 || removed[0] != "a" {
		t.Fatalf("removed = %v", removed)
	}
}
