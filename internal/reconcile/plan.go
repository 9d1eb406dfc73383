package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"lectern/internal/desired"
	"lectern/internal/store"
)

// Kind classifies the external mutation an action performs.
type Kind string

const (
	KindCreate  Kind = "create"
	KindReplace Kind = "replace"
	KindUpdate  Kind = "update"
	KindCancel  Kind = "cancel"
)

// CancelReason explains why a live series is being removed.
type CancelReason string

const (
	CancelCourseCanceled CancelReason = "course_canceled"
	CancelOptedOut       CancelReason = "opted_out"
	CancelRoomIneligible CancelReason = "room_ineligible"
	CancelMeetingRemoved CancelReason = "meeting_removed"
)

// FieldChange is one observable difference between desired and observed
// state, recorded verbatim in the history ledger.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Action is one planned mutation for a meeting pattern.
type Action struct {
	Kind     Kind
	State    desired.PatternState
	Observed *store.Series

	CancelReason CancelReason
	Changes      []FieldChange

	// Collaborator roster movement, for instructor notifications.
	AddedUIDs   []string
	RemovedUIDs []string
}

// SkipReason classifies why a pattern produced no action.
type SkipReason string

const (
	SkipInSync           SkipReason = "in_sync"
	SkipIneligible       SkipReason = "ineligible"
	SkipAwaitingApproval SkipReason = "awaiting_approval"
	SkipFrozen           SkipReason = "frozen"
)

// Skip is a pattern the pass leaves untouched, with the reason.
type Skip struct {
	State  desired.PatternState
	Reason SkipReason
	Detail string
}

// Plan is the full diff for one pass: the mutations to apply and the
// patterns left alone. Building a plan reads nothing and writes nothing.
type Plan struct {
	Actions []Action
	Skips   []Skip
}

type patternKey struct {
	termID    string
	sectionID string
	patternID string
}

// BuildPlan diffs desired pattern states against the observed series rows.
// Observed rows with no desired counterpart become cancels; patterns whose
// observed state is ambiguous (duplicate live rows) are frozen.
func BuildPlan(states []desired.PatternState, observed []*store.Series) Plan {
	index := make(map[patternKey][]*store.Series, len(observed))
	for _, row := range observed {
		key := patternKey{row.TermID, row.SectionID, row.PatternID}
		index[key] = append(index[key], row)
	}

	var plan Plan
	claimed := make(map[patternKey]bool, len(states))
	for _, state := range states {
		key := patternKey{state.TermID, state.SectionID, state.PatternID}
		claimed[key] = true
		rows := index[key]

		if len(rows) > 1 {
			plan.Skips = append(plan.Skips, Skip{
				State:  state,
				Reason: SkipFrozen,
				Detail: fmt.Sprintf("%d live series rows for one pattern", len(rows)),
			})
			continue
		}

		var row *store.Series
		if len(rows) == 1 {
			row = rows[0]
		}
		plan.add(planPattern(state, row))
	}

	// Anything still observed but no longer in the feed gets torn down.
	orphanKeys := make([]patternKey, 0)
	for key, rows := range index {
		if !claimed[key] && len(rows) == 1 {
			orphanKeys = append(orphanKeys, key)
		}
	}
	sort.Slice(orphanKeys, func(i, j int) bool {
		a, b := orphanKeys[i], orphanKeys[j]
		if a.sectionID != b.sectionID {
			return a.sectionID < b.sectionID
		}
		return a.patternID < b.patternID
	})
	for _, key := range orphanKeys {
		row := index[key][0]
		plan.Actions = append(plan.Actions, Action{
			Kind: KindCancel,
			State: desired.PatternState{
				TermID:    row.TermID,
				SectionID: row.SectionID,
				PatternID: row.PatternID,
			},
			Observed:     row,
			CancelReason: CancelMeetingRemoved,
			Changes:      []FieldChange{notScheduledChange(row)},
		})
	}

	return plan
}

func (p *Plan) add(action *Action, skip *Skip) {
	if action != nil {
		p.Actions = append(p.Actions, *action)
	}
	if skip != nil {
		p.Skips = append(p.Skips, *skip)
	}
}

func planPattern(state desired.PatternState, row *store.Series) (*Action, *Skip) {
	if row == nil {
		switch {
		case !state.Eligible:
			return nil, &Skip{State: state, Reason: SkipIneligible, Detail: string(state.Reason)}
		case !state.ApprovalMet:
			return nil, &Skip{State: state, Reason: SkipAwaitingApproval}
		default:
			return &Action{
				Kind:  KindCreate,
				State: state,
				Changes: []FieldChange{{
					Field: "scheduled",
					New:   recurrenceSummary(state),
				}},
			}, nil
		}
	}

	// A live series persists through approval loss; only eligibility loss
	// tears it down.
	if !state.Eligible {
		reason := cancelReasonFor(state.Reason)
		return &Action{
			Kind:         KindCancel,
			State:        state,
			Observed:     row,
			CancelReason: reason,
			Changes:      []FieldChange{notScheduledChange(row)},
		}, nil
	}

	if !recurrenceMatches(state, row) {
		return &Action{
			Kind:     KindReplace,
			State:    state,
			Observed: row,
			Changes: []FieldChange{{
				Field: "meeting_updated",
				Old:   recurrenceSummaryFromRow(row),
				New:   recurrenceSummary(state),
			}},
		}, nil
	}

	action := Action{Kind: KindUpdate, State: state, Observed: row}
	action.AddedUIDs, action.RemovedUIDs = diffStrings(row.CollaboratorUIDs, state.CollaboratorUIDs)
	if len(action.AddedUIDs) > 0 || len(action.RemovedUIDs) > 0 {
		action.Changes = append(action.Changes, FieldChange{
			Field: "collaborator_uids",
			Old:   strings.Join(row.CollaboratorUIDs, ","),
			New:   strings.Join(state.CollaboratorUIDs, ","),
		})
	}
	if row.RecordingType != string(state.RecordingType) {
		action.Changes = append(action.Changes, FieldChange{
			Field: "recording_type",
			Old:   row.RecordingType,
			New:   string(state.RecordingType),
		})
	}
	if row.PublishType != string(state.PublishType) || !equalStrings(row.PublishTargetIDs, state.PublishTargetIDs) {
		action.Changes = append(action.Changes, FieldChange{
			Field: "publish_settings",
			Old:   publishSummary(row.PublishType, row.PublishTargetIDs),
			New:   publishSummary(string(state.PublishType), state.PublishTargetIDs),
		})
	}
	// Cross-listing primary flips land here: the shared title and
	// description follow the new primary without touching the recurrence.
	if row.Title != state.Title || row.Description != state.Description {
		action.Changes = append(action.Changes, FieldChange{
			Field: "series_metadata",
			Old:   row.Title,
			New:   state.Title,
		})
	}

	if len(action.Changes) == 0 {
		return nil, &Skip{State: state, Reason: SkipInSync}
	}
	return &action, nil
}

// notScheduledChange is the audit entry for any transition back to
// unscheduled. The em dash marks "no schedule" in the user-visible ledger.
func notScheduledChange(row *store.Series) FieldChange {
	return FieldChange{
		Field: "not_scheduled",
		Old:   recurrenceSummaryFromRow(row),
		New:   "—",
	}
}

func cancelReasonFor(reason desired.Reason) CancelReason {
	switch reason {
	case desired.ReasonCanceled:
		return CancelCourseCanceled
	case desired.ReasonOptedOut:
		return CancelOptedOut
	default:
		return CancelRoomIneligible
	}
}

func recurrenceMatches(state desired.PatternState, row *store.Series) bool {
	r := state.Recurrence
	return row.MeetingDays == r.Days.String() &&
		row.StartDate == r.StartDate.String() &&
		row.EndDate == r.EndDate.String() &&
		row.StartTime == r.StartTime.String() &&
		row.EndTime == r.EndTime.String()
}

func recurrenceSummary(state desired.PatternState) string {
	r := state.Recurrence
	return fmt.Sprintf("%s %s-%s %s..%s",
		r.Days.String(), r.StartTime.String(), r.EndTime.String(),
		r.StartDate.String(), r.EndDate.String())
}

func recurrenceSummaryFromRow(row *store.Series) string {
	return fmt.Sprintf("%s %s-%s %s..%s",
		row.MeetingDays, row.StartTime, row.EndTime, row.StartDate, row.EndDate)
}

func publishSummary(publishType string, targets []string) string {
	if len(targets) == 0 {
		return publishType
	}
	return publishType + ":" + strings.Join(targets, ",")
}

func diffStrings(before, after []string) (added, removed []string) {
	have := make(map[string]bool, len(before))
	for _, v := range before {
		have[v] = true
	}
	want := make(map[string]bool, len(after))
	for _, v := range after {
		want[v] = true
		if !have[v] {
			added = append(added, v)
		}
	}
	for _, v := range before {
		if !want[v] {
			removed = append(removed, v)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
