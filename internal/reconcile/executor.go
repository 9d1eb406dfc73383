package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"lectern/internal/desired"
	"lectern/internal/logging"
	"lectern/internal/notify"
	"lectern/internal/services"
	"lectern/internal/services/capture"
	"lectern/internal/sis"
	"lectern/internal/store"
)

// Stats counts what a pass did.
type Stats struct {
	Created  int
	Replaced int
	Updated  int
	Canceled int
	Skipped  int
	Frozen   int
	Failed   int
}

// Executor applies a plan: for every action it calls the provider first and
// persists the observed-state row only after the call succeeds. One failing
// pattern never blocks the rest of the plan.
type Executor struct {
	Store    *store.Store
	Provider capture.Provider
	Notify   *notify.Service
	Logger   *slog.Logger
}

// Execute runs the plan against the provider. The snapshot supplies
// recipient rosters for patterns whose sections are no longer in the feed.
func (e *Executor) Execute(ctx context.Context, snapshot *sis.Snapshot, plan Plan) (Stats, []error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var stats Stats
	var failures []error
	mutatedPatterns := make(map[string][]string)

	for _, skip := range plan.Skips {
		if skip.Reason == SkipFrozen {
			stats.Frozen++
			logger.ErrorContext(ctx, "pattern frozen, observed state is ambiguous",
				logging.String(logging.FieldSectionID, skip.State.SectionID),
				logging.String(logging.FieldPatternID, skip.State.PatternID),
				logging.String("detail", skip.Detail),
			)
			e.enqueue(ctx, logger, notify.Event{
				Type:      notify.TypeAdminAlert,
				TermID:    skip.State.TermID,
				SectionID: skip.State.SectionID,
				PatternID: skip.State.PatternID,
				Data: map[string]string{
					"course":  skip.State.Title,
					"summary": skip.Detail,
				},
			})
			continue
		}
		stats.Skipped++
	}

	for _, action := range plan.Actions {
		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}
		err := e.apply(ctx, logger, snapshot, action, &stats)
		if err != nil {
			stats.Failed++
			failures = append(failures, err)
			logger.ErrorContext(ctx, "action failed",
				logging.String(logging.FieldAction, string(action.Kind)),
				logging.String(logging.FieldSectionID, action.State.SectionID),
				logging.String(logging.FieldPatternID, action.State.PatternID),
				logging.Bool("retryable", services.Retryable(err)),
				logging.Error(err),
			)
			continue
		}
		if action.Kind != KindCancel {
			key := action.State.SectionID
			mutatedPatterns[key] = append(mutatedPatterns[key], action.State.PatternID)
		}
	}

	e.flagMultiPatternSections(ctx, logger, snapshot, mutatedPatterns)
	return stats, failures
}

func (e *Executor) apply(ctx context.Context, logger *slog.Logger, snapshot *sis.Snapshot, action Action, stats *Stats) error {
	entries, err := e.appendHistory(ctx, action)
	if err != nil {
		return err
	}

	var applyErr error
	switch action.Kind {
	case KindCreate:
		applyErr = e.applyCreate(ctx, action)
		if applyErr == nil {
			stats.Created++
		}
	case KindReplace:
		applyErr = e.applyReplace(ctx, action)
		if applyErr == nil {
			stats.Replaced++
		}
	case KindUpdate:
		applyErr = e.applyUpdate(ctx, action)
		if applyErr == nil {
			stats.Updated++
		}
	case KindCancel:
		applyErr = e.applyCancel(ctx, action)
		if applyErr == nil {
			stats.Canceled++
		}
	default:
		applyErr = services.Wrap(services.ErrInvariant, "reconcile", "apply",
			"unknown action kind "+string(action.Kind), nil)
	}

	status := store.StatusSucceeded
	if applyErr != nil {
		status = store.StatusFailed
	}
	for _, entry := range entries {
		if err := e.Store.ResolveHistory(ctx, entry.ID, status); err != nil {
			logger.WarnContext(ctx, "resolve history entry failed",
				logging.Int64("entry", entry.ID), logging.Error(err))
		}
	}
	if applyErr != nil {
		return applyErr
	}

	e.notifyAction(ctx, logger, snapshot, action)
	return nil
}

func (e *Executor) appendHistory(ctx context.Context, action Action) ([]*store.HistoryEntry, error) {
	entries := make([]*store.HistoryEntry, 0, len(action.Changes))
	for _, change := range action.Changes {
		entry, err := e.Store.AppendHistory(ctx, &store.HistoryEntry{
			TermID:      action.State.TermID,
			SectionID:   action.State.SectionID,
			PatternID:   action.State.PatternID,
			FieldName:   change.Field,
			ValueOld:    change.Old,
			ValueNew:    change.New,
			RequestedBy: requestedByFor(action, change),
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// requestedByFor attributes preference-driven changes to the requester and
// leaves schedule-driven changes unattributed (system).
func requestedByFor(action Action, change FieldChange) string {
	switch change.Field {
	case "collaborator_uids", "recording_type", "publish_settings":
		return action.State.RequestedBy
	default:
		return ""
	}
}

func (e *Executor) applyCreate(ctx context.Context, action Action) error {
	seriesID, err := e.Provider.CreateSeries(ctx, specFromState(action.State))
	if err != nil {
		return err
	}
	_, err = e.Store.CreateSeries(ctx, rowFromState(action.State, seriesID))
	if err != nil {
		return services.Wrap(services.ErrInvariant, "reconcile", "persist create",
			"series "+seriesID+" exists externally but was not recorded", err)
	}
	return nil
}

// applyReplace deletes the live series and creates its successor, then
// rewrites the same observed row with the new series id. Delete before
// create keeps the resource free for the replacement booking.
func (e *Executor) applyReplace(ctx context.Context, action Action) error {
	if err := e.Provider.DeleteSeries(ctx, action.Observed.SeriesID); err != nil {
		return err
	}
	seriesID, err := e.Provider.CreateSeries(ctx, specFromState(action.State))
	if err != nil {
		// The old series is gone and the new one failed. Persist the
		// deletion so the next pass retries as a plain create.
		if deleteErr := e.Store.SoftDeleteSeries(ctx, action.Observed.ID); deleteErr != nil {
			return services.Wrap(services.ErrInvariant, "reconcile", "persist replace",
				"external series deleted but row not marked", deleteErr)
		}
		return err
	}

	row := rowFromState(action.State, seriesID)
	row.ID = action.Observed.ID
	if err := e.Store.UpdateSeries(ctx, row); err != nil {
		return services.Wrap(services.ErrInvariant, "reconcile", "persist replace",
			"series "+seriesID+" exists externally but was not recorded", err)
	}
	return nil
}

func (e *Executor) applyUpdate(ctx context.Context, action Action) error {
	seriesID := action.Observed.SeriesID
	for _, change := range action.Changes {
		var err error
		switch change.Field {
		case "collaborator_uids":
			err = e.Provider.UpdateCollaborators(ctx, seriesID, action.AddedUIDs, action.RemovedUIDs)
		case "recording_type":
			err = e.Provider.UpdateRecordingType(ctx, seriesID, string(action.State.RecordingType))
		case "publish_settings":
			err = e.Provider.UpdatePublishing(ctx, seriesID, string(action.State.PublishType), action.State.PublishTargetIDs)
		case "series_metadata":
			err = e.Provider.UpdateMetadata(ctx, seriesID, action.State.Title, action.State.Description)
		}
		if err != nil {
			return err
		}
	}

	row := rowFromState(action.State, seriesID)
	row.ID = action.Observed.ID
	if err := e.Store.UpdateSeries(ctx, row); err != nil {
		return services.Wrap(services.ErrInvariant, "reconcile", "persist update",
			"provider updated but row not recorded", err)
	}
	return nil
}

func (e *Executor) applyCancel(ctx context.Context, action Action) error {
	if err := e.Provider.DeleteSeries(ctx, action.Observed.SeriesID); err != nil {
		return err
	}
	if err := e.Store.SoftDeleteSeries(ctx, action.Observed.ID); err != nil {
		return services.Wrap(services.ErrInvariant, "reconcile", "persist cancel",
			"external series deleted but row not marked", err)
	}
	return nil
}

func (e *Executor) notifyAction(ctx context.Context, logger *slog.Logger, snapshot *sis.Snapshot, action Action) {
	if e.Notify == nil {
		return
	}
	state := action.State
	recipients := recipientsFor(snapshot, state)
	data := eventData(state)

	switch action.Kind {
	case KindCreate:
		e.enqueue(ctx, logger, notify.Event{
			Type: notify.TypeNewSchedule, TermID: state.TermID, SectionID: state.SectionID,
			PatternID: state.PatternID, Recipients: recipients, Data: data,
		})
		if state.RecordingType.RequiresOperator() {
			e.enqueue(ctx, logger, notify.Event{
				Type: notify.TypeOperatorRequested, TermID: state.TermID, SectionID: state.SectionID,
				PatternID: state.PatternID, Data: data,
			})
		}
	case KindReplace:
		e.enqueue(ctx, logger, notify.Event{
			Type: notify.TypeScheduleChanged, TermID: state.TermID, SectionID: state.SectionID,
			PatternID: state.PatternID, Recipients: recipients, Data: data,
		})
	case KindUpdate:
		e.notifyUpdate(ctx, logger, snapshot, action, data)
	case KindCancel:
		e.notifyCancel(ctx, logger, snapshot, action, recipients, data)
	}
}

func (e *Executor) notifyUpdate(ctx context.Context, logger *slog.Logger, snapshot *sis.Snapshot, action Action, data map[string]string) {
	state := action.State
	for _, uid := range action.AddedUIDs {
		if recipient, ok := recipientByUID(state.Instructors, uid); ok {
			e.enqueue(ctx, logger, notify.Event{
				Type: notify.TypeInstructorAdded, TermID: state.TermID, SectionID: state.SectionID,
				PatternID: state.PatternID, Recipients: []notify.Recipient{recipient}, Data: data,
			})
		}
	}
	for _, uid := range action.RemovedUIDs {
		// The removed person is gone from the eligible roster but still on
		// the feed as a deleted row; the notice goes to them personally.
		if recipient, ok := feedRecipientByUID(snapshot, state.SectionID, uid); ok {
			e.enqueue(ctx, logger, notify.Event{
				Type: notify.TypeInstructorRemoved, TermID: state.TermID, SectionID: state.SectionID,
				PatternID: state.PatternID, Recipients: []notify.Recipient{recipient}, Data: data,
			})
		}
	}
	if state.RequestedBy != "" {
		if recipient, ok := recipientByUID(state.Instructors, state.RequestedBy); ok {
			confirmData := cloneData(data)
			confirmData["summary"] = changeSummary(action.Changes)
			e.enqueue(ctx, logger, notify.Event{
				Type: notify.TypeChangesConfirmed, TermID: state.TermID, SectionID: state.SectionID,
				PatternID: state.PatternID, Recipients: []notify.Recipient{recipient}, Data: confirmData,
			})
		}
	}
	for _, change := range action.Changes {
		if change.Field == "recording_type" && desired.RecordingType(change.New).RequiresOperator() {
			e.enqueue(ctx, logger, notify.Event{
				Type: notify.TypeOperatorRequested, TermID: state.TermID, SectionID: state.SectionID,
				PatternID: state.PatternID, Data: data,
			})
		}
	}
}

func (e *Executor) notifyCancel(ctx context.Context, logger *slog.Logger, snapshot *sis.Snapshot, action Action, recipients []notify.Recipient, data map[string]string) {
	state := action.State
	var eventType notify.Type
	switch action.CancelReason {
	case CancelCourseCanceled:
		eventType = notify.TypeCourseCanceled
	case CancelOptedOut:
		eventType = notify.TypeOptedOut
	case CancelRoomIneligible:
		eventType = notify.TypeRoomIneligible
	default:
		eventType = notify.TypeScheduleChanged
	}
	if len(recipients) == 0 {
		// Orphan cancels carry a synthesized state; fall back to the feed.
		if section, ok := snapshot.SectionByID(state.SectionID); ok {
			recipients = instructorRecipients(section.AuthorizedInstructors())
			if data["course"] == "" {
				data["course"] = desired.SeriesTitle(*section, snapshot.Term)
			}
		}
	}
	e.enqueue(ctx, logger, notify.Event{
		Type: eventType, TermID: state.TermID, SectionID: state.SectionID,
		PatternID: state.PatternID, Recipients: recipients, Data: data,
	})
}

// flagMultiPatternSections raises an admin review notice when more than one
// of a section's meeting patterns changed in a single pass.
func (e *Executor) flagMultiPatternSections(ctx context.Context, logger *slog.Logger, snapshot *sis.Snapshot, mutated map[string][]string) {
	if e.Notify == nil {
		return
	}
	for sectionID, patterns := range mutated {
		if len(patterns) < 2 {
			continue
		}
		course := sectionID
		if section, ok := snapshot.SectionByID(sectionID); ok {
			course = desired.SeriesTitle(snapshot.ResolvePrimary(*section), snapshot.Term)
		}
		e.enqueue(ctx, logger, notify.Event{
			Type:      notify.TypeMultiPatternChange,
			TermID:    snapshot.Term.ID,
			SectionID: sectionID,
			Data: map[string]string{
				"course":   course,
				"patterns": strings.Join(patterns, ", "),
			},
		})
	}
}

func (e *Executor) enqueue(ctx context.Context, logger *slog.Logger, event notify.Event) {
	if e.Notify == nil {
		return
	}
	if _, err := e.Notify.Enqueue(ctx, event); err != nil {
		logger.WarnContext(ctx, "notification enqueue failed",
			logging.String(logging.FieldEventType, string(event.Type)),
			logging.String(logging.FieldSectionID, event.SectionID),
			logging.Error(err),
		)
	}
}

func specFromState(state desired.PatternState) capture.SeriesSpec {
	r := state.Recurrence
	exclude := make([]string, 0, len(r.Dates.Blackout))
	for _, date := range r.Dates.Blackout {
		exclude = append(exclude, date.String())
	}
	return capture.SeriesSpec{
		Title:            state.Title,
		Description:      state.Description,
		ResourceID:       state.CaptureResourceID,
		RecordingType:    string(state.RecordingType),
		PublishType:      string(state.PublishType),
		PublishTargetIDs: state.PublishTargetIDs,
		CollaboratorUIDs: state.CollaboratorUIDs,
		Days:             r.Days.String(),
		StartDate:        r.StartDate.String(),
		EndDate:          r.EndDate.String(),
		StartTime:        r.StartTime.String(),
		EndTime:          r.EndTime.String(),
		ExcludeDates:     exclude,
	}
}

func rowFromState(state desired.PatternState, seriesID string) *store.Series {
	r := state.Recurrence
	return &store.Series{
		TermID:           state.TermID,
		SectionID:        state.SectionID,
		PatternID:        state.PatternID,
		SeriesID:         seriesID,
		Title:            state.Title,
		Description:      state.Description,
		RoomID:           state.RoomID,
		InstructorUIDs:   state.InstructorUIDs,
		CollaboratorUIDs: state.CollaboratorUIDs,
		RecordingType:    string(state.RecordingType),
		PublishType:      string(state.PublishType),
		PublishTargetIDs: state.PublishTargetIDs,
		MeetingDays:      r.Days.String(),
		StartDate:        r.StartDate.String(),
		EndDate:          r.EndDate.String(),
		StartTime:        r.StartTime.String(),
		EndTime:          r.EndTime.String(),
	}
}

func eventData(state desired.PatternState) map[string]string {
	r := state.Recurrence
	return map[string]string{
		"course":         state.Title,
		"room":           state.RoomID,
		"days":           r.Days.String(),
		"start_date":     r.StartDate.String(),
		"end_date":       r.EndDate.String(),
		"start_time":     r.StartTime.String(),
		"end_time":       r.EndTime.String(),
		"recording_type": string(state.RecordingType),
		"publish_type":   string(state.PublishType),
		"requested_by":   state.RequestedBy,
	}
}

func recipientsFor(snapshot *sis.Snapshot, state desired.PatternState) []notify.Recipient {
	if len(state.Instructors) > 0 {
		return instructorRecipients(state.Instructors)
	}
	if section, ok := snapshot.SectionByID(state.SectionID); ok {
		return instructorRecipients(section.AuthorizedInstructors())
	}
	return nil
}

func instructorRecipients(instructors []sis.Instructor) []notify.Recipient {
	out := make([]notify.Recipient, 0, len(instructors))
	for _, instructor := range instructors {
		out = append(out, notify.Recipient{
			UID:     instructor.UID,
			Name:    instructor.Name,
			Address: instructor.Email,
		})
	}
	return out
}

// feedRecipientByUID finds a person on the section's full feed roster,
// including rows the SIS has already marked deleted.
func feedRecipientByUID(snapshot *sis.Snapshot, sectionID, uid string) (notify.Recipient, bool) {
	section, ok := snapshot.SectionByID(sectionID)
	if !ok {
		return notify.Recipient{}, false
	}
	return recipientByUID(section.Instructors, uid)
}

func recipientByUID(instructors []sis.Instructor, uid string) (notify.Recipient, bool) {
	for _, instructor := range instructors {
		if instructor.UID == uid {
			return notify.Recipient{UID: uid, Name: instructor.Name, Address: instructor.Email}, true
		}
	}
	return notify.Recipient{}, false
}

func changeSummary(changes []FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, change := range changes {
		parts = append(parts, change.Field+": "+change.New)
	}
	return strings.Join(parts, "; ")
}

func cloneData(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
