package store_test

import (
	"context"
	"errors"
	"testing"

	"lectern/internal/store"
	"lectern/internal/testsupport"
)

func newSeries(pattern string) *store.Series {
	return &store.Series{
		TermID:           "2262",
		SectionID:        "12345",
		PatternID:        pattern,
		SeriesID:         "ext-" + pattern,
		RoomID:           "room-1",
		InstructorUIDs:   []string{"100100"},
		CollaboratorUIDs: []string{"100100", "200200"},
		RecordingType:    "screencast_and_video",
		PublishType:      "my_media",
		MeetingDays:      "MOWEFR",
		StartDate:        "2026-01-05",
		EndDate:          "2026-04-17",
		StartTime:        "10:05",
		EndTime:          "10:54",
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	created := testsupport.NewSeries(t, st, newSeries("p1"))
	if created.ID == 0 {
		t.Fatal("expected assigned row id")
	}
	if !created.Active() {
		t.Fatal("fresh series should be active")
	}

	fetched, err := st.ActiveSeries(ctx, "2262", "12345", "p1")
	if err != nil {
		t.Fatalf("ActiveSeries: %v", err)
	}
	if fetched.SeriesID != "ext-p1" {
		t.Fatalf("series id = %q, want ext-p1", fetched.SeriesID)
	}
	if got := len(fetched.CollaboratorUIDs); got != 2 {
		t.Fatalf("collaborators = %d, want 2", got)
	}
}

func TestActiveSeriesMissing(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := st.ActiveSeries(context.Background(), "2262", "12345", "absent")
	if !errors.Is(err, store.ErrNoActiveSeries) {
		t.Fatalf("err = %v, want ErrNoActiveSeries", err)
	}
}

func TestActiveSeriesDuplicateRowsIsInvariantViolation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewSeries(t, st, newSeries("p1"))
	testsupport.NewSeries(t, st, newSeries("p1"))

	_, err := st.ActiveSeries(context.Background(), "2262", "12345", "p1")
	if !errors.Is(err, store.ErrMultipleActive) {
		t.Fatalf("err = %v, want ErrMultipleActive", err)
	}
}

func TestUpdateSeriesRewritesMutableColumns(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	created := testsupport.NewSeries(t, st, newSeries("p1"))
	created.SeriesID = "ext-replacement"
	created.CollaboratorUIDs = []string{"100100"}
	created.RecordingType = "screencast"
	if err := st.UpdateSeries(ctx, created); err != nil {
		t.Fatalf("UpdateSeries: %v", err)
	}

	fetched, err := st.ActiveSeries(ctx, "2262", "12345", "p1")
	if err != nil {
		t.Fatalf("ActiveSeries: %v", err)
	}
	if fetched.SeriesID != "ext-replacement" {
		t.Fatalf("series id = %q after update", fetched.SeriesID)
	}
	if fetched.RecordingType != "screencast" {
		t.Fatalf("recording type = %q after update", fetched.RecordingType)
	}
	if len(fetched.CollaboratorUIDs) != 1 {
		t.Fatalf("collaborators = %v after update", fetched.CollaboratorUIDs)
	}
}

func TestSoftDeleteSeries(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	created := testsupport.NewSeries(t, st, newSeries("p1"))
	if err := st.SoftDeleteSeries(ctx, created.ID); err != nil {
		t.Fatalf("SoftDeleteSeries: %v", err)
	}
	if _, err := st.ActiveSeries(ctx, "2262", "12345", "p1"); !errors.Is(err, store.ErrNoActiveSeries) {
		t.Fatalf("err = %v after soft delete, want ErrNoActiveSeries", err)
	}

	row, err := st.SeriesByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("SeriesByID: %v", err)
	}
	if row.Active() {
		t.Fatal("soft-deleted row should not be active")
	}

	// Second delete is a no-op.
	if err := st.SoftDeleteSeries(ctx, created.ID); err != nil {
		t.Fatalf("repeat SoftDeleteSeries: %v", err)
	}
}

func TestListActiveSeriesSkipsDeleted(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	keep := testsupport.NewSeries(t, st, newSeries("p1"))
	gone := testsupport.NewSeries(t, st, newSeries("p2"))
	if err := st.SoftDeleteSeries(ctx, gone.ID); err != nil {
		t.Fatalf("SoftDeleteSeries: %v", err)
	}

	active, err := st.ListActiveSeries(ctx, "2262")
	if err != nil {
		t.Fatalf("ListActiveSeries: %v", err)
	}
	if len(active) != 1 || active[0].ID != keep.ID {
		t.Fatalf("active rows = %+v, want only row %d", active, keep.ID)
	}
}

func TestHistoryLifecycle(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	entry, err := st.AppendHistory(ctx, &store.HistoryEntry{
		TermID:      "2262",
		SectionID:   "12345",
		PatternID:   "p1",
		FieldName:   "recording_type",
		ValueOld:    "screencast",
		ValueNew:    "screencast_and_video",
		RequestedBy: "100100",
	})
	if err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if entry.Status != store.StatusQueued {
		t.Fatalf("status = %q, want queued", entry.Status)
	}
	if entry.ResolvedAt != nil {
		t.Fatal("queued entry should not be resolved")
	}

	if err := st.ResolveHistory(ctx, entry.ID, store.StatusSucceeded); err != nil {
		t.Fatalf("ResolveHistory: %v", err)
	}

	unpublished, err := st.UnpublishedHistory(ctx, "2262")
	if err != nil {
		t.Fatalf("UnpublishedHistory: %v", err)
	}
	if len(unpublished) != 1 {
		t.Fatalf("unpublished = %d, want 1", len(unpublished))
	}
	resolved := unpublished[0]
	if resolved.Status != store.StatusSucceeded {
		t.Fatalf("status = %q, want succeeded", resolved.Status)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("resolved entry should carry a resolution time")
	}

	if err := st.MarkHistoryPublished(ctx, []int64{resolved.ID}); err != nil {
		t.Fatalf("MarkHistoryPublished: %v", err)
	}
	unpublished, err = st.UnpublishedHistory(ctx, "2262")
	if err != nil {
		t.Fatalf("UnpublishedHistory: %v", err)
	}
	if len(unpublished) != 0 {
		t.Fatalf("unpublished = %d after publish, want 0", len(unpublished))
	}
}

func TestResolveHistoryRejectsNonTerminalStatus(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := st.ResolveHistory(context.Background(), 1, store.StatusQueued); err == nil {
		t.Fatal("expected error resolving to queued")
	}
}

func TestHistoryForSectionNewestFirst(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, field := range []string{"meeting_added", "instructor_uids"} {
		if _, err := st.AppendHistory(ctx, &store.HistoryEntry{
			TermID:    "2262",
			SectionID: "12345",
			FieldName: field,
		}); err != nil {
			t.Fatalf("AppendHistory(%s): %v", field, err)
		}
	}

	entries, err := st.HistoryForSection(ctx, "2262", "12345")
	if err != nil {
		t.Fatalf("HistoryForSection: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].FieldName != "instructor_uids" {
		t.Fatalf("first entry = %q, want newest", entries[0].FieldName)
	}
}

func TestNoticeDedupe(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	key := store.NoticeKey{
		TermID:       "2262",
		SectionID:    "12345",
		PatternID:    "p1",
		Recipient:    "avega@test.example",
		TemplateType: "new_schedule",
	}

	seen, err := st.WasNoticed(ctx, key)
	if err != nil {
		t.Fatalf("WasNoticed: %v", err)
	}
	if seen {
		t.Fatal("fresh key should not be noticed")
	}

	if err := st.RecordNotice(ctx, key); err != nil {
		t.Fatalf("RecordNotice: %v", err)
	}
	if err := st.RecordNotice(ctx, key); err != nil {
		t.Fatalf("repeat RecordNotice: %v", err)
	}

	seen, err = st.WasNoticed(ctx, key)
	if err != nil {
		t.Fatalf("WasNoticed: %v", err)
	}
	if !seen {
		t.Fatal("recorded key should be noticed")
	}

	other := key
	other.TemplateType = "schedule_changed"
	seen, err = st.WasNoticed(ctx, other)
	if err != nil {
		t.Fatalf("WasNoticed: %v", err)
	}
	if seen {
		t.Fatal("different template type should not be deduped")
	}
}

func TestEmailOutbox(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := st.EnqueueEmail(ctx, &store.QueuedEmail{
		TermID:           "2262",
		SectionID:        "12345",
		TemplateType:     "new_schedule",
		RecipientAddress: "avega@test.example",
		RecipientName:    "Alex Vega",
		Subject:          "Your course will be recorded",
		Body:             "body",
	})
	if err != nil {
		t.Fatalf("EnqueueEmail: %v", err)
	}
	second, err := st.EnqueueEmail(ctx, &store.QueuedEmail{
		TermID:           "2262",
		SectionID:        "12345",
		TemplateType:     "schedule_changed",
		RecipientAddress: "avega@test.example",
		Subject:          "Your recording schedule changed",
		Body:             "body",
	})
	if err != nil {
		t.Fatalf("EnqueueEmail: %v", err)
	}

	pending, err := st.PendingEmails(ctx, 0)
	if err != nil {
		t.Fatalf("PendingEmails: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("pending = %+v, want oldest first", pending)
	}

	if err := st.MarkEmailSent(ctx, first.ID); err != nil {
		t.Fatalf("MarkEmailSent: %v", err)
	}
	if err := st.MarkEmailFailed(ctx, second.ID); err != nil {
		t.Fatalf("MarkEmailFailed: %v", err)
	}

	pending, err = st.PendingEmails(ctx, 0)
	if err != nil {
		t.Fatalf("PendingEmails: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d after resolution, want 0", len(pending))
	}
}
