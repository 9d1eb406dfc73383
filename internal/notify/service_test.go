package notify_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"lectern/internal/notify"
	"lectern/internal/store"
	"lectern/internal/testsupport"
)

func scheduleEvent() notify.Event {
	return notify.Event{
		Type:      notify.TypeNewSchedule,
		TermID:    "2262",
		SectionID: "12345",
		PatternID: "p1",
		Recipients: []notify.Recipient{
			{UID: "100100", Name: "Alex Vega", Address: "avega@test.example"},
		},
		Data: map[string]string{
			"course":         "ASTRON C10 (Spring 2026)",
			"room":           "Barker 101",
			"days":           "MOWEFR",
			"start_date":     "2026-01-05",
			"end_date":       "2026-04-17",
			"start_time":     "10:05",
			"end_time":       "10:54",
			"recording_type": "screencast_and_video",
			"publish_type":   "my_media",
		},
	}
}

func TestEnqueueRendersAndDedupes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNotifications())
	st := testsupport.MustOpenStore(t, cfg)
	mailer := &notify.CapturingMailer{}
	svc := notify.NewService(cfg, st, mailer, nil)
	ctx := context.Background()

	queued, err := svc.Enqueue(ctx, scheduleEvent())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if queued != 1 {
		t.Fatalf("queued = %d, want 1", queued)
	}

	// The same transition seen on a later pass stays silent.
	queued, err = svc.Enqueue(ctx, scheduleEvent())
	if err != nil {
		t.Fatalf("repeat Enqueue: %v", err)
	}
	if queued != 0 {
		t.Fatalf("queued = %d on repeat, want 0", queued)
	}

	sent, err := svc.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}

	messages := mailer.Sent()
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	msg := messages[0]
	if !strings.Contains(msg.Subject, "ASTRON C10 (Spring 2026)") {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Hello Alex Vega") || !strings.Contains(msg.Body, "Barker 101") {
		t.Fatalf("body = %q", msg.Body)
	}
}

func TestEnqueueDisabledIsSilent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := notify.NewService(cfg, st, &notify.CapturingMailer{}, nil)

	queued, err := svc.Enqueue(context.Background(), scheduleEvent())
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if queued != 0 {
		t.Fatalf("queued = %d with notifications disabled, want 0", queued)
	}
}

func TestAdminTypesRouteToAdminAddress(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNotifications())
	st := testsupport.MustOpenStore(t, cfg)
	mailer := &notify.CapturingMailer{}
	svc := notify.NewService(cfg, st, mailer, nil)
	ctx := context.Background()

	event := notify.Event{
		Type:      notify.TypeOperatorRequested,
		TermID:    "2262",
		SectionID: "12345",
		PatternID: "p1",
		// Instructor recipients are ignored for admin-facing types.
		Recipients: []notify.Recipient{{Name: "Alex Vega", Address: "avega@test.example"}},
		Data: map[string]string{
			"course":       "ASTRON C10 (Spring 2026)",
			"requested_by": "100100",
		},
	}
	if _, err := svc.Enqueue(ctx, event); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	messages := mailer.Sent()
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	if messages[0].RecipientAddress != cfg.Notifications.AdminAddress {
		t.Fatalf("recipient = %q, want admin address", messages[0].RecipientAddress)
	}
}

// gateMailer blocks the first delivery until released, so a test can hold one
// flush mid-drain while another tries to start.
type gateMailer struct {
	mu      sync.Mutex
	once    sync.Once
	entered chan struct{}
	release chan struct{}
	sent    []store.QueuedEmail
}

func newGateMailer() *gateMailer {
	return &gateMailer{entered: make(chan struct{}), release: make(chan struct{})}
}

func (m *gateMailer) Send(ctx context.Context, email *store.QueuedEmail) error {
	m.once.Do(func() { close(m.entered) })
	<-m.release
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, *email)
	return nil
}

func (m *gateMailer) deliveries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestFlushSerializesConcurrentDrains(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNotifications())
	st := testsupport.MustOpenStore(t, cfg)
	mailer := newGateMailer()
	svc := notify.NewService(cfg, st, mailer, nil)
	ctx := context.Background()

	if _, err := svc.Enqueue(ctx, scheduleEvent()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sent, err := svc.Flush(ctx)
			if err != nil {
				t.Errorf("Flush: %v", err)
			}
			results <- sent
		}()
	}

	// One flush is mid-delivery; releasing it lets the second run against an
	// already-drained queue.
	<-mailer.entered
	close(mailer.release)
	wg.Wait()
	close(results)

	total := 0
	for sent := range results {
		total += sent
	}
	if total != 1 || mailer.deliveries() != 1 {
		t.Fatalf("delivered %d copies (%d reported sent), want exactly 1", mailer.deliveries(), total)
	}
}

func TestFlushMarksFailuresAndContinues(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNotifications())
	st := testsupport.MustOpenStore(t, cfg)
	mailer := &notify.CapturingMailer{Fail: context.DeadlineExceeded}
	svc := notify.NewService(cfg, st, mailer, nil)
	ctx := context.Background()

	if _, err := svc.Enqueue(ctx, scheduleEvent()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	sent, err := svc.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sent != 0 {
		t.Fatalf("sent = %d with failing mailer, want 0", sent)
	}

	// Failed rows leave the queue; a later flush has nothing to do.
	pending, err := st.PendingEmails(ctx, 0)
	if err != nil {
		t.Fatalf("PendingEmails: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d after failed flush, want 0", len(pending))
	}
}
