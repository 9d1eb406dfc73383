package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/store"
)

// Service enqueues notifications into the store-backed outbox and drains
// them through a Mailer. Enqueue and delivery are separate so a failed
// reconciliation pass never loses already-queued messages.
type Service struct {
	cfg    *config.Config
	store  *store.Store
	mailer Mailer
	logger *slog.Logger

	flushMu sync.Mutex
}

// NewService builds the notification service. A nil mailer falls back to
// logging deliveries.
func NewService(cfg *config.Config, st *store.Store, mailer Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	return &Service{cfg: cfg, store: st, mailer: mailer, logger: logger}
}

// Enqueue renders an event for each recipient and queues the messages,
// skipping recipients who already received this (section, pattern, type).
// Returns how many messages were queued.
func (s *Service) Enqueue(ctx context.Context, event Event) (int, error) {
	if !s.cfg.Notifications.Enabled {
		return 0, nil
	}
	queued := 0
	for _, recipient := range s.recipients(event) {
		if recipient.Address == "" {
			continue
		}
		key := store.NoticeKey{
			TermID:       event.TermID,
			SectionID:    event.SectionID,
			PatternID:    event.PatternID,
			Recipient:    recipient.Address,
			TemplateType: string(event.Type),
		}
		seen, err := s.store.WasNoticed(ctx, key)
		if err != nil {
			return queued, fmt.Errorf("check notice dedupe: %w", err)
		}
		if seen {
			continue
		}

		subject, body, err := Render(event, recipient)
		if err != nil {
			return queued, err
		}
		if _, err := s.store.EnqueueEmail(ctx, &store.QueuedEmail{
			TermID:           event.TermID,
			SectionID:        event.SectionID,
			TemplateType:     string(event.Type),
			RecipientAddress: recipient.Address,
			RecipientName:    recipient.Name,
			Subject:          subject,
			Body:             body,
		}); err != nil {
			return queued, fmt.Errorf("enqueue notification: %w", err)
		}
		if err := s.store.RecordNotice(ctx, key); err != nil {
			return queued, fmt.Errorf("record notice: %w", err)
		}
		queued++
	}
	if queued > 0 {
		s.logger.InfoContext(ctx, "notifications queued",
			logging.String(logging.FieldEventType, string(event.Type)),
			logging.String(logging.FieldSectionID, event.SectionID),
			logging.Int("count", queued),
		)
	}
	return queued, nil
}

// recipients routes admin-facing types to the configured admin address and
// everything else to the event's recipients.
func (s *Service) recipients(event Event) []Recipient {
	switch event.Type {
	case TypeOperatorRequested, TypeMultiPatternChange, TypeAdminAlert:
		return []Recipient{{
			Name:    s.cfg.Notifications.AdminName,
			Address: s.cfg.Notifications.AdminAddress,
		}}
	default:
		return event.Recipients
	}
}

// Flush delivers queued messages through the mailer. Delivery failures mark
// the row failed and do not stop the drain. Returns how many were sent.
func (s *Service) Flush(ctx context.Context) (int, error) {
	// Both the pass runner and the workflow drain loop flush. One drain at a
	// time, or two callers would load and deliver the same pending rows.
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	pending, err := s.store.PendingEmails(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("load pending notifications: %w", err)
	}
	sent := 0
	for _, email := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := s.mailer.Send(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "notification delivery failed",
				logging.String("recipient", email.RecipientAddress),
				logging.String("template", email.TemplateType),
				logging.Error(err),
			)
			if markErr := s.store.MarkEmailFailed(ctx, email.ID); markErr != nil {
				return sent, fmt.Errorf("mark email failed: %w", markErr)
			}
			continue
		}
		if err := s.store.MarkEmailSent(ctx, email.ID); err != nil {
			return sent, fmt.Errorf("mark email sent: %w", err)
		}
		sent++
	}
	return sent, nil
}
