package notify

import (
	"context"
	"log/slog"
	"sync"

	"lectern/internal/logging"
	"lectern/internal/store"
)

// Mailer delivers one rendered message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, email *store.QueuedEmail) error
}

// LogMailer writes messages to the log instead of delivering them. It is
// the default until a real delivery channel is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, email *store.QueuedEmail) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email delivery skipped, log mailer active",
		logging.String("recipient", email.RecipientAddress),
		logging.String("template", email.TemplateType),
		logging.String("subject", email.Subject),
	)
	return nil
}

// CapturingMailer records sent messages for tests.
type CapturingMailer struct {
	mu   sync.Mutex
	sent []store.QueuedEmail

	Fail error
}

func (m *CapturingMailer) Send(ctx context.Context, email *store.QueuedEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.sent = append(m.sent, *email)
	return nil
}

// Sent returns the delivered messages in order.
func (m *CapturingMailer) Sent() []store.QueuedEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.QueuedEmail(nil), m.sent...)
}
