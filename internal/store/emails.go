package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const emailColumns = `id, term_id, section_id, template_type, recipient_address,
    recipient_name, subject, body, status, created_at, sent_at`

// EnqueueEmail adds a rendered message to the outbox.
func (s *Store) EnqueueEmail(ctx context.Context, email *QueuedEmail) (*QueuedEmail, error) {
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queued_emails (
            term_id, section_id, template_type, recipient_address,
            recipient_name, subject, body, status, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		email.TermID,
		email.SectionID,
		email.TemplateType,
		email.RecipientAddress,
		nullableString(email.RecipientName),
		email.Subject,
		email.Body,
		string(EmailQueued),
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue email: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.emailByID(ctx, id)
}

// PendingEmails returns queued outbox rows oldest first.
func (s *Store) PendingEmails(ctx context.Context, limit int) ([]*QueuedEmail, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+emailColumns+` FROM queued_emails
         WHERE status = ?
         ORDER BY id
         LIMIT ?`,
		string(EmailQueued), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending emails: %w", err)
	}
	defer rows.Close()

	var out []*QueuedEmail
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emails: %w", err)
	}
	return out, nil
}

// MarkEmailSent records successful delivery.
func (s *Store) MarkEmailSent(ctx context.Context, id int64) error {
	return s.setEmailStatus(ctx, id, EmailSent, true)
}

// MarkEmailFailed records a delivery failure. Failed rows stay in the table
// for inspection and are not retried automatically.
func (s *Store) MarkEmailFailed(ctx context.Context, id int64) error {
	return s.setEmailStatus(ctx, id, EmailFailed, false)
}

func (s *Store) setEmailStatus(ctx context.Context, id int64, status EmailStatus, sent bool) error {
	var sentAt any
	if sent {
		sentAt = timestamp(time.Now())
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE queued_emails SET status = ?, sent_at = ? WHERE id = ?`,
		string(status), sentAt, id,
	)
	if err != nil {
		return fmt.Errorf("update email %d status: %w", id, err)
	}
	return nil
}

func (s *Store) emailByID(ctx context.Context, id int64) (*QueuedEmail, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM queued_emails WHERE id = ?`, id)
	email, err := scanEmail(row)
	if err != nil {
		return nil, fmt.Errorf("fetch email %d: %w", id, err)
	}
	return email, nil
}

func scanEmail(row rowScanner) (*QueuedEmail, error) {
	var (
		email         QueuedEmail
		recipientName sql.NullString
		status        string
		createdAt     string
		sentAt        sql.NullString
	)
	if err := row.Scan(
		&email.ID,
		&email.TermID,
		&email.SectionID,
		&email.TemplateType,
		&email.RecipientAddress,
		&recipientName,
		&email.Subject,
		&email.Body,
		&status,
		&createdAt,
		&sentAt,
	); err != nil {
		return nil, err
	}
	email.RecipientName = recipientName.String
	email.Status = EmailStatus(status)
	email.CreatedAt = parseTimestamp(createdAt)
	if sentAt.Valid {
		t := parseTimestamp(sentAt.String)
		email.SentAt = &t
	}
	return &email, nil
}
