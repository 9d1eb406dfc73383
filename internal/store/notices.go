package store

import (
	"context"
	"fmt"
	"time"
)

// WasNoticed reports whether a notification with this key has already been
// recorded. Used to keep repeated passes from re-sending the same notice.
func (s *Store) WasNoticed(ctx context.Context, key NoticeKey) (bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM sent_notices
         WHERE term_id = ? AND section_id = ? AND pattern_id = ?
           AND recipient = ? AND template_type = ?`,
		key.TermID, key.SectionID, key.PatternID, key.Recipient, key.TemplateType,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check sent notice: %w", err)
	}
	return count > 0, nil
}

// RecordNotice marks a notification key as sent. Recording the same key
// twice is a no-op.
func (s *Store) RecordNotice(ctx context.Context, key NoticeKey) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO sent_notices (
            term_id, section_id, pattern_id, recipient, template_type, created_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		key.TermID, key.SectionID, key.PatternID, key.Recipient, key.TemplateType,
		timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record sent notice: %w", err)
	}
	return nil
}
