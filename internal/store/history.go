package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const historyColumns = `id, term_id, section_id, pattern_id, field_name,
    value_old, value_new, requested_by, status, published, created_at, resolved_at`

// AppendHistory records one queued field change. The entry stays queued
// until the corresponding external mutation resolves.
func (s *Store) AppendHistory(ctx context.Context, entry *HistoryEntry) (*HistoryEntry, error) {
	status := entry.Status
	if status == "" {
		status = StatusQueued
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO history_entries (
            term_id, section_id, pattern_id, field_name, value_old, value_new,
            requested_by, status, published, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TermID,
		entry.SectionID,
		nullableString(entry.PatternID),
		entry.FieldName,
		nullableString(entry.ValueOld),
		nullableString(entry.ValueNew),
		nullableString(entry.RequestedBy),
		string(status),
		boolToInt(entry.Published),
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.historyByID(ctx, id)
}

// ResolveHistory moves a queued entry to its terminal status.
func (s *Store) ResolveHistory(ctx context.Context, id int64, status HistoryStatus) error {
	if status != StatusSucceeded && status != StatusFailed {
		return fmt.Errorf("invalid terminal history status %q", status)
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE history_entries SET status = ?, resolved_at = ? WHERE id = ?`,
		string(status), timestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("resolve history entry %d: %w", id, err)
	}
	return nil
}

// MarkHistoryPublished flags entries whose outcome has been surfaced in a
// notification, so later digests skip them.
func (s *Store) MarkHistoryPublished(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := s.execWithRetry(
			ctx,
			`UPDATE history_entries SET published = 1 WHERE id = ?`,
			id,
		); err != nil {
			return fmt.Errorf("mark history entry %d published: %w", id, err)
		}
	}
	return nil
}

// HistoryForSection returns a section's audit rows, newest first.
func (s *Store) HistoryForSection(ctx context.Context, termID, sectionID string) ([]*HistoryEntry, error) {
	return s.queryHistory(
		ctx,
		`SELECT `+historyColumns+` FROM history_entries
         WHERE term_id = ? AND section_id = ?
         ORDER BY id DESC`,
		termID, sectionID,
	)
}

// UnpublishedHistory returns resolved entries that no notification has
// reported yet, oldest first.
func (s *Store) UnpublishedHistory(ctx context.Context, termID string) ([]*HistoryEntry, error) {
	return s.queryHistory(
		ctx,
		`SELECT `+historyColumns+` FROM history_entries
         WHERE term_id = ? AND published = 0 AND status != 'queued'
         ORDER BY id`,
		termID,
	)
}

// RecentHistory returns the latest entries for a term across all sections.
func (s *Store) RecentHistory(ctx context.Context, termID string, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryHistory(
		ctx,
		`SELECT `+historyColumns+` FROM history_entries
         WHERE term_id = ?
         ORDER BY id DESC
         LIMIT ?`,
		termID, limit,
	)
}

func (s *Store) historyByID(ctx context.Context, id int64) (*HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM history_entries WHERE id = ?`, id)
	entry, err := scanHistory(row)
	if err != nil {
		return nil, fmt.Errorf("fetch history entry %d: %w", id, err)
	}
	return entry, nil
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]*HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func scanHistory(row rowScanner) (*HistoryEntry, error) {
	var (
		entry       HistoryEntry
		patternID   sql.NullString
		valueOld    sql.NullString
		valueNew    sql.NullString
		requestedBy sql.NullString
		status      string
		published   int
		createdAt   string
		resolvedAt  sql.NullString
	)
	if err := row.Scan(
		&entry.ID,
		&entry.TermID,
		&entry.SectionID,
		&patternID,
		&entry.FieldName,
		&valueOld,
		&valueNew,
		&requestedBy,
		&status,
		&published,
		&createdAt,
		&resolvedAt,
	); err != nil {
		return nil, err
	}
	entry.PatternID = patternID.String
	entry.ValueOld = valueOld.String
	entry.ValueNew = valueNew.String
	entry.RequestedBy = requestedBy.String
	entry.Status = HistoryStatus(status)
	entry.Published = published != 0
	entry.CreatedAt = parseTimestamp(createdAt)
	if resolvedAt.Valid {
		t := parseTimestamp(resolvedAt.String)
		entry.ResolvedAt = &t
	}
	return &entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
