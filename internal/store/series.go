package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoActiveSeries reports that a pattern has no live observed series.
var ErrNoActiveSeries = errors.New("no active series for pattern")

// ErrMultipleActive reports that a pattern has more than one live series
// row. This violates the one-active-series invariant and is a programming
// defect; mutation of the pattern must stop until the rows are corrected.
var ErrMultipleActive = errors.New("multiple active series rows for pattern")

const seriesColumns = `id, term_id, section_id, pattern_id, series_id, title,
    description, room_id, instructor_uids, collaborator_uids, recording_type,
    publish_type, publish_target_ids, meeting_days, start_date, end_date,
    start_time, end_time, created_at, updated_at, deleted_at`

// CreateSeries inserts a new observed-state row for a freshly created
// external series.
func (s *Store) CreateSeries(ctx context.Context, series *Series) (*Series, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO scheduled_series (
            term_id, section_id, pattern_id, series_id, title, description,
            room_id, instructor_uids, collaborator_uids, recording_type,
            publish_type, publish_target_ids, meeting_days, start_date,
            end_date, start_time, end_time, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		series.TermID,
		series.SectionID,
		series.PatternID,
		series.SeriesID,
		series.Title,
		series.Description,
		nullableString(series.RoomID),
		encodeStrings(series.InstructorUIDs),
		encodeStrings(series.CollaboratorUIDs),
		series.RecordingType,
		series.PublishType,
		encodeStrings(series.PublishTargetIDs),
		series.MeetingDays,
		series.StartDate,
		series.EndDate,
		series.StartTime,
		series.EndTime,
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert series: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.SeriesByID(ctx, id)
}

// SeriesByID fetches one row by primary key.
func (s *Store) SeriesByID(ctx context.Context, id int64) (*Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM scheduled_series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if err != nil {
		return nil, fmt.Errorf("fetch series %d: %w", id, err)
	}
	return series, nil
}

// ActiveSeries returns the single live row for a meeting pattern.
// ErrNoActiveSeries means the pattern is unscheduled; ErrMultipleActive is
// an invariant violation.
func (s *Store) ActiveSeries(ctx context.Context, termID, sectionID, patternID string) (*Series, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+seriesColumns+` FROM scheduled_series
         WHERE term_id = ? AND section_id = ? AND pattern_id = ? AND deleted_at IS NULL
         ORDER BY id`,
		termID, sectionID, patternID,
	)
	if err != nil {
		return nil, fmt.Errorf("query active series: %w", err)
	}
	defer rows.Close()

	var matches []*Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		matches = append(matches, series)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, ErrNoActiveSeries
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: pattern %s/%s/%s has %d rows",
			ErrMultipleActive, termID, sectionID, patternID, len(matches))
	}
}

// ListActiveSeries returns every live row for a term, ordered by section and
// pattern.
func (s *Store) ListActiveSeries(ctx context.Context, termID string) ([]*Series, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+seriesColumns+` FROM scheduled_series
         WHERE term_id = ? AND deleted_at IS NULL
         ORDER BY section_id, pattern_id`,
		termID,
	)
	if err != nil {
		return nil, fmt.Errorf("query active series: %w", err)
	}
	defer rows.Close()

	var out []*Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, series)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return out, nil
}

// UpdateSeries rewrites the mutable columns of a row after a successful
// external mutation. The series identifier changes only on replace.
func (s *Store) UpdateSeries(ctx context.Context, series *Series) error {
	if series == nil || series.ID == 0 {
		return errors.New("series row id is required")
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE scheduled_series SET
            series_id = ?, title = ?, description = ?, room_id = ?,
            instructor_uids = ?, collaborator_uids = ?, recording_type = ?,
            publish_type = ?, publish_target_ids = ?, meeting_days = ?,
            start_date = ?, end_date = ?, start_time = ?, end_time = ?,
            updated_at = ?
         WHERE id = ?`,
		series.SeriesID,
		series.Title,
		series.Description,
		nullableString(series.RoomID),
		encodeStrings(series.InstructorUIDs),
		encodeStrings(series.CollaboratorUIDs),
		series.RecordingType,
		series.PublishType,
		encodeStrings(series.PublishTargetIDs),
		series.MeetingDays,
		series.StartDate,
		series.EndDate,
		series.StartTime,
		series.EndTime,
		timestamp(time.Now()),
		series.ID,
	)
	if err != nil {
		return fmt.Errorf("update series %d: %w", series.ID, err)
	}
	return nil
}

// SoftDeleteSeries marks a row deleted once the external series is gone.
// Deleting an already-deleted row is a no-op.
func (s *Store) SoftDeleteSeries(ctx context.Context, id int64) error {
	now := timestamp(time.Now())
	_, err := s.execWithRetry(
		ctx,
		`UPDATE scheduled_series SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("soft delete series %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeries(row rowScanner) (*Series, error) {
	var (
		series     Series
		roomID     sql.NullString
		instrJSON  string
		collabJSON string
		targetJSON string
		createdAt  string
		updatedAt  string
		deletedAt  sql.NullString
	)
	if err := row.Scan(
		&series.ID,
		&series.TermID,
		&series.SectionID,
		&series.PatternID,
		&series.SeriesID,
		&series.Title,
		&series.Description,
		&roomID,
		&instrJSON,
		&collabJSON,
		&series.RecordingType,
		&series.PublishType,
		&targetJSON,
		&series.MeetingDays,
		&series.StartDate,
		&series.EndDate,
		&series.StartTime,
		&series.EndTime,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}
	series.RoomID = roomID.String
	series.InstructorUIDs = decodeStrings(instrJSON)
	series.CollaboratorUIDs = decodeStrings(collabJSON)
	series.PublishTargetIDs = decodeStrings(targetJSON)
	series.CreatedAt = parseTimestamp(createdAt)
	series.UpdatedAt = parseTimestamp(updatedAt)
	if deletedAt.Valid {
		t := parseTimestamp(deletedAt.String)
		series.DeletedAt = &t
	}
	return &series, nil
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
