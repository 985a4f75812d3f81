package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cadence/internal/domain"
)

const focusColumns = "id, user_id, task_id, start_time, paused_at, total_paused_ms, end_time, duration_minutes"

func scanFocus(row rowScanner) (*domain.FocusSession, error) {
	var (
		s        domain.FocusSession
		pausedAt sql.NullTime
		endTime  sql.NullTime
		duration sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.TaskID, &s.StartTime, &pausedAt, &s.TotalPausedMs, &endTime, &duration); err != nil {
		return nil, err
	}
	s.PausedAt = nullTime(pausedAt)
	s.EndTime = nullTime(endTime)
	if duration.Valid {
		m := int(duration.Int64)
		s.DurationMinutes = &m
	}
	return &s, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// CreateOpenSession inserts s. The partial unique index
// focus_sessions_one_open rejects a second open row for the same user.
func (d *DB) CreateOpenSession(ctx context.Context, s *domain.FocusSession) (*domain.FocusSession, error) {
	out, err := scanFocus(d.sql.QueryRowContext(ctx,
		"INSERT INTO focus_sessions (user_id, task_id, start_time, total_paused_ms) VALUES ($1, $2, $3, $4) RETURNING "+focusColumns,
		s.UserID, s.TaskID, s.StartTime.UTC(), s.TotalPausedMs,
	))
	if uniqueViolation(err) {
		return nil, fmt.Errorf("%w: user %d already has an open focus session", domain.ErrConflict, s.UserID)
	}
	return out, err
}

// GetFocusSession retrieves a session owned by userID.
func (d *DB) GetFocusSession(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	s, err := scanFocus(d.sql.QueryRowContext(ctx,
		"SELECT "+focusColumns+" FROM focus_sessions WHERE id = $1 AND user_id = $2", id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// OpenFocusSession returns the user's open session, if any.
func (d *DB) OpenFocusSession(ctx context.Context, userID int64) (*domain.FocusSession, error) {
	s, err := scanFocus(d.sql.QueryRowContext(ctx,
		"SELECT "+focusColumns+" FROM focus_sessions WHERE user_id = $1 AND end_time IS NULL", userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// UpdateOpenSession writes next only if the stored row is still open with
// prev's paused_at.
func (d *DB) UpdateOpenSession(ctx context.Context, prev, next *domain.FocusSession) error {
	res, err := d.sql.ExecContext(ctx,
		`UPDATE focus_sessions
		    SET paused_at = $1, total_paused_ms = $2, end_time = $3, duration_minutes = $4
		  WHERE id = $5 AND user_id = $6 AND end_time IS NULL
		    AND paused_at IS NOT DISTINCT FROM $7`,
		utcPtr(next.PausedAt), next.TotalPausedMs, utcPtr(next.EndTime), next.DurationMinutes,
		prev.ID, prev.UserID, utcPtr(prev.PausedAt),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	cur, err := d.GetFocusSession(ctx, prev.UserID, prev.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: focus session %d changed concurrently", domain.ErrInvalidState, prev.ID)
}

// ClosedSessions returns closed sessions started in [from, to).
func (d *DB) ClosedSessions(ctx context.Context, userID int64, from, to time.Time) ([]domain.FocusSession, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+focusColumns+" FROM focus_sessions WHERE user_id = $1 AND end_time IS NOT NULL AND start_time >= $2 AND start_time < $3 ORDER BY start_time",
		userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.FocusSession
	for rows.Next() {
		s, err := scanFocus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// FocusTotals sums a user's closed sessions.
func (d *DB) FocusTotals(ctx context.Context, userID int64) (domain.FocusTotals, error) {
	var t domain.FocusTotals
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0) FROM focus_sessions WHERE user_id = $1 AND end_time IS NOT NULL",
		userID).Scan(&t.Sessions, &t.Minutes)
	return t, err
}
