package postgres

import (
	"context"
	"database/sql"
	"time"

	"cadence/internal/domain"
)

const taskColumns = "id, user_id, title, status, deadline, focus_date, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t         domain.Task
		status    string
		deadline  sql.NullTime
		focusDate sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &status, &deadline, &focusDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Deadline = nullTime(deadline)
	t.FocusDate = nullTime(focusDate)
	return &t, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// CreateTask stores a task.
func (d *DB) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	return scanTask(d.sql.QueryRowContext(ctx,
		"INSERT INTO tasks (user_id, title, status, deadline, focus_date, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+taskColumns,
		t.UserID, t.Title, string(t.Status), t.Deadline, t.FocusDate, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	))
}

// GetTask retrieves a task owned by userID.
func (d *DB) GetTask(ctx context.Context, userID, id int64) (*domain.Task, error) {
	t, err := scanTask(d.sql.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND user_id = $2", id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// UpdateTaskStatus changes a task's status and bumps updated_at. Moving to
// focus also stamps focus_date.
func (d *DB) UpdateTaskStatus(ctx context.Context, userID, id int64, status domain.TaskStatus, at time.Time) (*domain.Task, error) {
	t, err := scanTask(d.sql.QueryRowContext(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2,
			focus_date = CASE WHEN $1 = 'focus' THEN $2 ELSE focus_date END
		 WHERE id = $3 AND user_id = $4 RETURNING `+taskColumns,
		string(status), at.UTC(), id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListTasks lists a user's tasks, filtered by status when non-empty.
func (d *DB) ListTasks(ctx context.Context, userID int64, status domain.TaskStatus) ([]domain.Task, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = $1 AND ($2 = '' OR status = $2) ORDER BY id",
		userID, string(status))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// CompletionTimes returns completion instants of done tasks since since.
func (d *DB) CompletionTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT updated_at FROM tasks WHERE user_id = $1 AND status = 'done' AND updated_at >= $2 ORDER BY updated_at",
		userID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountCompletedTasks counts a user's done tasks.
func (d *DB) CountCompletedTasks(ctx context.Context, userID int64) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = 'done'", userID).Scan(&n)
	return n, err
}
