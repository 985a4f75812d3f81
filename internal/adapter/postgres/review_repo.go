package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"cadence/internal/domain"
)

const reviewColumns = "id, user_id, type, period_start, period_end, content, project_priorities, created_at"

func scanReview(row rowScanner) (*domain.Review, error) {
	var (
		r          domain.Review
		typ        string
		content    []byte
		priorities []byte
	)
	if err := row.Scan(&r.ID, &r.UserID, &typ, &r.PeriodStart, &r.PeriodEnd, &content, &priorities, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Type = domain.ReviewType(typ)
	if err := json.Unmarshal(content, &r.Content); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(priorities, &r.ProjectPriorities); err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertReview stores a review.
func (d *DB) InsertReview(ctx context.Context, r *domain.Review) (*domain.Review, error) {
	content := r.Content
	if content == nil {
		content = map[string]any{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	priorities := r.ProjectPriorities
	if priorities == nil {
		priorities = []domain.ProjectPriority{}
	}
	prioritiesJSON, err := json.Marshal(priorities)
	if err != nil {
		return nil, err
	}
	return scanReview(d.sql.QueryRowContext(ctx,
		"INSERT INTO reviews (user_id, type, period_start, period_end, content, project_priorities, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+reviewColumns,
		r.UserID, string(r.Type), r.PeriodStart.UTC(), r.PeriodEnd.UTC(), contentJSON, prioritiesJSON, r.CreatedAt.UTC(),
	))
}

// LatestReview returns the review of typ with the latest period_end.
func (d *DB) LatestReview(ctx context.Context, userID int64, typ domain.ReviewType) (*domain.Review, error) {
	r, err := scanReview(d.sql.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE user_id = $1 AND type = $2 ORDER BY period_end DESC, id DESC LIMIT 1",
		userID, string(typ)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ReviewsEndingIn returns reviews of typ whose period_end is in [from, to).
func (d *DB) ReviewsEndingIn(ctx context.Context, userID int64, typ domain.ReviewType, from, to time.Time) ([]domain.Review, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE user_id = $1 AND type = $2 AND period_end >= $3 AND period_end < $4 ORDER BY period_end",
		userID, string(typ), from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
