package domain

import (
	"context"
	"time"
)

// ReviewType is the cadence a review satisfies.
type ReviewType string

// Review types.
const (
	ReviewDaily   ReviewType = "daily"
	ReviewWeekly  ReviewType = "weekly"
	ReviewMonthly ReviewType = "monthly"
)

// Valid reports whether t is a known review type.
func (t ReviewType) Valid() bool {
	switch t {
	case ReviewDaily, ReviewWeekly, ReviewMonthly:
		return true
	}
	return false
}

// Window is the cadence length of the review type. Daily has no rolling
// window; it is tied to the local calendar day.
func (t ReviewType) Window() time.Duration {
	switch t {
	case ReviewWeekly:
		return WeekDays * 24 * time.Hour
	case ReviewMonthly:
		return MonthDays * 24 * time.Hour
	}
	return 24 * time.Hour
}

// ProjectPriority is an optional priority assignment captured with a weekly
// review.
type ProjectPriority struct {
	ProjectID int64 `json:"projectId"`
	Priority  int   `json:"priority"`
}

// Review is an immutable record of a completed review.
//
// PeriodStart and PeriodEnd are local midnights. PeriodEnd is the most recent
// midnight at submission time; a daily review has PeriodStart == PeriodEnd.
type Review struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"userId"`
	Type              ReviewType        `json:"type"`
	PeriodStart       time.Time         `json:"periodStart"`
	PeriodEnd         time.Time         `json:"periodEnd"`
	Content           map[string]any    `json:"content"`
	ProjectPriorities []ProjectPriority `json:"projectPriorities,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// ReviewRepository is the port for review persistence. Reviews are
// insert-only.
type ReviewRepository interface {
	InsertReview(ctx context.Context, r *Review) (*Review, error)
	LatestReview(ctx context.Context, userID int64, typ ReviewType) (*Review, error)
	// ReviewsEndingIn returns reviews of typ whose PeriodEnd falls in [from, to).
	ReviewsEndingIn(ctx context.Context, userID int64, typ ReviewType, from, to time.Time) ([]Review, error)
}
