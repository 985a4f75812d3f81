package app

import (
	"context"
	"fmt"

	"cadence/internal/domain"
)

const maxActivityDays = 366

// ActivityService builds per-day dashboard series.
type ActivityService struct {
	tasks    domain.TaskRepository
	sessions domain.FocusSessionRepository
	reviews  domain.ReviewRepository
	users    domain.UserRepository
	clock    Clock
}

// NewActivityService creates an ActivityService backed by the given repositories.
func NewActivityService(
	tasks domain.TaskRepository,
	sessions domain.FocusSessionRepository,
	reviews domain.ReviewRepository,
	users domain.UserRepository,
	clock Clock,
) *ActivityService {
	return &ActivityService{tasks: tasks, sessions: sessions, reviews: reviews, users: users, clock: clock}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day            string `json:"day"`
	CompletedTasks int    `json:"completedTasks"`
	FocusSessions  int    `json:"focusSessions"`
	FocusMinutes   int    `json:"focusMinutes"`
	DailyReview    bool   `json:"dailyReview"`
}

// GetDaily returns one point per local day for the last days days, oldest
// first and ending today.
func (s *ActivityService) GetDaily(ctx context.Context, userID int64, tz string, days int) ([]DayPoint, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", domain.ErrValidation)
	}
	if days > maxActivityDays {
		days = maxActivityDays
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := domain.LoadLocation(resolveTimezone(user, tz))
	today := domain.DayRangeIn(loc, s.clock.Now())
	y, m, d := today.Start.In(loc).Date()
	from := domain.DayRangeOf(loc, y, m, d-(days-1)).Start

	completions, err := s.tasks.CompletionTimes(ctx, userID, from)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ClosedSessions(ctx, userID, from, today.End)
	if err != nil {
		return nil, err
	}
	dailies, err := s.reviews.ReviewsEndingIn(ctx, userID, domain.ReviewDaily, from, today.End)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DayPoint, days)
	points := make([]DayPoint, days)
	for i := range points {
		points[i].Day = domain.DayKey(loc, domain.DayRangeOf(loc, y, m, d-(days-1-i)).Start)
		byDay[points[i].Day] = &points[i]
	}
	for _, t := range completions {
		if p, ok := byDay[domain.DayKey(loc, t)]; ok {
			p.CompletedTasks++
		}
	}
	for _, fs := range sessions {
		if p, ok := byDay[domain.DayKey(loc, fs.StartTime)]; ok {
			p.FocusSessions++
			if fs.DurationMinutes != nil {
				p.FocusMinutes += *fs.DurationMinutes
			}
		}
	}
	for _, r := range dailies {
		if p, ok := byDay[domain.DayKey(loc, r.PeriodEnd)]; ok {
			p.DailyReview = true
		}
	}
	return points, nil
}
