package app

import (
	"context"
	"time"

	"cadence/internal/domain"
)

// MilestoneState lists the milestone ids a user has reached.
type MilestoneState struct {
	Reached []string `json:"reached"`
}

// StreakState is derived on every call from task, review and focus history.
type StreakState struct {
	CompletionStreak  int               `json:"completionStreak"`
	DailyReviewStreak int               `json:"dailyReviewStreak"`
	FocusDaysStreak   int               `json:"focusDaysStreak"`
	Milestones        MilestoneState    `json:"milestones"`
	Totals            domain.Aggregates `json:"totals"`
}

// GamificationService computes streaks and milestones. It never writes.
type GamificationService struct {
	tasks    domain.TaskRepository
	sessions domain.FocusSessionRepository
	reviews  domain.ReviewRepository
	users    domain.UserRepository
	clock    Clock
}

// NewGamificationService creates a GamificationService over the history
// repositories.
func NewGamificationService(
	tasks domain.TaskRepository,
	sessions domain.FocusSessionRepository,
	reviews domain.ReviewRepository,
	users domain.UserRepository,
	clock Clock,
) *GamificationService {
	return &GamificationService{tasks: tasks, sessions: sessions, reviews: reviews, users: users, clock: clock}
}

// Get returns the user's streaks and reached milestones, bucketing days in
// tz (or the profile timezone when tz is empty).
func (s *GamificationService) Get(ctx context.Context, userID int64, tz string) (*StreakState, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := domain.LoadLocation(resolveTimezone(user, tz))
	now := s.clock.Now()
	until := domain.DayRangeIn(loc, now).End

	completions, err := s.tasks.CompletionTimes(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	dailies, err := s.reviews.ReviewsEndingIn(ctx, userID, domain.ReviewDaily, time.Time{}, until)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ClosedSessions(ctx, userID, time.Time{}, until)
	if err != nil {
		return nil, err
	}

	reviewDays := make(domain.DaySet, len(dailies))
	for _, r := range dailies {
		reviewDays.Add(loc, r.PeriodEnd)
	}
	focusDays := make(domain.DaySet, len(sessions))
	for _, fs := range sessions {
		focusDays.Add(loc, fs.StartTime)
	}

	completed, err := s.tasks.CountCompletedTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	focus, err := s.sessions.FocusTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	totals := domain.Aggregates{
		CompletedTasks: completed,
		FocusSessions:  focus.Sessions,
		FocusMinutes:   focus.Minutes,
	}

	return &StreakState{
		CompletionStreak:  domain.Streak(loc, domain.NewDaySet(loc, completions...), now),
		DailyReviewStreak: domain.Streak(loc, reviewDays, now),
		FocusDaysStreak:   domain.Streak(loc, focusDays, now),
		Milestones:        MilestoneState{Reached: domain.ReachedMilestones(totals)},
		Totals:            totals,
	}, nil
}
