package app

import (
	"context"
	"fmt"
	"time"

	"cadence/internal/domain"
)

// ReviewStatus reports which reviews a user currently owes.
type ReviewStatus struct {
	Timezone             string       `json:"timezone"`
	Today                domain.Range `json:"today"`
	DailyRequired        bool         `json:"dailyRequired"`
	WeeklyRequired       bool         `json:"weeklyRequired"`
	MonthlyRequired      bool         `json:"monthlyRequired"`
	DailyDone            bool         `json:"dailyDone"`
	WeeklyLastPeriodEnd  *time.Time   `json:"weeklyLastPeriodEnd"`
	MonthlyLastPeriodEnd *time.Time   `json:"monthlyLastPeriodEnd"`
}

// ReviewService tracks review cadences and accepts review submissions.
type ReviewService struct {
	reviews domain.ReviewRepository
	users   domain.UserRepository
	clock   Clock
}

// NewReviewService creates a ReviewService backed by the given repositories.
func NewReviewService(reviews domain.ReviewRepository, users domain.UserRepository, clock Clock) *ReviewService {
	return &ReviewService{reviews: reviews, users: users, clock: clock}
}

// Status computes the due flags for userID. tz overrides the profile
// timezone when non-empty.
func (s *ReviewService) Status(ctx context.Context, userID int64, tz string) (*ReviewStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tz = resolveTimezone(user, tz)
	now := s.clock.Now()
	today := domain.DayRange(tz, now)

	dailies, err := s.reviews.ReviewsEndingIn(ctx, userID, domain.ReviewDaily, today.Start, today.End)
	if err != nil {
		return nil, err
	}
	weekly, err := s.reviews.LatestReview(ctx, userID, domain.ReviewWeekly)
	if err != nil {
		return nil, err
	}
	monthly, err := s.reviews.LatestReview(ctx, userID, domain.ReviewMonthly)
	if err != nil {
		return nil, err
	}

	st := &ReviewStatus{
		Timezone:        domain.LoadLocation(tz).String(),
		Today:           today,
		DailyDone:       len(dailies) > 0,
		WeeklyRequired:  cadenceDue(weekly, domain.ReviewWeekly, user, now),
		MonthlyRequired: cadenceDue(monthly, domain.ReviewMonthly, user, now),
	}
	st.DailyRequired = !st.DailyDone
	if weekly != nil {
		end := weekly.PeriodEnd
		st.WeeklyLastPeriodEnd = &end
	}
	if monthly != nil {
		end := monthly.PeriodEnd
		st.MonthlyLastPeriodEnd = &end
	}
	return st, nil
}

// cadenceDue applies the rolling-window rule. A user who never submitted is
// granted one full window from account creation.
func cadenceDue(latest *domain.Review, typ domain.ReviewType, user *domain.User, now time.Time) bool {
	window := typ.Window()
	if latest == nil {
		if user == nil || user.CreatedAt.IsZero() {
			return true
		}
		return now.Sub(user.CreatedAt) >= window
	}
	return now.Sub(latest.PeriodEnd) > window
}

// SubmitDaily records today's daily review. A second one on the same local
// day is rejected.
func (s *ReviewService) SubmitDaily(ctx context.Context, userID int64, content map[string]any) (*domain.Review, error) {
	return s.submit(ctx, userID, domain.ReviewDaily, content, nil)
}

// SubmitWeekly records a weekly review unless the latest one ended less than
// seven days ago.
func (s *ReviewService) SubmitWeekly(ctx context.Context, userID int64, content map[string]any, priorities []domain.ProjectPriority) (*domain.Review, error) {
	for _, p := range priorities {
		if p.ProjectID <= 0 || p.Priority < 0 {
			return nil, fmt.Errorf("%w: invalid project priority %+v", domain.ErrValidation, p)
		}
	}
	return s.submit(ctx, userID, domain.ReviewWeekly, content, priorities)
}

// SubmitMonthly records a monthly review with a thirty-day cooldown.
func (s *ReviewService) SubmitMonthly(ctx context.Context, userID int64, content map[string]any) (*domain.Review, error) {
	return s.submit(ctx, userID, domain.ReviewMonthly, content, nil)
}

// Submit dispatches on typ.
func (s *ReviewService) Submit(ctx context.Context, userID int64, typ domain.ReviewType, content map[string]any) (*domain.Review, error) {
	switch typ {
	case domain.ReviewDaily:
		return s.SubmitDaily(ctx, userID, content)
	case domain.ReviewWeekly:
		return s.SubmitWeekly(ctx, userID, content, nil)
	case domain.ReviewMonthly:
		return s.SubmitMonthly(ctx, userID, content)
	}
	return nil, fmt.Errorf("%w: unknown review type %q", domain.ErrValidation, typ)
}

func (s *ReviewService) submit(ctx context.Context, userID int64, typ domain.ReviewType, content map[string]any, priorities []domain.ProjectPriority) (*domain.Review, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tz := resolveTimezone(user, "")
	now := s.clock.Now()

	var period domain.Range
	switch typ {
	case domain.ReviewDaily:
		today := domain.DayRange(tz, now)
		existing, err := s.reviews.ReviewsEndingIn(ctx, userID, typ, today.Start, today.End)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, fmt.Errorf("%w: daily review already submitted today", domain.ErrValidation)
		}
		period = domain.Range{Start: today.Start, End: today.Start}
	default:
		latest, err := s.reviews.LatestReview(ctx, userID, typ)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			if remaining := latest.PeriodEnd.Add(typ.Window()).Sub(now); remaining > 0 {
				return nil, &domain.CooldownError{Type: typ, Remaining: remaining}
			}
		}
		if typ == domain.ReviewWeekly {
			period = domain.WeekRange(tz, now)
		} else {
			period = domain.MonthRange(tz, now)
		}
	}

	if content == nil {
		content = map[string]any{}
	}
	return s.reviews.InsertReview(ctx, &domain.Review{
		UserID:            userID,
		Type:              typ,
		PeriodStart:       period.Start,
		PeriodEnd:         period.End,
		Content:           content,
		ProjectPriorities: priorities,
		CreatedAt:         now,
	})
}
