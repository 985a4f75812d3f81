package app

import (
	"context"
	"time"

	"cadence/internal/domain"
)

// PeriodService resolves period boundaries against a user's profile zone.
type PeriodService struct {
	users domain.UserRepository
	clock Clock
}

// NewPeriodService creates a PeriodService.
func NewPeriodService(users domain.UserRepository, clock Clock) *PeriodService {
	return &PeriodService{users: users, clock: clock}
}

// DayRange returns the local day containing at (now when zero) in tz, or in
// the user's profile zone when tz is empty.
func (s *PeriodService) DayRange(ctx context.Context, userID int64, tz string, at time.Time) (domain.Range, string, error) {
	if tz == "" {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return domain.Range{}, "", err
		}
		tz = resolveTimezone(user, "")
	}
	if at.IsZero() {
		at = s.clock.Now()
	}
	loc := domain.LoadLocation(tz)
	return domain.DayRangeIn(loc, at), loc.String(), nil
}
