// Package app holds the application services and business logic.
package app

import (
	"time"

	"cadence/internal/domain"
)

// Clock supplies the current instant. Services never read the wall clock
// directly so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// resolveTimezone picks the explicit override when given, else the user's
// profile zone, else UTC. The result may still be unknown to the tz
// database; the period calculator degrades those to UTC.
func resolveTimezone(user *domain.User, override string) string {
	if override != "" {
		return override
	}
	if user != nil && user.Timezone != "" {
		return user.Timezone
	}
	return domain.DefaultTimezone
}
