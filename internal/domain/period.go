package domain

import (
	"time"
)

// DefaultTimezone is used for users without a timezone and for any zone
// identifier the tz database does not recognise.
const DefaultTimezone = "UTC"

const dayLayout = "2006-01-02"

const (
	// WeekDays is the length of the rolling weekly window.
	WeekDays = 7
	// MonthDays is the length of the rolling "monthly" window. It is not
	// calendar-month aligned.
	MonthDays = 30
)

// Range is a half-open instant interval [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// LoadLocation resolves an IANA zone identifier. Unknown or empty identifiers
// fall back to UTC instead of failing.
func LoadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidTimezone reports whether tz names a zone known to the tz database.
func ValidTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// DayRangeOf returns the instants bounding the calendar day y-m-d in loc.
// Both bounds are wall-clock midnights, so a DST day is 23 or 25 hours long.
func DayRangeOf(loc *time.Location, y int, m time.Month, d int) Range {
	return Range{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d+1, 0, 0, 0, 0, loc),
	}
}

// DayRangeIn returns the calendar day containing now as observed in loc.
func DayRangeIn(loc *time.Location, now time.Time) Range {
	y, m, d := now.In(loc).Date()
	return DayRangeOf(loc, y, m, d)
}

// DayRange returns the calendar day containing now in timezone tz.
func DayRange(tz string, now time.Time) Range {
	return DayRangeIn(LoadLocation(tz), now)
}

// WeekRange is the rolling 7-day window ending at the most recent local
// midnight at or before now.
func WeekRange(tz string, now time.Time) Range {
	return rollingRange(LoadLocation(tz), now, WeekDays)
}

// MonthRange is the rolling 30-day window ending at the most recent local
// midnight at or before now.
func MonthRange(tz string, now time.Time) Range {
	return rollingRange(LoadLocation(tz), now, MonthDays)
}

func rollingRange(loc *time.Location, now time.Time, days int) Range {
	y, m, d := now.In(loc).Date()
	return Range{
		Start: time.Date(y, m, d-days, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d, 0, 0, 0, 0, loc),
	}
}

// DayKey buckets t into its local calendar date, formatted as 2006-01-02.
func DayKey(loc *time.Location, t time.Time) string {
	return t.In(loc).Format(dayLayout)
}

// PreviousDay returns the start of the local day before the one beginning at
// dayStart.
func PreviousDay(loc *time.Location, dayStart time.Time) time.Time {
	y, m, d := dayStart.In(loc).Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, loc)
}

// ParseDay parses a 2006-01-02 date as local midnight in loc.
func ParseDay(loc *time.Location, day string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, day, loc)
}
