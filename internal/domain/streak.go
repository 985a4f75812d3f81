package domain

import "time"

// DaySet is a set of local calendar dates keyed by DayKey.
type DaySet map[string]struct{}

// NewDaySet buckets every instant into its local date in loc.
func NewDaySet(loc *time.Location, times ...time.Time) DaySet {
	s := make(DaySet, len(times))
	for _, t := range times {
		s.Add(loc, t)
	}
	return s
}

// Add buckets t into its local date.
func (s DaySet) Add(loc *time.Location, t time.Time) {
	s[DayKey(loc, t)] = struct{}{}
}

// Has reports whether the date key is present.
func (s DaySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Streak counts consecutive local days present in days, walking back from
// the day containing now. Today counts when present; when absent it is
// skipped without breaking the streak, since the day is not over yet.
func Streak(loc *time.Location, days DaySet, now time.Time) int {
	day := DayRangeIn(loc, now).Start
	if !days.Has(DayKey(loc, day)) {
		day = PreviousDay(loc, day)
	}
	n := 0
	for days.Has(DayKey(loc, day)) {
		n++
		day = PreviousDay(loc, day)
	}
	return n
}

// Aggregates are the lifetime totals milestones are evaluated against. All
// of them are non-decreasing as long as done tasks and closed sessions are
// never deleted.
type Aggregates struct {
	CompletedTasks int `json:"completedTasks"`
	FocusSessions  int `json:"focusSessions"`
	FocusMinutes   int `json:"focusMinutes"`
}

// MilestoneFamily groups milestones by the aggregate they watch.
type MilestoneFamily string

// Milestone families.
const (
	FamilyTasks MilestoneFamily = "tasks"
	FamilyFocus MilestoneFamily = "focus"
)

// Milestone is a one-time unlock over lifetime aggregates.
type Milestone struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Family MilestoneFamily `json:"family"`
	reach  func(Aggregates) bool
}

// Reached reports whether a meets the milestone threshold.
func (m Milestone) Reached(a Aggregates) bool { return m.reach(a) }

func tasksAtLeast(n int) func(Aggregates) bool {
	return func(a Aggregates) bool { return a.CompletedTasks >= n }
}

func sessionsAtLeast(n int) func(Aggregates) bool {
	return func(a Aggregates) bool { return a.FocusSessions >= n }
}

func minutesAtLeast(n int) func(Aggregates) bool {
	return func(a Aggregates) bool { return a.FocusMinutes >= n }
}

var milestones = []Milestone{
	{ID: "tasks_1", Label: "First task done", Family: FamilyTasks, reach: tasksAtLeast(1)},
	{ID: "tasks_10", Label: "10 tasks done", Family: FamilyTasks, reach: tasksAtLeast(10)},
	{ID: "tasks_50", Label: "50 tasks done", Family: FamilyTasks, reach: tasksAtLeast(50)},
	{ID: "tasks_100", Label: "100 tasks done", Family: FamilyTasks, reach: tasksAtLeast(100)},
	{ID: "tasks_500", Label: "500 tasks done", Family: FamilyTasks, reach: tasksAtLeast(500)},
	{ID: "focus_1", Label: "First focus session", Family: FamilyFocus, reach: sessionsAtLeast(1)},
	{ID: "focus_10", Label: "10 focus sessions", Family: FamilyFocus, reach: sessionsAtLeast(10)},
	{ID: "focus_50", Label: "50 focus sessions", Family: FamilyFocus, reach: sessionsAtLeast(50)},
	{ID: "focus_hours_10", Label: "10 hours focused", Family: FamilyFocus, reach: minutesAtLeast(10 * 60)},
	{ID: "focus_hours_100", Label: "100 hours focused", Family: FamilyFocus, reach: minutesAtLeast(100 * 60)},
}

// Milestones returns a copy of the milestone catalogue in display order.
func Milestones() []Milestone {
	out := make([]Milestone, len(milestones))
	copy(out, milestones)
	return out
}

// ReachedMilestones returns the ids of every milestone met by a, in
// catalogue order.
func ReachedMilestones(a Aggregates) []string {
	reached := make([]string, 0, len(milestones))
	for _, m := range milestones {
		if m.Reached(a) {
			reached = append(reached, m.ID)
		}
	}
	return reached
}
