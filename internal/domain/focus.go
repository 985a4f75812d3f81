package domain

import (
	"context"
	"fmt"
	"time"
)

// FocusState is the derived state of a focus session.
type FocusState string

// Focus session states. Idle has no stored row.
const (
	FocusIdle   FocusState = "idle"
	FocusActive FocusState = "active"
	FocusPaused FocusState = "paused"
	FocusClosed FocusState = "closed"
)

// FocusSession is one timed work interval on a task.
type FocusSession struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"userId"`
	TaskID          int64      `json:"taskId"`
	StartTime       time.Time  `json:"startTime"`
	PausedAt        *time.Time `json:"pausedAt"`
	TotalPausedMs   int64      `json:"totalPausedMs"`
	EndTime         *time.Time `json:"endTime"`
	DurationMinutes *int       `json:"durationMinutes"`
}

// State derives the session state from its timestamps.
func (s *FocusSession) State() FocusState {
	switch {
	case s == nil:
		return FocusIdle
	case s.EndTime != nil:
		return FocusClosed
	case s.PausedAt != nil:
		return FocusPaused
	default:
		return FocusActive
	}
}

// IsOpen reports whether the session has not been closed.
func (s *FocusSession) IsOpen() bool { return s.EndTime == nil }

// Elapsed returns focused time up to now, excluding completed pauses and
// the pause in progress, if any.
func (s *FocusSession) Elapsed(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	paused := time.Duration(s.TotalPausedMs) * time.Millisecond
	if s.EndTime == nil && s.PausedAt != nil && end.After(*s.PausedAt) {
		paused += end.Sub(*s.PausedAt)
	}
	d := end.Sub(s.StartTime) - paused
	if d < 0 {
		return 0
	}
	return d
}

// NewFocusSession returns an open, active session starting at now.
func NewFocusSession(userID, taskID int64, now time.Time) FocusSession {
	return FocusSession{UserID: userID, TaskID: taskID, StartTime: now}
}

// Pause returns the session paused at now.
func (s FocusSession) Pause(now time.Time) (FocusSession, error) {
	switch s.State() {
	case FocusClosed:
		return s, fmt.Errorf("%w: session %d is already ended", ErrInvalidState, s.ID)
	case FocusPaused:
		return s, fmt.Errorf("%w: session %d is already paused", ErrInvalidState, s.ID)
	}
	at := now
	s.PausedAt = &at
	return s, nil
}

// Resume returns the session with the current pause folded into
// TotalPausedMs.
func (s FocusSession) Resume(now time.Time) (FocusSession, error) {
	if s.State() != FocusPaused {
		return s, fmt.Errorf("%w: session %d is not paused", ErrInvalidState, s.ID)
	}
	s.TotalPausedMs += pauseMillis(*s.PausedAt, now)
	s.PausedAt = nil
	return s, nil
}

// Close ends the session at now. A pause still in progress counts as paused
// time, so a session abandoned while paused does not accrue focus minutes.
func (s FocusSession) Close(now time.Time) (FocusSession, error) {
	if !s.IsOpen() {
		return s, fmt.Errorf("%w: session %d is already ended", ErrInvalidState, s.ID)
	}
	if s.PausedAt != nil {
		s.TotalPausedMs += pauseMillis(*s.PausedAt, now)
		s.PausedAt = nil
	}
	end := now
	s.EndTime = &end
	minutes := DurationMinutes(s.StartTime, now, s.TotalPausedMs)
	s.DurationMinutes = &minutes
	return s, nil
}

// DurationMinutes is floor((now - start - pausedMs) / 1m), never negative.
func DurationMinutes(start, now time.Time, totalPausedMs int64) int {
	ms := now.Sub(start).Milliseconds() - totalPausedMs
	if ms <= 0 {
		return 0
	}
	return int(ms / 60000)
}

func pauseMillis(pausedAt, now time.Time) int64 {
	if !now.After(pausedAt) {
		return 0
	}
	return now.Sub(pausedAt).Milliseconds()
}

// FocusTotals aggregates a user's closed sessions.
type FocusTotals struct {
	Sessions int `json:"sessions"`
	Minutes  int `json:"minutes"`
}

// FocusSessionRepository is the port for focus-session persistence.
//
// CreateOpenSession must be atomic with respect to concurrent calls for the
// same user and return ErrConflict when an open session already exists.
// UpdateOpenSession is a compare-and-swap: it writes next only if the stored
// row is still open with the same PausedAt as prev, returning ErrInvalidState
// otherwise.
type FocusSessionRepository interface {
	CreateOpenSession(ctx context.Context, s *FocusSession) (*FocusSession, error)
	GetFocusSession(ctx context.Context, userID, id int64) (*FocusSession, error)
	OpenFocusSession(ctx context.Context, userID int64) (*FocusSession, error)
	UpdateOpenSession(ctx context.Context, prev, next *FocusSession) error
	// ClosedSessions returns closed sessions whose StartTime falls in [from, to).
	ClosedSessions(ctx context.Context, userID int64, from, to time.Time) ([]FocusSession, error)
	FocusTotals(ctx context.Context, userID int64) (FocusTotals, error)
}
