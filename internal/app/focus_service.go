package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cadence/internal/domain"
)

// ErrFinishExisting is returned when a user with an open focus session tries
// to start another one.
var ErrFinishExisting = fmt.Errorf("%w: finish your existing session first", domain.ErrConflict)

// FocusService runs the per-user focus-session state machine.
type FocusService struct {
	sessions domain.FocusSessionRepository
	tasks    domain.TaskRepository
	clock    Clock
}

// NewFocusService creates a FocusService backed by the given repositories.
func NewFocusService(sessions domain.FocusSessionRepository, tasks domain.TaskRepository, clock Clock) *FocusService {
	return &FocusService{sessions: sessions, tasks: tasks, clock: clock}
}

// Start opens a session on taskID. The open-session lookup is only an early
// exit; the repository's atomic insert is what enforces one open session.
func (s *FocusService) Start(ctx context.Context, userID, taskID int64) (*domain.FocusSession, error) {
	task, err := s.tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, taskID)
	}

	open, err := s.sessions.OpenFocusSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrFinishExisting
	}

	next := domain.NewFocusSession(userID, taskID, s.clock.Now())
	created, err := s.sessions.CreateOpenSession(ctx, &next)
	if errors.Is(err, domain.ErrConflict) {
		log.Printf("focus: user %d lost a concurrent start on task %d", userID, taskID)
		return nil, ErrFinishExisting
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Pause pauses an active session.
func (s *FocusService) Pause(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	cur, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cur, domain.FocusSession.Pause)
}

// Resume resumes a paused session.
func (s *FocusService) Resume(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	cur, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cur, domain.FocusSession.Resume)
}

// End closes an open session and records its duration.
func (s *FocusService) End(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	cur, err := s.getOpen(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, cur, domain.FocusSession.Close)
}

// Recover force-closes an orphaned session whatever its pause state. With
// id == 0 it closes the user's open session, if any. A pause or resume that
// lands between the read and the swap is retried once against the new state.
func (s *FocusService) Recover(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	var (
		cur    *domain.FocusSession
		closed *domain.FocusSession
		err    error
	)
	for attempt := 0; attempt < 2; attempt++ {
		cur, err = s.openForRecover(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		closed, err = s.apply(ctx, cur, domain.FocusSession.Close)
		if !errors.Is(err, domain.ErrInvalidState) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	log.Printf("focus: recovered session %d for user %d (was %s, %d min)", closed.ID, userID, cur.State(), *closed.DurationMinutes)
	return closed, nil
}

func (s *FocusService) openForRecover(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	if id != 0 {
		return s.getOpen(ctx, userID, id)
	}
	cur, err := s.sessions.OpenFocusSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: no open focus session", domain.ErrNotFound)
	}
	return cur, nil
}

// Current returns the user's open session, or nil when idle.
func (s *FocusService) Current(ctx context.Context, userID int64) (*domain.FocusSession, error) {
	return s.sessions.OpenFocusSession(ctx, userID)
}

// Elapsed reports focused time of a session as of now.
func (s *FocusService) Elapsed(sess *domain.FocusSession) time.Duration {
	return sess.Elapsed(s.clock.Now())
}

// List returns closed sessions started inside r.
func (s *FocusService) List(ctx context.Context, userID int64, r domain.Range) ([]domain.FocusSession, error) {
	return s.sessions.ClosedSessions(ctx, userID, r.Start, r.End)
}

func (s *FocusService) get(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	cur, err := s.sessions.GetFocusSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: focus session %d", domain.ErrNotFound, id)
	}
	return cur, nil
}

func (s *FocusService) getOpen(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	cur, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !cur.IsOpen() {
		return nil, fmt.Errorf("%w: open focus session %d", domain.ErrNotFound, id)
	}
	return cur, nil
}

func (s *FocusService) apply(
	ctx context.Context,
	cur *domain.FocusSession,
	transition func(domain.FocusSession, time.Time) (domain.FocusSession, error),
) (*domain.FocusSession, error) {
	next, err := transition(*cur, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateOpenSession(ctx, cur, &next); err != nil {
		return nil, err
	}
	return &next, nil
}
