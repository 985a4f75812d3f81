package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cadence/internal/adapter/memory"
	"cadence/internal/domain"
)

var t0 = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

type focusFixture struct {
	clock *fixedClock
	db    *memory.DB
	svc   *FocusService
	user  int64
	task  int64
}

func newFocusFixture(t *testing.T) *focusFixture {
	t.Helper()
	clock := &fixedClock{now: t0}
	db := memory.New().WithClock(clock.Now)
	ctx := context.Background()

	u, err := db.Create(ctx, "alice", "", "UTC")
	if err != nil {
		t.Fatal(err)
	}
	task, err := NewTaskService(db, clock).Create(ctx, u.ID, "write report", nil)
	if err != nil {
		t.Fatal(err)
	}
	return &focusFixture{clock: clock, db: db, svc: NewFocusService(db, db, clock), user: u.ID, task: task.ID}
}

func TestFocus_PauseExcludedFromDuration(t *testing.T) {
	f := newFocusFixture(t)
	ctx := context.Background()

	s, err := f.svc.Start(ctx, f.user, f.task)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.clock.advance(10 * time.Minute)
	if _, err := f.svc.Pause(ctx, f.user, s.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	f.clock.advance(30 * time.Minute)
	resumed, err := f.svc.Resume(ctx, f.user, s.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.TotalPausedMs != (30 * time.Minute).Milliseconds() {
		t.Errorf("expected 30m paused, got %dms", resumed.TotalPausedMs)
	}
	f.clock.advance(10 * time.Minute)
	if got := f.svc.Elapsed(resumed); got != 20*time.Minute {
		t.Errorf("expected 20m elapsed, got %v", got)
	}

	ended, err := f.svc.End(ctx, f.user, s.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.DurationMinutes == nil || *ended.DurationMinutes != 20 {
		t.Errorf("expected 20 minutes, got %v", ended.DurationMinutes)
	}
	if cur, _ := f.svc.Current(ctx, f.user); cur != nil {
		t.Errorf("expected idle, got %+v", cur)
	}
}

func TestFocus_Transitions(t *testing.T) {
	f := newFocusFixture(t)
	ctx := context.Background()

	s, err := f.svc.Start(ctx, f.user, f.task)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Resume(ctx, f.user, s.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("resume active: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.svc.Pause(ctx, f.user, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Pause(ctx, f.user, s.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("pause paused: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.svc.Start(ctx, f.user, f.task); !errors.Is(err, ErrFinishExisting) {
		t.Errorf("second start: expected ErrFinishExisting, got %v", err)
	}

	f.clock.advance(5 * time.Minute)
	ended, err := f.svc.End(ctx, f.user, s.ID)
	if err != nil {
		t.Fatalf("end while paused: %v", err)
	}
	if *ended.DurationMinutes != 0 {
		t.Errorf("paused time must not count, got %d", *ended.DurationMinutes)
	}

	if _, err := f.svc.End(ctx, f.user, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("end closed: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Pause(ctx, f.user, s.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("pause closed: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.svc.Pause(ctx, f.user, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("pause unknown: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Start(ctx, f.user, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("start on unknown task: expected ErrNotFound, got %v", err)
	}
}

func TestFocus_OtherUsersSessionIsHidden(t *testing.T) {
	f := newFocusFixture(t)
	ctx := context.Background()

	s, err := f.svc.Start(ctx, f.user, f.task)
	if err != nil {
		t.Fatal(err)
	}
	bob, err := f.db.Create(ctx, "bob", "", "UTC")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Pause(ctx, bob.ID, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another user's session, got %v", err)
	}
}

func TestFocus_ConcurrentStartsOpenOneSession(t *testing.T) {
	f := newFocusFixture(t)
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Start(ctx, f.user, f.task)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrFinishExisting) && errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != n-1 {
		t.Errorf("expected 1 success and %d conflicts, got %d and %d", n-1, successes, conflicts)
	}
}

func TestFocus_Recover(t *testing.T) {
	f := newFocusFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Recover(ctx, f.user, 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound with nothing open, got %v", err)
	}

	s, err := f.svc.Start(ctx, f.user, f.task)
	if err != nil {
		t.Fatal(err)
	}
	f.clock.advance(15 * time.Minute)
	if _, err := f.svc.Pause(ctx, f.user, s.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(8 * time.Hour)

	closed, err := f.svc.Recover(ctx, f.user, 0)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if closed.ID != s.ID || *closed.DurationMinutes != 15 {
		t.Errorf("expected session %d with 15 min, got %d with %d", s.ID, closed.ID, *closed.DurationMinutes)
	}
	if _, err := f.svc.Recover(ctx, f.user, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("recover closed: expected ErrNotFound, got %v", err)
	}

	if _, err := f.svc.Start(ctx, f.user, f.task); err != nil {
		t.Errorf("start after recover: %v", err)
	}
}

func TestFocus_StorageErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	ctx := context.Background()
	clock := &fixedClock{now: t0}

	tests := []struct {
		name  string
		repo  *mockFocusRepo
		tasks *mockTaskRepo
		call  func(*FocusService) error
	}{
		{
			name:  "task lookup",
			repo:  &mockFocusRepo{},
			tasks: &mockTaskRepo{getTaskFn: func(context.Context, int64, int64) (*domain.Task, error) { return nil, boom }},
			call:  func(s *FocusService) error { _, err := s.Start(ctx, 1, 1); return err },
		},
		{
			name: "insert",
			repo: &mockFocusRepo{createFn: func(context.Context, *domain.FocusSession) (*domain.FocusSession, error) {
				return nil, boom
			}},
			tasks: &mockTaskRepo{},
			call:  func(s *FocusService) error { _, err := s.Start(ctx, 1, 1); return err },
		},
		{
			name: "update",
			repo: &mockFocusRepo{
				getFn: func(_ context.Context, userID, id int64) (*domain.FocusSession, error) {
					fs := domain.NewFocusSession(userID, 1, t0)
					fs.ID = id
					return &fs, nil
				},
				updateFn: func(context.Context, *domain.FocusSession, *domain.FocusSession) error { return boom },
			},
			tasks: &mockTaskRepo{},
			call:  func(s *FocusService) error { _, err := s.Pause(ctx, 1, 1); return err },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(NewFocusService(tt.repo, tt.tasks, clock))
			if !errors.Is(err, boom) {
				t.Fatalf("expected storage error, got %v", err)
			}
			for _, sentinel := range []error{domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalidState, domain.ErrValidation} {
				if errors.Is(err, sentinel) {
					t.Errorf("storage error must not match %v", sentinel)
				}
			}
		})
	}
}

func TestFocus_RecoverRetriesAfterConcurrentPause(t *testing.T) {
	active := domain.NewFocusSession(1, 1, t0)
	active.ID = 5
	paused, _ := active.Pause(t0.Add(10 * time.Minute))

	reads, swaps := 0, 0
	repo := &mockFocusRepo{
		getFn: func(context.Context, int64, int64) (*domain.FocusSession, error) {
			reads++
			if reads == 1 {
				cp := active
				return &cp, nil
			}
			cp := paused
			return &cp, nil
		},
		updateFn: func(_ context.Context, prev, _ *domain.FocusSession) error {
			swaps++
			if prev.PausedAt == nil {
				return domain.ErrInvalidState
			}
			return nil
		},
	}
	svc := NewFocusService(repo, &mockTaskRepo{}, &fixedClock{now: t0.Add(time.Hour)})

	closed, err := svc.Recover(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if reads != 2 || swaps != 2 {
		t.Errorf("expected one retry, got %d reads and %d swaps", reads, swaps)
	}
	if *closed.DurationMinutes != 10 {
		t.Errorf("expected 10 minutes, got %d", *closed.DurationMinutes)
	}
}

func TestFocus_RecoverGivesUpAfterRetry(t *testing.T) {
	repo := &mockFocusRepo{
		openFn: func(_ context.Context, userID int64) (*domain.FocusSession, error) {
			fs := domain.NewFocusSession(userID, 1, t0)
			fs.ID = 5
			return &fs, nil
		},
		updateFn: func(context.Context, *domain.FocusSession, *domain.FocusSession) error {
			return domain.ErrInvalidState
		},
	}
	_, err := NewFocusService(repo, &mockTaskRepo{}, &fixedClock{now: t0}).Recover(context.Background(), 1, 0)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState after the retry, got %v", err)
	}
}
