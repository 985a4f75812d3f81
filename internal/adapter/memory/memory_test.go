package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cadence/internal/domain"
)

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "bob", "hash", "Asia/Tokyo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "bob" || u.Timezone != "Asia/Tokyo" {
		t.Errorf("unexpected user: %+v", u)
	}
	if _, err := db.Create(ctx, "bob", "hash", "UTC"); err == nil {
		t.Error("expected duplicate username error")
	}

	if err := db.SetTimezone(ctx, u.ID, "Europe/Paris"); err != nil {
		t.Fatalf("SetTimezone: %v", err)
	}
	u2, err := db.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u2 == nil || u2.Timezone != "Europe/Paris" {
		t.Errorf("timezone not updated: %+v", u2)
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
	if err := db.SetTimezone(ctx, 999, "UTC"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	task, err := db.CreateTask(ctx, &domain.Task{UserID: 1, Title: "write", Status: domain.TaskBacklog, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// Other user cannot see it.
	if got, _ := db.GetTask(ctx, 2, task.ID); got != nil {
		t.Error("expected task to be scoped to its owner")
	}
	if got, _ := db.UpdateTaskStatus(ctx, 2, task.ID, domain.TaskDone, now); got != nil {
		t.Error("expected update by other user to miss")
	}

	focused, _ := db.UpdateTaskStatus(ctx, 1, task.ID, domain.TaskFocus, now.Add(time.Hour))
	if focused.FocusDate == nil {
		t.Error("expected focus date stamped")
	}
	done, _ := db.UpdateTaskStatus(ctx, 1, task.ID, domain.TaskDone, now.Add(2*time.Hour))
	if !done.UpdatedAt.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("updatedAt = %v", done.UpdatedAt)
	}

	times, _ := db.CompletionTimes(ctx, 1, now)
	if len(times) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(times))
	}
	if times, _ := db.CompletionTimes(ctx, 1, now.Add(3*time.Hour)); len(times) != 0 {
		t.Errorf("expected no completions after since, got %d", len(times))
	}
	if n, _ := db.CountCompletedTasks(ctx, 1); n != 1 {
		t.Errorf("expected 1 completed, got %d", n)
	}
	if list, _ := db.ListTasks(ctx, 1, domain.TaskBacklog); len(list) != 0 {
		t.Errorf("expected no backlog tasks, got %d", len(list))
	}
}

func TestFocusRepository_OneOpenSession(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Now()

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := domain.NewFocusSession(1, 1, now)
			_, err := db.CreateOpenSession(ctx, &s)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", n-1, ok, conflicts)
	}

	// Another user is unaffected.
	s := domain.NewFocusSession(2, 1, now)
	if _, err := db.CreateOpenSession(ctx, &s); err != nil {
		t.Fatalf("second user: %v", err)
	}
}

func TestFocusRepository_CompareAndSwap(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	s := domain.NewFocusSession(1, 1, now)
	created, _ := db.CreateOpenSession(ctx, &s)

	paused, _ := created.Pause(now.Add(time.Minute))
	if err := db.UpdateOpenSession(ctx, created, &paused); err != nil {
		t.Fatalf("pause update: %v", err)
	}
	// A second writer still holding the unpaused row loses.
	again, _ := created.Pause(now.Add(2 * time.Minute))
	if err := db.UpdateOpenSession(ctx, created, &again); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	closed, _ := paused.Close(now.Add(10 * time.Minute))
	if err := db.UpdateOpenSession(ctx, &paused, &closed); err != nil {
		t.Fatalf("close update: %v", err)
	}
	if open, _ := db.OpenFocusSession(ctx, 1); open != nil {
		t.Error("expected no open session after close")
	}

	list, _ := db.ClosedSessions(ctx, 1, now, now.Add(time.Hour))
	if len(list) != 1 {
		t.Fatalf("expected 1 closed session, got %d", len(list))
	}
	totals, _ := db.FocusTotals(ctx, 1)
	if totals.Sessions != 1 || totals.Minutes != 1 {
		t.Errorf("unexpected totals: %+v", totals)
	}
}

func TestReviewRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	d := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	for i, end := range []time.Time{d, d.AddDate(0, 0, 7), d.AddDate(0, 0, 3)} {
		if _, err := db.InsertReview(ctx, &domain.Review{UserID: 1, Type: domain.ReviewWeekly, PeriodEnd: end}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	_, _ = db.InsertReview(ctx, &domain.Review{UserID: 1, Type: domain.ReviewDaily, PeriodStart: d, PeriodEnd: d})

	latest, err := db.LatestReview(ctx, 1, domain.ReviewWeekly)
	if err != nil {
		t.Fatalf("LatestReview: %v", err)
	}
	if latest == nil || !latest.PeriodEnd.Equal(d.AddDate(0, 0, 7)) {
		t.Errorf("unexpected latest: %+v", latest)
	}
	if none, _ := db.LatestReview(ctx, 2, domain.ReviewWeekly); none != nil {
		t.Error("expected no review for other user")
	}

	dailies, _ := db.ReviewsEndingIn(ctx, 1, domain.ReviewDaily, d, d.AddDate(0, 0, 1))
	if len(dailies) != 1 {
		t.Errorf("expected 1 daily, got %d", len(dailies))
	}
}

func TestSessionRepository(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	db := New().WithClock(func() time.Time { return now })
	repo := db.NewSessionRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, 1, "token123", "ua", "127.0.0.1", now.Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, 1, "stale", "ua", "127.0.0.1", now.Add(-time.Hour))

	sess, err := repo.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil || sess.UserAgent != "ua" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	_ = repo.DeleteExpired(ctx)
	if s, _ := repo.GetByToken(ctx, "stale"); s != nil {
		t.Error("expected expired session removed")
	}

	_ = repo.Delete(ctx, "token123")
	sess, _ = repo.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}
