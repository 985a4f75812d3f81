package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cadence/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "cadence.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u, err := db.Create(ctx, "ana", "", "Asia/Kolkata")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, "ana", "", "UTC"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate username, got %v", err)
	}
	if err := db.SetTimezone(ctx, u.ID, "Europe/Berlin"); err != nil {
		t.Fatalf("SetTimezone: %v", err)
	}
	got, err := db.GetByID(ctx, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v %v", got, err)
	}
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", got.Timezone)
	}
	if missing, _ := db.GetByUsername(ctx, "nobody"); missing != nil {
		t.Error("expected nil for unknown user")
	}
}

func TestTasks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	task, err := db.CreateTask(ctx, &domain.Task{UserID: 1, Title: "ship", Status: domain.TaskBacklog, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	done, err := db.UpdateTaskStatus(ctx, 1, task.ID, domain.TaskDone, now.Add(time.Hour))
	if err != nil || done == nil {
		t.Fatalf("UpdateTaskStatus: %v %v", done, err)
	}
	if done.Status != domain.TaskDone {
		t.Errorf("status = %q", done.Status)
	}
	if missing, err := db.UpdateTaskStatus(ctx, 2, task.ID, domain.TaskDone, now); err != nil || missing != nil {
		t.Errorf("expected nil for foreign task, got %v %v", missing, err)
	}

	times, err := db.CompletionTimes(ctx, 1, now)
	if err != nil {
		t.Fatalf("CompletionTimes: %v", err)
	}
	if len(times) != 1 || !times[0].Equal(now.Add(time.Hour)) {
		t.Errorf("unexpected completion times: %v", times)
	}
	n, _ := db.CountCompletedTasks(ctx, 1)
	if n != 1 {
		t.Errorf("completed = %d", n)
	}
	list, _ := db.ListTasks(ctx, 1, "")
	if len(list) != 1 {
		t.Errorf("expected 1 task, got %d", len(list))
	}
}

func TestFocusSessions_OneOpenPerUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	const n = 8
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
}

func TestFocusSessions_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	s := domain.NewFocusSession(1, 7, start)
	open, err := db.CreateOpenSession(ctx, &s)
	if err != nil {
		t.Fatalf("CreateOpenSession: %v", err)
	}

	paused, _ := open.Pause(start.Add(10 * time.Minute))
	if err := db.UpdateOpenSession(ctx, open, &paused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	stale, _ := open.Pause(start.Add(11 * time.Minute))
	if err := db.UpdateOpenSession(ctx, open, &stale); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for stale write, got %v", err)
	}

	stored, _ := db.OpenFocusSession(ctx, 1)
	if stored == nil || stored.State() != domain.FocusPaused {
		t.Fatalf("expected paused open session, got %+v", stored)
	}
	resumed, _ := stored.Resume(start.Add(40 * time.Minute))
	if err := db.UpdateOpenSession(ctx, stored, &resumed); err != nil {
		t.Fatalf("resume: %v", err)
	}
	closed, _ := resumed.Close(start.Add(50 * time.Minute))
	if err := db.UpdateOpenSession(ctx, &resumed, &closed); err != nil {
		t.Fatalf("close: %v", err)
	}

	list, err := db.ClosedSessions(ctx, 1, start, start.Add(24*time.Hour))
	if err != nil || len(list) != 1 {
		t.Fatalf("ClosedSessions: %v %v", list, err)
	}
	if list[0].DurationMinutes == nil || *list[0].DurationMinutes != 20 {
		t.Errorf("duration = %v", list[0].DurationMinutes)
	}
	totals, _ := db.FocusTotals(ctx, 1)
	if totals.Sessions != 1 || totals.Minutes != 20 {
		t.Errorf("totals = %+v", totals)
	}

	// Closing frees the slot for a new session.
	next := domain.NewFocusSession(1, 7, start.Add(time.Hour))
	if _, err := db.CreateOpenSession(ctx, &next); err != nil {
		t.Fatalf("second session: %v", err)
	}
}

func TestReviews(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := db.InsertReview(ctx, &domain.Review{
		UserID:            1,
		Type:              domain.ReviewWeekly,
		PeriodStart:       d.AddDate(0, 0, -7),
		PeriodEnd:         d,
		Content:           map[string]any{"wins": "shipped"},
		ProjectPriorities: []domain.ProjectPriority{{ProjectID: 3, Priority: 1}},
		CreatedAt:         d,
	})
	if err != nil {
		t.Fatalf("InsertReview: %v", err)
	}
	_, _ = db.InsertReview(ctx, &domain.Review{UserID: 1, Type: domain.ReviewWeekly, PeriodStart: d, PeriodEnd: d.AddDate(0, 0, 8), CreatedAt: d})

	latest, err := db.LatestReview(ctx, 1, domain.ReviewWeekly)
	if err != nil || latest == nil {
		t.Fatalf("LatestReview: %v %v", latest, err)
	}
	if !latest.PeriodEnd.Equal(d.AddDate(0, 0, 8)) {
		t.Errorf("latest period end = %v", latest.PeriodEnd)
	}
	if latest.Content == nil {
		t.Error("expected empty content map, got nil")
	}

	in, _ := db.ReviewsEndingIn(ctx, 1, domain.ReviewWeekly, d, d.AddDate(0, 0, 1))
	if len(in) != 1 {
		t.Fatalf("expected 1 review ending on d, got %d", len(in))
	}
	if in[0].Content["wins"] != "shipped" || len(in[0].ProjectPriorities) != 1 {
		t.Errorf("round trip lost data: %+v", in[0])
	}
	if none, _ := db.LatestReview(ctx, 1, domain.ReviewMonthly); none != nil {
		t.Error("expected no monthly review")
	}
}

func TestSessionRepo(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()

	if err := repo.Create(ctx, 1, "live", "ua", "::1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, 1, "dead", "ua", "::1", time.Now().Add(-time.Hour))
	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if s, _ := repo.GetByToken(ctx, "dead"); s != nil {
		t.Error("expected expired session removed")
	}
	s, _ := repo.GetByToken(ctx, "live")
	if s == nil || s.IP != "::1" {
		t.Fatalf("unexpected session: %+v", s)
	}
	_ = repo.Delete(ctx, "live")
	if s, _ := repo.GetByToken(ctx, "live"); s != nil {
		t.Error("expected deleted")
	}
}

func TestWithClockStampsRows(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.FixedZone("X", 2*3600))
	db := openTestDB(t).WithClock(func() time.Time { return now })
	repo := NewSessionRepo(db)
	ctx := context.Background()

	u, err := db.Create(ctx, "clocked", "", "UTC")
	if err != nil {
		t.Fatal(err)
	}
	if !u.CreatedAt.Equal(now) {
		t.Errorf("user CreatedAt = %v, want %v", u.CreatedAt, now)
	}

	// Expiry is judged against the injected clock, not the wall clock.
	if err := repo.Create(ctx, u.ID, "past", "ua", "::1", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, u.ID, "future", "ua", "::1", now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatal(err)
	}
	if s, _ := repo.GetByToken(ctx, "past"); s != nil {
		t.Error("expected session expired before the clock removed")
	}
	s, _ := repo.GetByToken(ctx, "future")
	if s == nil {
		t.Fatal("expected session expiring after the clock kept")
	}
	if !s.CreatedAt.Equal(now) {
		t.Errorf("session CreatedAt = %v, want %v", s.CreatedAt, now)
	}
}
