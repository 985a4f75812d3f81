package app

import (
	"context"
	"time"

	"cadence/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repositories (function-fields pattern)
// ---------------------------------------------------------------------------

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, username, passwordHash, timezone string) (*domain.User, error)
	countFn         func(ctx context.Context) (int, error)
	setTimezoneFn   func(ctx context.Context, id int64, timezone string) error
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.User{ID: id, Username: "user", Timezone: "UTC"}, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash, timezone string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash, timezone)
	}
	return &domain.User{ID: 1, Username: username, PasswordHash: passwordHash, Timezone: timezone}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockUserRepo) SetTimezone(ctx context.Context, id int64, timezone string) error {
	if m.setTimezoneFn != nil {
		return m.setTimezoneFn(ctx, id, timezone)
	}
	return nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, userAgent, ip, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

type mockTaskRepo struct {
	getTaskFn         func(ctx context.Context, userID, id int64) (*domain.Task, error)
	completionTimesFn func(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
	updateStatusFn    func(ctx context.Context, userID, id int64, status domain.TaskStatus, at time.Time) (*domain.Task, error)
}

func (m *mockTaskRepo) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	cp := *t
	cp.ID = 1
	return &cp, nil
}

func (m *mockTaskRepo) GetTask(ctx context.Context, userID, id int64) (*domain.Task, error) {
	if m.getTaskFn != nil {
		return m.getTaskFn(ctx, userID, id)
	}
	return &domain.Task{ID: id, UserID: userID, Status: domain.TaskBacklog}, nil
}

func (m *mockTaskRepo) UpdateTaskStatus(ctx context.Context, userID, id int64, status domain.TaskStatus, at time.Time) (*domain.Task, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, userID, id, status, at)
	}
	return &domain.Task{ID: id, UserID: userID, Status: status, UpdatedAt: at}, nil
}

func (m *mockTaskRepo) ListTasks(ctx context.Context, userID int64, status domain.TaskStatus) ([]domain.Task, error) {
	return []domain.Task{}, nil
}

func (m *mockTaskRepo) CompletionTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	if m.completionTimesFn != nil {
		return m.completionTimesFn(ctx, userID, since)
	}
	return nil, nil
}

func (m *mockTaskRepo) CountCompletedTasks(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

type mockFocusRepo struct {
	createFn func(ctx context.Context, s *domain.FocusSession) (*domain.FocusSession, error)
	getFn    func(ctx context.Context, userID, id int64) (*domain.FocusSession, error)
	openFn   func(ctx context.Context, userID int64) (*domain.FocusSession, error)
	updateFn func(ctx context.Context, prev, next *domain.FocusSession) error
}

func (m *mockFocusRepo) CreateOpenSession(ctx context.Context, s *domain.FocusSession) (*domain.FocusSession, error) {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	cp := *s
	cp.ID = 1
	return &cp, nil
}

func (m *mockFocusRepo) GetFocusSession(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockFocusRepo) OpenFocusSession(ctx context.Context, userID int64) (*domain.FocusSession, error) {
	if m.openFn != nil {
		return m.openFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFocusRepo) UpdateOpenSession(ctx context.Context, prev, next *domain.FocusSession) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, prev, next)
	}
	return nil
}

func (m *mockFocusRepo) ClosedSessions(ctx context.Context, userID int64, from, to time.Time) ([]domain.FocusSession, error) {
	return nil, nil
}

func (m *mockFocusRepo) FocusTotals(ctx context.Context, userID int64) (domain.FocusTotals, error) {
	return domain.FocusTotals{}, nil
}

type mockReviewRepo struct {
	insertFn func(ctx context.Context, r *domain.Review) (*domain.Review, error)
	latestFn func(ctx context.Context, userID int64, typ domain.ReviewType) (*domain.Review, error)
	endingFn func(ctx context.Context, userID int64, typ domain.ReviewType, from, to time.Time) ([]domain.Review, error)
}

func (m *mockReviewRepo) InsertReview(ctx context.Context, r *domain.Review) (*domain.Review, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, r)
	}
	cp := *r
	cp.ID = 1
	return &cp, nil
}

func (m *mockReviewRepo) LatestReview(ctx context.Context, userID int64, typ domain.ReviewType) (*domain.Review, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID, typ)
	}
	return nil, nil
}

func (m *mockReviewRepo) ReviewsEndingIn(ctx context.Context, userID int64, typ domain.ReviewType, from, to time.Time) ([]domain.Review, error) {
	if m.endingFn != nil {
		return m.endingFn(ctx, userID, typ, from, to)
	}
	return nil, nil
}
