// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"cadence/internal/domain"
)

// DB implements an in-memory database storage. A single mutex serialises
// every operation, which makes the open-session check-and-insert atomic.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	sessions map[string]*domain.Session
	tasks    []domain.Task
	focus    []domain.FocusSession
	reviews  []domain.Review

	userIDCounter   int64
	taskIDCounter   int64
	focusIDCounter  int64
	reviewIDCounter int64

	now func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// WithClock overrides the clock used to stamp user and login-session rows.
func (db *DB) WithClock(now func() time.Time) *DB {
	db.now = now
	return db
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.TaskRepository = (*DB)(nil)
var _ domain.FocusSessionRepository = (*DB)(nil)
var _ domain.ReviewRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash, timezone string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		Timezone:     timezone,
		CreatedAt:    db.now().UTC(),
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// SetTimezone updates a user's timezone.
func (db *DB) SetTimezone(ctx context.Context, id int64, timezone string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.Timezone = timezone
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- TaskRepository ---

// CreateTask stores a task.
func (db *DB) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.taskIDCounter++
	cp := *t
	cp.ID = db.taskIDCounter
	cp.CreatedAt = cp.CreatedAt.UTC()
	cp.UpdatedAt = cp.UpdatedAt.UTC()
	db.tasks = append(db.tasks, cp)
	return &cp, nil
}

// GetTask retrieves a task owned by userID.
func (db *DB) GetTask(ctx context.Context, userID, id int64) (*domain.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := db.taskIndex(userID, id); i >= 0 {
		cp := db.tasks[i]
		return &cp, nil
	}
	return nil, nil
}

// UpdateTaskStatus changes a task's status and bumps UpdatedAt.
func (db *DB) UpdateTaskStatus(ctx context.Context, userID, id int64, status domain.TaskStatus, at time.Time) (*domain.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.taskIndex(userID, id)
	if i < 0 {
		return nil, nil
	}
	t := &db.tasks[i]
	t.Status = status
	t.UpdatedAt = at.UTC()
	if status == domain.TaskFocus {
		fd := at.UTC()
		t.FocusDate = &fd
	}
	cp := *t
	return &cp, nil
}

// ListTasks lists a user's tasks, filtered by status when non-empty.
func (db *DB) ListTasks(ctx context.Context, userID int64, status domain.TaskStatus) ([]domain.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.Task{}
	for _, t := range db.tasks {
		if t.UserID == userID && (status == "" || t.Status == status) {
			out = append(out, t)
		}
	}
	return out, nil
}

// CompletionTimes returns completion instants of done tasks since since.
func (db *DB) CompletionTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []time.Time
	for _, t := range db.tasks {
		if t.UserID == userID && t.Status == domain.TaskDone && !t.UpdatedAt.Before(since) {
			out = append(out, t.UpdatedAt)
		}
	}
	return out, nil
}

// CountCompletedTasks counts a user's done tasks.
func (db *DB) CountCompletedTasks(ctx context.Context, userID int64) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for _, t := range db.tasks {
		if t.UserID == userID && t.Status == domain.TaskDone {
			n++
		}
	}
	return n, nil
}

func (db *DB) taskIndex(userID, id int64) int {
	for i, t := range db.tasks {
		if t.ID == id && t.UserID == userID {
			return i
		}
	}
	return -1
}

// --- FocusSessionRepository ---

// CreateOpenSession inserts s unless the user already has an open session.
func (db *DB) CreateOpenSession(ctx context.Context, s *domain.FocusSession) (*domain.FocusSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, f := range db.focus {
		if f.UserID == s.UserID && f.EndTime == nil {
			return nil, domain.ErrConflict
		}
	}

	db.focusIDCounter++
	cp := *s
	cp.ID = db.focusIDCounter
	cp.StartTime = cp.StartTime.UTC()
	db.focus = append(db.focus, cp)
	return &cp, nil
}

// GetFocusSession retrieves a session owned by userID.
func (db *DB) GetFocusSession(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, f := range db.focus {
		if f.ID == id && f.UserID == userID {
			cp := f
			return &cp, nil
		}
	}
	return nil, nil
}

// OpenFocusSession returns the user's open session, if any.
func (db *DB) OpenFocusSession(ctx context.Context, userID int64) (*domain.FocusSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, f := range db.focus {
		if f.UserID == userID && f.EndTime == nil {
			cp := f
			return &cp, nil
		}
	}
	return nil, nil
}

// UpdateOpenSession swaps prev for next when the stored row still matches prev.
func (db *DB) UpdateOpenSession(ctx context.Context, prev, next *domain.FocusSession) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, f := range db.focus {
		if f.ID != prev.ID || f.UserID != prev.UserID {
			continue
		}
		if f.EndTime != nil || !sameInstant(f.PausedAt, prev.PausedAt) {
			return domain.ErrInvalidState
		}
		db.focus[i] = *next
		return nil
	}
	return domain.ErrNotFound
}

// ClosedSessions returns closed sessions started in [from, to).
func (db *DB) ClosedSessions(ctx context.Context, userID int64, from, to time.Time) ([]domain.FocusSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.FocusSession
	for _, f := range db.focus {
		if f.UserID == userID && f.EndTime != nil && !f.StartTime.Before(from) && f.StartTime.Before(to) {
			out = append(out, f)
		}
	}
	return out, nil
}

// FocusTotals sums a user's closed sessions.
func (db *DB) FocusTotals(ctx context.Context, userID int64) (domain.FocusTotals, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var t domain.FocusTotals
	for _, f := range db.focus {
		if f.UserID == userID && f.EndTime != nil {
			t.Sessions++
			if f.DurationMinutes != nil {
				t.Minutes += *f.DurationMinutes
			}
		}
	}
	return t, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// --- ReviewRepository ---

// InsertReview stores a review.
func (db *DB) InsertReview(ctx context.Context, r *domain.Review) (*domain.Review, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.reviewIDCounter++
	cp := *r
	cp.ID = db.reviewIDCounter
	db.reviews = append(db.reviews, cp)
	return &cp, nil
}

// LatestReview returns the review of typ with the latest PeriodEnd.
func (db *DB) LatestReview(ctx context.Context, userID int64, typ domain.ReviewType) (*domain.Review, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.Review
	for i := range db.reviews {
		r := &db.reviews[i]
		if r.UserID != userID || r.Type != typ {
			continue
		}
		if latest == nil || r.PeriodEnd.After(latest.PeriodEnd) ||
			(r.PeriodEnd.Equal(latest.PeriodEnd) && r.ID > latest.ID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// ReviewsEndingIn returns reviews of typ whose PeriodEnd is in [from, to).
func (db *DB) ReviewsEndingIn(ctx context.Context, userID int64, typ domain.ReviewType, from, to time.Time) ([]domain.Review, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Review
	for _, r := range db.reviews {
		if r.UserID == userID && r.Type == typ && !r.PeriodEnd.Before(from) && r.PeriodEnd.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- SessionRepository ---

// SessionRepo implements login session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: r.db.now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := r.db.now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
