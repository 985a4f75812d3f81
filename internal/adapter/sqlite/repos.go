package sqlite

import (
	"context"
	"fmt"
	"time"

	"cadence/internal/domain"

	"gorm.io/gorm"
)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var row userRow
	err := d.ctx(ctx).Where("username = ?", username).First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	err := d.ctx(ctx).First(&row, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, username, passwordHash, timezone string) (*domain.User, error) {
	row := userRow{
		Username:     username,
		PasswordHash: passwordHash,
		Timezone:     timezone,
		CreatedAt:    d.now().UTC(),
	}
	if err := d.ctx(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %q already exists", domain.ErrConflict, username)
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int64
	err := d.ctx(ctx).Model(&userRow{}).Count(&n).Error
	return int(n), err
}

// SetTimezone updates a user's profile timezone.
func (d *DB) SetTimezone(ctx context.Context, id int64, timezone string) error {
	res := d.ctx(ctx).Model(&userRow{}).Where("id = ?", id).Update("timezone", timezone)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- TaskRepository ---

// CreateTask stores a task.
func (d *DB) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	row := taskRow{
		UserID:    t.UserID,
		Title:     t.Title,
		Status:    string(t.Status),
		Deadline:  utc(t.Deadline),
		FocusDate: utc(t.FocusDate),
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
	if err := d.ctx(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// GetTask retrieves a task owned by userID.
func (d *DB) GetTask(ctx context.Context, userID, id int64) (*domain.Task, error) {
	var row taskRow
	err := d.ctx(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// UpdateTaskStatus changes a task's status and bumps updated_at.
func (d *DB) UpdateTaskStatus(ctx context.Context, userID, id int64, status domain.TaskStatus, at time.Time) (*domain.Task, error) {
	var out *domain.Task
	err := d.ctx(ctx).Transaction(func(tx *gorm.DB) error {
		var row taskRow
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
			if notFound(err) {
				return nil
			}
			return err
		}
		row.Status = string(status)
		row.UpdatedAt = at.UTC()
		if status == domain.TaskFocus {
			row.FocusDate = utc(&at)
		}
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		t := row.toDomain()
		out = &t
		return nil
	})
	return out, err
}

// ListTasks lists a user's tasks, filtered by status when non-empty.
func (d *DB) ListTasks(ctx context.Context, userID int64, status domain.TaskStatus) ([]domain.Task, error) {
	q := d.ctx(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var rows []taskRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CompletionTimes returns completion instants of done tasks since since.
func (d *DB) CompletionTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	var rows []taskRow
	err := d.ctx(ctx).
		Where("user_id = ? AND status = ? AND updated_at >= ?", userID, string(domain.TaskDone), since.UTC()).
		Order("updated_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for _, r := range rows {
		out = append(out, r.UpdatedAt)
	}
	return out, nil
}

// CountCompletedTasks counts a user's done tasks.
func (d *DB) CountCompletedTasks(ctx context.Context, userID int64) (int, error) {
	var n int64
	err := d.ctx(ctx).Model(&taskRow{}).
		Where("user_id = ? AND status = ?", userID, string(domain.TaskDone)).
		Count(&n).Error
	return int(n), err
}

// --- FocusSessionRepository ---

// CreateOpenSession inserts s; the focus_sessions_one_open index rejects a
// second open row for the same user.
func (d *DB) CreateOpenSession(ctx context.Context, s *domain.FocusSession) (*domain.FocusSession, error) {
	row := focusRow{
		UserID:        s.UserID,
		TaskID:        s.TaskID,
		StartTime:     s.StartTime.UTC(),
		TotalPausedMs: s.TotalPausedMs,
	}
	if err := d.ctx(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %d already has an open focus session", domain.ErrConflict, s.UserID)
		}
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// GetFocusSession retrieves a session owned by userID.
func (d *DB) GetFocusSession(ctx context.Context, userID, id int64) (*domain.FocusSession, error) {
	var row focusRow
	err := d.ctx(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// OpenFocusSession returns the user's open session, if any.
func (d *DB) OpenFocusSession(ctx context.Context, userID int64) (*domain.FocusSession, error) {
	var row focusRow
	err := d.ctx(ctx).Where("user_id = ? AND end_time IS NULL", userID).First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// UpdateOpenSession writes next only if the stored row is still open with
// prev's paused_at.
func (d *DB) UpdateOpenSession(ctx context.Context, prev, next *domain.FocusSession) error {
	q := d.ctx(ctx).Model(&focusRow{}).
		Where("id = ? AND user_id = ? AND end_time IS NULL", prev.ID, prev.UserID)
	if prev.PausedAt == nil {
		q = q.Where("paused_at IS NULL")
	} else {
		q = q.Where("paused_at = ?", prev.PausedAt.UTC())
	}
	res := q.Updates(map[string]any{
		"paused_at":        utc(next.PausedAt),
		"total_paused_ms":  next.TotalPausedMs,
		"end_time":         utc(next.EndTime),
		"duration_minutes": next.DurationMinutes,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	cur, err := d.GetFocusSession(ctx, prev.UserID, prev.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: focus session %d changed concurrently", domain.ErrInvalidState, prev.ID)
}

// ClosedSessions returns closed sessions started in [from, to).
func (d *DB) ClosedSessions(ctx context.Context, userID int64, from, to time.Time) ([]domain.FocusSession, error) {
	var rows []focusRow
	err := d.ctx(ctx).
		Where("user_id = ? AND end_time IS NOT NULL AND start_time >= ? AND start_time < ?", userID, from.UTC(), to.UTC()).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var out []domain.FocusSession
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// FocusTotals sums a user's closed sessions.
func (d *DB) FocusTotals(ctx context.Context, userID int64) (domain.FocusTotals, error) {
	var agg struct {
		Sessions int
		Minutes  int
	}
	err := d.ctx(ctx).Model(&focusRow{}).
		Select("COUNT(*) AS sessions, COALESCE(SUM(duration_minutes), 0) AS minutes").
		Where("user_id = ? AND end_time IS NOT NULL", userID).
		Scan(&agg).Error
	return domain.FocusTotals{Sessions: agg.Sessions, Minutes: agg.Minutes}, err
}

// --- ReviewRepository ---

// InsertReview stores a review.
func (d *DB) InsertReview(ctx context.Context, r *domain.Review) (*domain.Review, error) {
	content := r.Content
	if content == nil {
		content = map[string]any{}
	}
	row := reviewRow{
		UserID:            r.UserID,
		Type:              string(r.Type),
		PeriodStart:       r.PeriodStart.UTC(),
		PeriodEnd:         r.PeriodEnd.UTC(),
		Content:           content,
		ProjectPriorities: r.ProjectPriorities,
		CreatedAt:         r.CreatedAt.UTC(),
	}
	if err := d.ctx(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// LatestReview returns the review of typ with the latest period_end.
func (d *DB) LatestReview(ctx context.Context, userID int64, typ domain.ReviewType) (*domain.Review, error) {
	var row reviewRow
	err := d.ctx(ctx).
		Where("user_id = ? AND type = ?", userID, string(typ)).
		Order("period_end DESC, id DESC").
		Take(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// ReviewsEndingIn returns reviews of typ whose period_end is in [from, to).
func (d *DB) ReviewsEndingIn(ctx context.Context, userID int64, typ domain.ReviewType, from, to time.Time) ([]domain.Review, error) {
	var rows []reviewRow
	err := d.ctx(ctx).
		Where("user_id = ? AND type = ? AND period_end >= ? AND period_end < ?", userID, string(typ), from.UTC(), to.UTC()).
		Order("period_end ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var out []domain.Review
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// --- SessionRepository ---

// SessionRepo implements login session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	return r.db.ctx(ctx).Create(&sessionRow{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: r.db.now().UTC(),
	}).Error
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.ctx(ctx).Where("token = ?", token).First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		UserAgent: row.UserAgent,
		IP:        row.IP,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.db.ctx(ctx).Where("token = ?", token).Delete(&sessionRow{}).Error
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	return r.db.ctx(ctx).Where("expires_at < ?", r.db.now().UTC()).Delete(&sessionRow{}).Error
}
