package sqlite

import (
	"time"

	"cadence/internal/domain"
)

type userRow struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null;default:''"`
	Timezone     string    `gorm:"not null;default:'UTC'"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Timezone:     r.Timezone,
		CreatedAt:    r.CreatedAt,
	}
}

type sessionRow struct {
	Token     string    `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null"`
	UserAgent string    `gorm:"not null;default:''"`
	IP        string    `gorm:"not null;default:''"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (sessionRow) TableName() string { return "sessions" }

type taskRow struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    int64  `gorm:"index:idx_tasks_user_status;not null"`
	Title     string `gorm:"not null"`
	Status    string `gorm:"index:idx_tasks_user_status;not null"`
	Deadline  *time.Time
	FocusDate *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null"`
}

func (taskRow) TableName() string { return "tasks" }

func (r taskRow) toDomain() domain.Task {
	return domain.Task{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Status:    domain.TaskStatus(r.Status),
		Deadline:  r.Deadline,
		FocusDate: r.FocusDate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type focusRow struct {
	ID              int64     `gorm:"primaryKey"`
	UserID          int64     `gorm:"index:idx_focus_user_start;not null"`
	TaskID          int64     `gorm:"not null"`
	StartTime       time.Time `gorm:"index:idx_focus_user_start;not null"`
	PausedAt        *time.Time
	TotalPausedMs   int64 `gorm:"not null;default:0"`
	EndTime         *time.Time
	DurationMinutes *int
}

func (focusRow) TableName() string { return "focus_sessions" }

func (r focusRow) toDomain() domain.FocusSession {
	return domain.FocusSession{
		ID:              r.ID,
		UserID:          r.UserID,
		TaskID:          r.TaskID,
		StartTime:       r.StartTime,
		PausedAt:        r.PausedAt,
		TotalPausedMs:   r.TotalPausedMs,
		EndTime:         r.EndTime,
		DurationMinutes: r.DurationMinutes,
	}
}

type reviewRow struct {
	ID                int64                    `gorm:"primaryKey"`
	UserID            int64                    `gorm:"index:idx_reviews_user_type_end;not null"`
	Type              string                   `gorm:"index:idx_reviews_user_type_end;not null"`
	PeriodStart       time.Time                `gorm:"not null"`
	PeriodEnd         time.Time                `gorm:"index:idx_reviews_user_type_end;not null"`
	Content           map[string]any           `gorm:"serializer:json"`
	ProjectPriorities []domain.ProjectPriority `gorm:"serializer:json"`
	CreatedAt         time.Time                `gorm:"not null"`
}

func (reviewRow) TableName() string { return "reviews" }

func (r reviewRow) toDomain() domain.Review {
	content := r.Content
	if content == nil {
		content = map[string]any{}
	}
	return domain.Review{
		ID:                r.ID,
		UserID:            r.UserID,
		Type:              domain.ReviewType(r.Type),
		PeriodStart:       r.PeriodStart,
		PeriodEnd:         r.PeriodEnd,
		Content:           content,
		ProjectPriorities: r.ProjectPriorities,
		CreatedAt:         r.CreatedAt,
	}
}
