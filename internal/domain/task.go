package domain

import (
	"context"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskBacklog   TaskStatus = "backlog"
	TaskFocus     TaskStatus = "focus"
	TaskPostponed TaskStatus = "postponed"
	TaskDone      TaskStatus = "done"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskBacklog, TaskFocus, TaskPostponed, TaskDone:
		return true
	}
	return false
}

// Task is a unit of work. When Status is done, UpdatedAt is the completion
// instant.
type Task struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	FocusDate *time.Time `json:"focusDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TaskRepository is the port for the external task store. Every lookup is
// scoped to a user; a task owned by someone else is reported as missing.
type TaskRepository interface {
	CreateTask(ctx context.Context, t *Task) (*Task, error)
	GetTask(ctx context.Context, userID, id int64) (*Task, error)
	UpdateTaskStatus(ctx context.Context, userID, id int64, status TaskStatus, at time.Time) (*Task, error)
	ListTasks(ctx context.Context, userID int64, status TaskStatus) ([]Task, error)
	// CompletionTimes returns the completion instant of every done task
	// completed at or after since.
	CompletionTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
	CountCompletedTasks(ctx context.Context, userID int64) (int, error)
}
