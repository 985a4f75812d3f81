package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cadence/internal/domain"
)

const maxTitleLen = 200

// TaskService is the minimal task collaborator the cadence engine reads from.
type TaskService struct {
	repo  domain.TaskRepository
	clock Clock
}

// NewTaskService creates a TaskService backed by the given repository.
func NewTaskService(repo domain.TaskRepository, clock Clock) *TaskService {
	return &TaskService{repo: repo, clock: clock}
}

// Create validates and stores a new backlog task.
func (s *TaskService) Create(ctx context.Context, userID int64, title string, deadline *time.Time) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", domain.ErrValidation, maxTitleLen)
	}
	now := s.clock.Now()
	return s.repo.CreateTask(ctx, &domain.Task{
		UserID:    userID,
		Title:     title,
		Status:    domain.TaskBacklog,
		Deadline:  deadline,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// SetStatus moves a task to status. Moving to done stamps the completion
// instant; moving to focus stamps the focus date. Setting the status a task
// already has returns it unchanged, so a completion instant never moves.
func (s *TaskService) SetStatus(ctx context.Context, userID, id int64, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown task status %q", domain.ErrValidation, status)
	}
	cur, err := s.repo.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	if cur.Status == status {
		return cur, nil
	}
	t, err := s.repo.UpdateTaskStatus(ctx, userID, id, status, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	return t, nil
}

// List returns the user's tasks, optionally filtered by status.
func (s *TaskService) List(ctx context.Context, userID int64, status domain.TaskStatus) ([]domain.Task, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown task status %q", domain.ErrValidation, status)
	}
	return s.repo.ListTasks(ctx, userID, status)
}
