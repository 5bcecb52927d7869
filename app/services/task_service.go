package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"studyplan/app/metrics"
	"studyplan/app/models"
	"studyplan/app/repository"
)

// MaxNameLength is the longest task name the store accepts.
const MaxNameLength = 200

// ErrInvalidName is returned for empty or oversized task names.
var ErrInvalidName = errors.New("invalid task name")

// TaskService handles task-related operations.
type TaskService struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repository.Repository, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, logger: logger.Named("tasks")}
}

// GetTasks retrieves all tasks ordered by id.
func (s *TaskService) GetTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx)
	observe("list", err)
	return tasks, err
}

// GetTaskByID retrieves a single task by its id.
func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.repo.Get(ctx, id)
	observe("get", err)
	return task, err
}

// CreateTask adds a new, incomplete task.
func (s *TaskService) CreateTask(ctx context.Context, name string) (*models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	task, err := s.repo.Create(ctx, name)
	observe("create", err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task created", zap.Int64("id", task.ID), zap.String("name", task.Name))
	return task, nil
}

// UpdateTask sets a task's completion flag. The name is immutable.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, completed bool) (*models.Task, error) {
	task, err := s.repo.SetCompleted(ctx, id, completed)
	observe("update", err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task updated", zap.Int64("id", id), zap.Bool("completed", completed))
	return task, nil
}

// DeleteTask deletes a task.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	observe("delete", err)
	if err == nil {
		s.logger.Debug("task deleted", zap.Int64("id", id))
	}
	return err
}

// ClearTasks deletes every task and returns the count.
func (s *TaskService) ClearTasks(ctx context.Context) (int64, error) {
	n, err := s.repo.Clear(ctx)
	observe("clear", err)
	if err != nil {
		return 0, err
	}
	s.logger.Info("tasks cleared", zap.Int64("deleted", n))
	return n, nil
}

func observe(op string, err error) {
	switch {
	case err == nil:
		metrics.ObserveTaskOp(op, "success")
	case errors.Is(err, repository.ErrNotFound):
		metrics.ObserveTaskOp(op, "not_found")
	default:
		metrics.ObserveTaskOp(op, "error")
	}
}
