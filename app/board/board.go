// Package board is the frontend controller: it turns goals into stored tasks
// and builds the grouped, auto-completed view that the TUI, the CLI and the
// exporters render.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studyplan/app/hierarchy"
	"studyplan/app/models"
	"studyplan/app/planner"
)

var (
	// ErrEmptyGoal is returned when a plan is requested for a blank goal.
	ErrEmptyGoal = errors.New("please enter a goal")
	// ErrEmptyName is returned when a blank task is added.
	ErrEmptyName = errors.New("please enter a task name")
	// ErrDerivedTask is returned when toggling a parent whose completion
	// follows its children.
	ErrDerivedTask = errors.New("parent completion follows its children")
	// ErrUnknownTask is returned for ids missing from the current view.
	ErrUnknownTask = errors.New("task is not in the current list")
)

// TaskAPI is the persistence API the board drives.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, name string) (*models.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ClearTasks(ctx context.Context) (int64, error)
}

// PlanSource produces plan lines for a goal; see planner.Planner.
type PlanSource interface {
	Plan(ctx context.Context, goal string) []string
}

// View is one rendered snapshot of the task list.
type View struct {
	// Tasks holds every task in id order with parent corrections applied,
	// whether or not they were persisted.
	Tasks       []models.Task
	Grouping    hierarchy.Grouping
	Corrections []hierarchy.Correction
	// Failures lists corrections the store rejected; the next refresh retries them.
	Failures []error
}

// Task returns the task with id from the view.
func (v *View) Task(id int64) (models.Task, bool) {
	for _, t := range v.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Derived reports whether the task's completion is computed from children.
func (v *View) Derived(id int64) bool {
	return v.Grouping.HasChildren(id)
}

// Board coordinates the task API and the plan generator.
type Board struct {
	api     TaskAPI
	planner PlanSource
	logger  *zap.Logger
}

// New creates a Board. plans may be nil when plan generation is unavailable.
func New(api TaskAPI, plans PlanSource, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{api: api, planner: plans, logger: logger.Named("board")}
}

// Refresh fetches the list, groups it and pushes parent corrections.
func (b *Board) Refresh(ctx context.Context) (*View, error) {
	tasks, err := b.api.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	grouping := hierarchy.Group(tasks)
	corrections := hierarchy.Propagate(grouping)

	view := &View{
		Tasks:       hierarchy.Apply(tasks, corrections),
		Corrections: corrections,
	}
	for _, c := range corrections {
		if _, err := b.api.SetCompleted(ctx, c.ID, c.Completed); err != nil {
			b.logger.Warn("failed to update parent task",
				zap.Int64("id", c.ID), zap.Bool("completed", c.Completed), zap.Error(err))
			view.Failures = append(view.Failures, fmt.Errorf("failed to update task %d: %w", c.ID, err))
		}
	}
	view.Grouping = hierarchy.Group(view.Tasks)
	return view, nil
}

// GeneratePlan asks the planner for goal and stores every accepted line as a
// task, in order. It returns how many tasks were added.
func (b *Board) GeneratePlan(ctx context.Context, goal string) (int, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return 0, ErrEmptyGoal
	}
	if b.planner == nil {
		return 0, fmt.Errorf("%w: no generator configured", planner.ErrGeneration)
	}

	lines := b.planner.Plan(ctx, goal)
	if planner.IsError(lines) {
		return 0, fmt.Errorf("%w: %s", planner.ErrGeneration, lines[0])
	}

	added := 0
	for _, line := range planner.AcceptLines(lines) {
		if _, err := b.api.CreateTask(ctx, line); err != nil {
			return added, fmt.Errorf("failed to add task %q: %w", line, err)
		}
		added++
	}
	b.logger.Info("study plan added", zap.Int("tasks", added))
	return added, nil
}

// AddTask stores a manually entered task.
func (b *Board) AddTask(ctx context.Context, name string) (*models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	task, err := b.api.CreateTask(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}
	return task, nil
}

// Toggle flips a task's completion. Parents with children are rejected.
func (b *Board) Toggle(ctx context.Context, view *View, id int64) (*models.Task, error) {
	task, ok := view.Task(id)
	if !ok {
		return nil, ErrUnknownTask
	}
	if view.Derived(id) {
		return nil, ErrDerivedTask
	}
	updated, err := b.api.SetCompleted(ctx, id, !task.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// Delete removes one task.
func (b *Board) Delete(ctx context.Context, id int64) error {
	if err := b.api.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Clear removes every task.
func (b *Board) Clear(ctx context.Context) (int64, error) {
	n, err := b.api.ClearTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear tasks: %w", err)
	}
	return n, nil
}
