// Package repository persists tasks in sqlite, PostgreSQL or Neo4j.
//
// Every backend assigns ids monotonically and never reuses an id after a
// delete or a clear. Clear is serialized against concurrent writes: a task
// committed before the clear is removed by it, a task committed after it
// survives.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"studyplan/app/config"
	"studyplan/app/models"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Repository is the persistence contract of the task API.
type Repository interface {
	// List returns every task ordered by ascending id.
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	// Create stores a new, incomplete task.
	Create(ctx context.Context, name string) (*models.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	// Clear removes every task and reports how many were deleted.
	Clear(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// Open connects the backend selected by cfg.Driver and ensures its schema.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		logger.Info("opening sqlite task store", zap.String("path", cfg.DSN))
		return NewSQLite(ctx, cfg.DSN)
	case config.DriverPostgres:
		logger.Info("opening postgres task store")
		return NewPostgres(ctx, cfg.DSN)
	case config.DriverNeo4j:
		logger.Info("opening neo4j task store", zap.String("uri", cfg.Neo4jURI))
		driver, err := config.InitNeo4j(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize neo4j driver: %w", err)
		}
		return NewNeo4j(ctx, driver)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
