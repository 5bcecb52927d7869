package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyplan/app/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id        BIGSERIAL    PRIMARY KEY,
	name      VARCHAR(200) NOT NULL,
	completed BOOLEAN      NOT NULL DEFAULT FALSE
)`

// Postgres stores tasks in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Repository = (*Postgres)(nil)

// NewPostgres connects to dsn and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// EnsureSchema creates the tasks table if it doesn't exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// List returns every task ordered by id.
func (p *Postgres) List(ctx context.Context) ([]models.Task, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, completed FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Name, &t.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Get returns the task with the given id.
func (p *Postgres) Get(ctx context.Context, id int64) (*models.Task, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, name, completed FROM tasks WHERE id = $1`, id)
	return scanPostgresTask(row, id)
}

// Create inserts a new incomplete task.
func (p *Postgres) Create(ctx context.Context, name string) (*models.Task, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO tasks (name, completed) VALUES ($1, FALSE) RETURNING id, name, completed`, name)
	var t models.Task
	if err := row.Scan(&t.ID, &t.Name, &t.Completed); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &t, nil
}

// SetCompleted updates the completion flag of one task.
func (p *Postgres) SetCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error) {
	row := p.pool.QueryRow(ctx,
		`UPDATE tasks SET completed = $2 WHERE id = $1 RETURNING id, name, completed`, id, completed)
	return scanPostgresTask(row, id)
}

// Delete removes one task.
func (p *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every task. The table lock makes concurrent inserts wait for
// the clear to commit. The BIGSERIAL sequence is not reset.
func (p *Postgres) Clear(ctx context.Context) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE tasks IN EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("failed to lock tasks: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear tasks: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit clear: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool.
func (p *Postgres) Close(context.Context) error {
	p.pool.Close()
	return nil
}

func scanPostgresTask(row pgx.Row, id int64) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Name, &t.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task %d: %w", id, err)
	}
	return &t, nil
}
