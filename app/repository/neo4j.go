package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"studyplan/app/models"
)

const taskReturn = "RETURN t.id AS id, t.name AS name, t.completed AS completed"

// neo4jConstraints keep task ids unique and guarantee a single id sequence
// node, so concurrent first creates cannot MERGE two of them.
var neo4jConstraints = []string{
	"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT task_sequence IF NOT EXISTS FOR (s:Sequence) REQUIRE s.name IS UNIQUE",
}

// Neo4j stores tasks as :Task nodes. Ids come from a :Sequence node that is
// only ever incremented.
type Neo4j struct {
	driver neo4j.DriverWithContext
}

var _ Repository = (*Neo4j)(nil)

// NewNeo4j verifies connectivity and creates the uniqueness constraints.
func NewNeo4j(ctx context.Context, driver neo4j.DriverWithContext) (*Neo4j, error) {
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, stmt := range neo4jConstraints {
		res, err := session.Run(ctx, stmt, nil)
		if err == nil {
			_, err = res.Consume(ctx)
		}
		if err != nil {
			driver.Close(ctx)
			return nil, fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return &Neo4j{driver: driver}, nil
}

// List retrieves all tasks ordered by id.
func (s *Neo4j) List(ctx context.Context) ([]models.Task, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Task) "+taskReturn+" ORDER BY t.id", nil)
		if err != nil {
			return nil, err
		}

		tasks := []models.Task{}
		for res.Next(ctx) {
			task, err := taskFromRecord(res.Record())
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *task)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return result.([]models.Task), nil
}

// Get retrieves a single task by its id.
func (s *Neo4j) Get(ctx context.Context, id int64) (*models.Task, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Task {id: $id}) "+taskReturn, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return singleTask(ctx, res)
	})
	if err != nil {
		return nil, wrapNeo4jErr("get", id, err)
	}
	return result.(*models.Task), nil
}

// Create adds a new task with the next sequence value as its id.
func (s *Neo4j) Create(ctx context.Context, name string) (*models.Task, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MERGE (seq:Sequence {name: 'task'}) "+
				"ON CREATE SET seq.value = 0 "+
				"SET seq.value = seq.value + 1 "+
				"CREATE (t:Task {id: seq.value, name: $name, completed: false}) "+
				taskReturn,
			map[string]any{"name": name},
		)
		if err != nil {
			return nil, err
		}
		return singleTask(ctx, res)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return result.(*models.Task), nil
}

// SetCompleted updates a task's completion flag.
func (s *Neo4j) SetCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) SET t.completed = $completed "+taskReturn,
			map[string]any{"id": id, "completed": completed},
		)
		if err != nil {
			return nil, err
		}
		return singleTask(ctx, res)
	})
	if err != nil {
		return nil, wrapNeo4jErr("update", id, err)
	}
	return result.(*models.Task), nil
}

// Delete deletes a task node.
func (s *Neo4j) Delete(ctx context.Context, id int64) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Task {id: $id}) DETACH DELETE t", map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return int64(summary.Counters().NodesDeleted()), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	if deleted.(int64) == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes every task node in one write transaction. The sequence node
// is kept so ids are not reused.
func (s *Neo4j) Clear(ctx context.Context) (int64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "MATCH (t:Task) DETACH DELETE t", nil)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return int64(summary.Counters().NodesDeleted()), nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear tasks: %w", err)
	}
	return deleted.(int64), nil
}

// Close closes the driver.
func (s *Neo4j) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func singleTask(ctx context.Context, res neo4j.ResultWithContext) (*models.Task, error) {
	if res.Next(ctx) {
		return taskFromRecord(res.Record())
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

func taskFromRecord(record *neo4j.Record) (*models.Task, error) {
	id, _, err := neo4j.GetRecordValue[int64](record, "id")
	if err != nil {
		return nil, err
	}
	name, _, err := neo4j.GetRecordValue[string](record, "name")
	if err != nil {
		return nil, err
	}
	completed, _, err := neo4j.GetRecordValue[bool](record, "completed")
	if err != nil {
		return nil, err
	}
	return &models.Task{ID: id, Name: name, Completed: completed}, nil
}

func wrapNeo4jErr(op string, id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s task %d: %w", op, id, err)
}
