package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/marketing-agent/internal/types"
)

// NewTask builds the stored form of a generation.
func NewTask(topic string, result *types.GenerationResult) (*Task, error) {
	id, err := uuid.Parse(result.TaskID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", result.TaskID, err)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &Task{
		ID:                    id,
		ContentType:           result.ContentType,
		Platform:              result.Platform,
		BrandVoice:            result.BrandVoice,
		Topic:                 topic,
		Score:                 result.Evaluation.Score,
		OptimizationType:      string(result.WorkflowInfo.OptimizationType),
		OptimizationPerformed: result.OptimizationPerformed,
		GenerationSeconds:     result.GenerationTimeSeconds,
		Result:                payload,
		CreatedAt:             result.GeneratedAt,
	}, nil
}

// SaveTask records a generation result.
func (db *DB) SaveTask(ctx context.Context, topic string, result *types.GenerationResult) error {
	task, err := NewTask(topic, result)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO content_tasks (id, content_type, platform, brand_voice, topic, score,
		                            optimization_type, optimization_performed, generation_seconds, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		task.ID, task.ContentType, task.Platform, task.BrandVoice, task.Topic, task.Score,
		task.OptimizationType, task.OptimizationPerformed, task.GenerationSeconds, task.Result, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask retrieves a task with its full result. It returns nil, nil when
// no task has the given ID.
func (db *DB) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := db.pool.QueryRow(ctx,
		`SELECT id, content_type, platform, brand_voice, topic, score, optimization_type,
		        optimization_performed, generation_seconds, result, created_at
		 FROM content_tasks WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.ContentType, &t.Platform, &t.BrandVoice, &t.Topic, &t.Score, &t.OptimizationType,
		&t.OptimizationPerformed, &t.GenerationSeconds, &t.Result, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &t, nil
}

// DeleteTask removes a task. It reports whether a task with the given ID
// existed.
func (db *DB) DeleteTask(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM content_tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListTasks returns the most recent tasks first, without their result payloads.
func (db *DB) ListTasks(ctx context.Context, limit, offset int) ([]Task, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, content_type, platform, brand_voice, topic, score, optimization_type,
		        optimization_performed, generation_seconds, created_at
		 FROM content_tasks
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		ClampLimit(limit), offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.ContentType, &t.Platform, &t.BrandVoice, &t.Topic, &t.Score,
			&t.OptimizationType, &t.OptimizationPerformed, &t.GenerationSeconds, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}
