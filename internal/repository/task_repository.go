package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TaskRepository encapsulates task persistence. Tasks are loaded with
// both their assigned-area set and the distinct areas of their child
// tickets, so visibility can be evaluated without extra round trips.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.QueryRow(ctx,
		`INSERT INTO tasks (title, description, creator_id) VALUES ($1,$2,$3)
         RETURNING id, created_at`,
		task.Title, task.Description, task.CreatorID).
		Scan(&task.ID, &task.CreatedAt); err != nil {
		return err
	}
	for _, areaID := range task.AreaIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO task_areas (task_id, area_id) VALUES ($1,$2)`, task.ID, areaID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, creator_id, created_at FROM tasks WHERE id=$1`, id).
		Scan(&task.ID, &task.Title, &task.Description, &task.CreatorID, &task.CreatedAt); err != nil {
		return nil, err
	}
	if err := r.loadAreaSets(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, creator_id, created_at FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.CreatorID, &task.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := r.loadAreaSets(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *taskRepository) loadAreaSets(ctx context.Context, task *domain.Task) error {
	areaIDs, err := r.stringColumn(ctx,
		`SELECT area_id FROM task_areas WHERE task_id=$1 ORDER BY area_id`, task.ID)
	if err != nil {
		return err
	}
	childAreaIDs, err := r.stringColumn(ctx,
		`SELECT DISTINCT area_id FROM tickets WHERE task_id=$1 AND area_id IS NOT NULL ORDER BY area_id`, task.ID)
	if err != nil {
		return err
	}
	task.AreaIDs = areaIDs
	task.ChildAreaIDs = childAreaIDs
	return nil
}

func (r *taskRepository) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
