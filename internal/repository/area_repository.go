package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AreaRepository encapsulates area persistence. Name uniqueness is
// case-insensitive, enforced by a unique index on LOWER(name).
type AreaRepository interface {
	Create(ctx context.Context, area *domain.Area) error
	GetByID(ctx context.Context, id string) (*domain.Area, error)
	GetByName(ctx context.Context, name string) (*domain.Area, error)
	List(ctx context.Context) ([]domain.Area, error)
}

type areaRepository struct {
	pool *pgxpool.Pool
}

// NewAreaRepository instantiates repository.
func NewAreaRepository(pool *pgxpool.Pool) AreaRepository {
	return &areaRepository{pool: pool}
}

func (r *areaRepository) Create(ctx context.Context, area *domain.Area) error {
	const query = `INSERT INTO areas (name) VALUES ($1) RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, area.Name).Scan(&area.ID, &area.CreatedAt)
}

func (r *areaRepository) GetByID(ctx context.Context, id string) (*domain.Area, error) {
	var area domain.Area
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM areas WHERE id=$1`, id).
		Scan(&area.ID, &area.Name, &area.CreatedAt); err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *areaRepository) GetByName(ctx context.Context, name string) (*domain.Area, error) {
	var area domain.Area
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM areas WHERE LOWER(name)=LOWER($1)`, name).
		Scan(&area.ID, &area.Name, &area.CreatedAt); err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *areaRepository) List(ctx context.Context) ([]domain.Area, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM areas ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.Area
	for rows.Next() {
		var area domain.Area
		if err := rows.Scan(&area.ID, &area.Name, &area.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, area)
	}
	return result, rows.Err()
}
