package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// StatusRepository serves the open set of named ticket statuses.
type StatusRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TicketStatus, error)
	GetByName(ctx context.Context, name string) (*domain.TicketStatus, error)
	List(ctx context.Context) ([]domain.TicketStatus, error)
}

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository instantiates repository.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) GetByID(ctx context.Context, id string) (*domain.TicketStatus, error) {
	var status domain.TicketStatus
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM ticket_statuses WHERE id=$1`, id).
		Scan(&status.ID, &status.Name); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) GetByName(ctx context.Context, name string) (*domain.TicketStatus, error) {
	var status domain.TicketStatus
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name FROM ticket_statuses WHERE name=$1`, name).
		Scan(&status.ID, &status.Name); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) List(ctx context.Context) ([]domain.TicketStatus, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM ticket_statuses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.TicketStatus
	for rows.Next() {
		var status domain.TicketStatus
		if err := rows.Scan(&status.ID, &status.Name); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}
