package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures dashboard search parameters. VisibleTo restricts
// the result to tickets the account created or that sit in its home area;
// it composes with the other clauses.
type TicketFilter struct {
	VisibleTo  *domain.Account
	CreatorID  *string
	AreaID     *string
	StatusID   *string
	TaskID     *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence, including the comment
// thread, read receipts, and the atomic comment+assign unit.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, ticketID, statusID string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.Ticket, error)
	ListStale(ctx context.Context, cutoff time.Time, excludeStatusID string) ([]domain.Ticket, error)

	// AddCommentWithAutoAssign persists the comment and, when candidateAssignee
	// is non-nil, attempts to claim the ticket for that account with a
	// conditional update restricted to a still-unassigned row. Both writes
	// share one transaction: the comment and the assignment are durable
	// together or not at all, and of two racing first-touch comments only
	// the first committer's claim sticks.
	AddCommentWithAutoAssign(ctx context.Context, comment *domain.Comment, candidateAssignee *string) (assigned bool, err error)
	ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error)

	// MarkThreadRead is an idempotent set-insert.
	MarkThreadRead(ctx context.Context, ticketID, accountID string) error
	ThreadReaders(ctx context.Context, ticketID string) ([]string, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `
        SELECT t.id, t.external_key, t.title, t.description, t.creator_id, t.status_id, s.name,
               t.area_id, t.assigned_account_id, t.task_id, t.created_at, t.updated_at
        FROM tickets t JOIN ticket_statuses s ON s.id = t.status_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, title, description, creator_id, status_id, area_id, task_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.Title,
		ticket.Description,
		ticket.CreatorID,
		ticket.StatusID,
		ticket.AreaID,
		ticket.TaskID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticketID, statusID string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE tickets SET status_id=$1, updated_at=NOW() WHERE id=$2`, statusID, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicketRow(r.pool.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.VisibleTo != nil {
		account := filter.VisibleTo
		if area := account.HomeArea(); area != "" {
			args = append(args, account.ID)
			creatorPlaceholder := fmt.Sprintf("$%d", len(args))
			args = append(args, area)
			clauses = append(clauses, fmt.Sprintf("(t.creator_id=%s OR t.area_id=$%d)", creatorPlaceholder, len(args)))
		} else {
			args = append(args, account.ID)
			clauses = append(clauses, fmt.Sprintf("t.creator_id=$%d", len(args)))
		}
	}
	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("t.creator_id=$%d", len(args)))
	}
	if filter.AreaID != nil {
		args = append(args, *filter.AreaID)
		clauses = append(clauses, fmt.Sprintf("t.area_id=$%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("t.status_id=$%d", len(args)))
	}
	if filter.TaskID != nil {
		args = append(args, *filter.TaskID)
		clauses = append(clauses, fmt.Sprintf("t.task_id=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.title) LIKE %s OR LOWER(t.description) LIKE %s OR t.id::text LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketSelect+` WHERE t.task_id=$1 ORDER BY t.created_at DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListStale(ctx context.Context, cutoff time.Time, excludeStatusID string) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx,
		ticketSelect+` WHERE t.updated_at < $1 AND t.status_id <> $2 ORDER BY t.updated_at ASC`,
		cutoff, excludeStatusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) AddCommentWithAutoAssign(ctx context.Context, comment *domain.Comment, candidateAssignee *string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	assigned := false
	if candidateAssignee != nil {
		// First-committer-wins: the WHERE clause turns the race into a
		// conditional update whose row count distinguishes winner from
		// loser under read-committed isolation.
		cmd, err := tx.Exec(ctx,
			`UPDATE tickets SET assigned_account_id=$1, updated_at=NOW()
             WHERE id=$2 AND assigned_account_id IS NULL`,
			*candidateAssignee, comment.TicketID)
		if err != nil {
			return false, err
		}
		assigned = cmd.RowsAffected() == 1
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO comments (ticket_id, author_id, body) VALUES ($1,$2,$3)
         RETURNING id, created_at`,
		comment.TicketID, comment.AuthorID, comment.Body).
		Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return false, err
	}

	for i := range comment.Attachments {
		att := &comment.Attachments[i]
		att.TicketID = comment.TicketID
		att.CommentID = &comment.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO attachments (ticket_id, comment_id, storage_key, file_name)
             VALUES ($1,$2,$3,$4) RETURNING id, uploaded_at`,
			att.TicketID, att.CommentID, att.StorageKey, att.FileName).
			Scan(&att.ID, &att.UploadedAt); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return assigned, nil
}

func (r *ticketRepository) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ticket_id, author_id, body, created_at
         FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.AuthorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *ticketRepository) MarkThreadRead(ctx context.Context, ticketID, accountID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ticket_reads (ticket_id, account_id) VALUES ($1,$2)
         ON CONFLICT (ticket_id, account_id) DO NOTHING`, ticketID, accountID)
	return err
}

func (r *ticketRepository) ThreadReaders(ctx context.Context, ticketID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT account_id FROM ticket_reads WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var readers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		readers = append(readers, id)
	}
	return readers, rows.Err()
}

func scanTicketRow(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.Title,
		&ticket.Description,
		&ticket.CreatorID,
		&ticket.StatusID,
		&ticket.StatusName,
		&ticket.AreaID,
		&ticket.AssignedAccountID,
		&ticket.TaskID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicketRow(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
