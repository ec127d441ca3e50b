package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AnnouncementRepository encapsulates staff broadcasts and their read-set.
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *domain.Announcement) error
	ListNewestFirst(ctx context.Context) ([]domain.Announcement, error)
	// MarkRead is an idempotent set-insert.
	MarkRead(ctx context.Context, announcementID, accountID string) error
	CountUnread(ctx context.Context, accountID string) (int, error)
}

type announcementRepository struct {
	pool *pgxpool.Pool
}

// NewAnnouncementRepository instantiates repository.
func NewAnnouncementRepository(pool *pgxpool.Pool) AnnouncementRepository {
	return &announcementRepository{pool: pool}
}

func (r *announcementRepository) Create(ctx context.Context, announcement *domain.Announcement) error {
	const query = `
        INSERT INTO announcements (title, body, author_id) VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		announcement.Title,
		announcement.Body,
		announcement.AuthorID,
	).Scan(&announcement.ID, &announcement.CreatedAt)
}

func (r *announcementRepository) ListNewestFirst(ctx context.Context) ([]domain.Announcement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, body, author_id, created_at FROM announcements ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.AuthorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *announcementRepository) MarkRead(ctx context.Context, announcementID, accountID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO announcement_reads (announcement_id, account_id) VALUES ($1,$2)
         ON CONFLICT (announcement_id, account_id) DO NOTHING`, announcementID, accountID)
	return err
}

func (r *announcementRepository) CountUnread(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM announcements a
         WHERE NOT EXISTS (
             SELECT 1 FROM announcement_reads ar
             WHERE ar.announcement_id = a.id AND ar.account_id = $1
         )`, accountID).Scan(&count)
	return count, err
}
