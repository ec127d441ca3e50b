package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AccountRepository defines persistence access for directory accounts.
// Group membership is loaded with the account; the account row itself
// carries the profile fields (area, internal phone) so profile existence
// holds from the single insert at creation time.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	ListActiveByArea(ctx context.Context, areaID string) ([]domain.Account, error)
	SetGroups(ctx context.Context, accountID string, groups []string) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, username, password_hash, is_staff, is_active, is_superuser, area_id, internal_phone, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (username, password_hash, is_staff, is_active, is_superuser, area_id, internal_phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, query,
		account.Username,
		account.PasswordHash,
		account.IsStaff,
		account.IsActive,
		account.IsSuperuser,
		account.AreaID,
		account.InternalPhone,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return err
	}
	if len(account.Groups) > 0 {
		return r.SetGroups(ctx, account.ID, account.Groups)
	}
	return nil
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET password_hash=$1, is_staff=$2, is_active=$3, is_superuser=$4,
            area_id=$5, internal_phone=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		account.PasswordHash,
		account.IsStaff,
		account.IsActive,
		account.IsSuperuser,
		account.AreaID,
		account.InternalPhone,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

// GetByUsername matches the username case-insensitively.
func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(username)=LOWER($1)`, username)
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.IsStaff,
		&account.IsActive,
		&account.IsSuperuser,
		&account.AreaID,
		&account.InternalPhone,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	groups, err := r.groupsFor(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Groups = groups
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts, err := scanAccounts(rows)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		groups, err := r.groupsFor(ctx, accounts[i].ID)
		if err != nil {
			return nil, err
		}
		accounts[i].Groups = groups
	}
	return accounts, nil
}

func (r *accountRepository) ListActiveByArea(ctx context.Context, areaID string) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE area_id=$1 AND is_active ORDER BY username`, areaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// SetGroups replaces the account's group memberships.
func (r *accountRepository) SetGroups(ctx context.Context, accountID string, groups []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM account_groups WHERE account_id=$1`, accountID); err != nil {
		return err
	}
	for _, group := range groups {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account_groups (account_id, group_name) VALUES ($1,$2)`, accountID, group); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *accountRepository) groupsFor(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT group_name FROM account_groups WHERE account_id=$1 ORDER BY group_name`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

func scanAccounts(rows pgx.Rows) ([]domain.Account, error) {
	var result []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.PasswordHash,
			&account.IsStaff,
			&account.IsActive,
			&account.IsSuperuser,
			&account.AreaID,
			&account.InternalPhone,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}
