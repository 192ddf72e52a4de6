package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/dmitrijs2005/kontur-authorization/internal/dbx"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, refresh_token, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id)
		VALUES ($1)
		RETURNING id, refresh_token, created_at, updated_at
	`
	account, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, err
	}
	return account, nil
}

func (r *PostgresRepository) FindByRefreshToken(ctx context.Context, token string) (*models.Account, error) {
	query := `
		SELECT id, refresh_token, created_at, updated_at
		FROM accounts
		WHERE refresh_token = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id int64, token string) error {
	query := `
		UPDATE accounts
		SET refresh_token = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		account models.Account
		token   sql.NullString
	)
	if err := row.Scan(&account.ID, &token, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrStoreUnavailable, err)
	}
	account.RefreshToken = token.String
	return &account, nil
}
