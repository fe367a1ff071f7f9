package usertokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/dbx"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.UserToken) error {
	query := `
		INSERT INTO user_tokens (user_id, purpose, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, t.UserID, string(t.Purpose), t.TokenHash, t.Expires).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindUsable(ctx context.Context, userID string, purpose models.TokenPurpose, hash []byte, now time.Time) (*models.UserToken, error) {
	query := `
		SELECT id, user_id, purpose, token_hash, expires_at, created_at
		FROM user_tokens
		WHERE user_id = $1 AND purpose = $2 AND token_hash = $3 AND used_at IS NULL AND expires_at > $4
	`
	var (
		t    models.UserToken
		purp string
	)
	err := r.db.QueryRowContext(ctx, query, userID, string(purpose), hash, now).
		Scan(&t.ID, &t.UserID, &purp, &t.TokenHash, &t.Expires, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Purpose = models.TokenPurpose(purp)
	return &t, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE user_tokens SET used_at = $2
		WHERE id = $1 AND used_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) InvalidateAll(ctx context.Context, userID string, purpose models.TokenPurpose, at time.Time) error {
	query := `
		UPDATE user_tokens SET used_at = $3
		WHERE user_id = $1 AND purpose = $2 AND used_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(purpose), at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
