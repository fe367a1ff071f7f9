package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/dbx"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, created_at, created_by_ip, expires_at, revoked_at, revoked_by_ip, replaced_by_token
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RefreshToken
	for rows.Next() {
		var (
			t          models.RefreshToken
			revoked    sql.NullTime
			revokedBy  sql.NullString
			replacedBy sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Created, &t.CreatedByIP, &t.Expires,
			&revoked, &revokedBy, &replacedBy); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if revoked.Valid {
			t.Revoked = &revoked.Time
		}
		if revokedBy.Valid {
			t.RevokedByIP = &revokedBy.String
		}
		if replacedBy.Valid {
			t.ReplacedByToken = &replacedBy.String
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) FindOwner(ctx context.Context, token string) (string, error) {
	query := `
		SELECT user_id
		FROM refresh_tokens
		WHERE token = $1
	`
	var userID string
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, t *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, created_at, created_by_ip, expires_at, revoked_at, revoked_by_ip, replaced_by_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		t.UserID, t.Token, t.Created, t.CreatedByIP, t.Expires, t.Revoked, t.RevokedByIP, t.ReplacedByToken).Scan(&t.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateRevocation(ctx context.Context, t *models.RefreshToken) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2, revoked_by_ip = $3, replaced_by_token = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, t.ID, t.Revoked, t.RevokedByIP, t.ReplacedByToken)
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
