package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/dbx"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
)

const selectUser = `SELECT u.id, u.username, u.email, u.password_hash, u.is_blocked, u.email_confirmed, u.created_at, u.version
		 FROM users u`

var sortColumns = map[string]string{
	"username":  "u.username",
	"email":     "u.email",
	"isblocked": "u.is_blocked",
	"createdat": "u.created_at",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.IsBlocked, &u.EmailConfirmed, &u.CreatedAt, &u.Version)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Version = 1

	query :=
		`INSERT INTO users (id, username, email, password_hash, is_blocked, email_confirmed, created_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, user.PasswordHash, user.IsBlocked, user.EmailConfirmed, user.CreatedAt, user.Version)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUser+"\n\t\t WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, "u.id = $1", id)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, "lower(u.username) = lower($1)", userName)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "lower(u.email) = lower($1)", email)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET username = $3, email = $4, password_hash = $5, is_blocked = $6, email_confirmed = $7, version = version + 1
		 WHERE id = $1 AND version = $2
		 RETURNING version
		 `

	var version int64
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Version, user.UserName, user.Email, user.PasswordHash, user.IsBlocked, user.EmailConfirmed).Scan(&version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrVersionConflict
		case dbx.IsUniqueViolation(err):
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	user.Version = version
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, selectUser+"\n\t\t ORDER BY u.username")
}

func (r *PostgresRepository) list(ctx context.Context, q string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListPaged(ctx context.Context, filter Filter, params query.Parameters) (*query.PagedList[*models.User], error) {
	var cond query.Conditions
	if filter.UserName != "" {
		cond.Add("u.username ILIKE $%d", query.Contains(filter.UserName))
	}
	if filter.Email != "" {
		cond.Add("u.email ILIKE $%d", query.Contains(filter.Email))
	}
	if filter.IsBlocked != nil {
		cond.Add("u.is_blocked = $%d", *filter.IsBlocked)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users u"+cond.Where(), cond.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	page, args := cond.Page(params)
	orderBy := query.OrderBy(params.OrderBy, sortColumns, "u.username ASC")

	items, err := r.list(ctx, selectUser+cond.Where()+" ORDER BY "+orderBy+page, args...)
	if err != nil {
		return nil, err
	}

	return query.NewPagedList(items, total, params), nil
}
