package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/dbx"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
)

var sortColumns = map[string]string{
	"id":   "c.id",
	"name": "c.name",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) list(ctx context.Context, q string, args ...any) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Category, error) {
	return r.list(ctx, `SELECT c.id, c.name FROM categories c ORDER BY c.name`)
}

func (r *PostgresRepository) ListPaged(ctx context.Context, name string, params query.Parameters) (*query.PagedList[*models.Category], error) {
	var cond query.Conditions
	if name != "" {
		cond.Add("c.name ILIKE $%d", query.Contains(name))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories c"+cond.Where(), cond.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	page, args := cond.Page(params)
	orderBy := query.OrderBy(params.OrderBy, sortColumns, "c.name ASC")

	items, err := r.list(ctx, "SELECT c.id, c.name FROM categories c"+cond.Where()+" ORDER BY "+orderBy+page, args...)
	if err != nil {
		return nil, err
	}
	return query.NewPagedList(items, total, params), nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRowContext(ctx, "SELECT c.id, c.name FROM categories c WHERE "+where, arg).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return r.getOne(ctx, "c.id = $1", id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return r.getOne(ctx, "lower(c.name) = lower($1)", name)
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("category is in use: %w", common.ErrorConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
