package expenses

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

const selectExpense = `SELECT e.id, e.amount, e.date, e.description, e.user_id, e.category_id, e.receipt_key, u.username, c.name
		FROM expenses e
		JOIN users u ON u.id = e.user_id
		JOIN categories c ON c.id = e.category_id`

var sortColumns = map[string]string{
	"id":           "e.id",
	"amount":       "e.amount",
	"date":         "e.date",
	"description":  "e.description",
	"username":     "u.username",
	"categoryname": "c.name",
}

// PostgresRepository implements expense storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*models.Expense, error) {
	var (
		e       models.Expense
		receipt sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Amount, &e.Date, &e.Description, &e.UserID, &e.CategoryID, &receipt,
		&e.UserName, &e.CategoryName); err != nil {
		return nil, err
	}
	if receipt.Valid {
		e.ReceiptKey = &receipt.String
	}
	return &e, nil
}

func (r *PostgresRepository) list(ctx context.Context, q string, args ...any) ([]*models.Expense, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectExpense+"\n\t\tWHERE e.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	return r.list(ctx, selectExpense+"\n\t\tWHERE e.user_id = $1 ORDER BY e.date DESC, e.id DESC", userID)
}

// ListByCategory lists expenses of categoryID; a non-empty userID limits
// the result to that owner.
func (r *PostgresRepository) ListByCategory(ctx context.Context, categoryID int64, userID string) ([]*models.Expense, error) {
	var cond query.Conditions
	cond.Add("e.category_id = $%d", categoryID)
	if userID != "" {
		cond.Add("e.user_id = $%d", userID)
	}
	return r.list(ctx, selectExpense+cond.Where()+" ORDER BY e.date DESC, e.id DESC", cond.Args()...)
}

func (f Filter) conditions() *query.Conditions {
	cond := &query.Conditions{}
	if f.UserID != "" {
		cond.Add("e.user_id = $%d", f.UserID)
	}
	if f.MinAmount != nil {
		cond.Add("e.amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		cond.Add("e.amount <= $%d", *f.MaxAmount)
	}
	if f.DateFrom != nil {
		cond.Add("e.date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		cond.Add("e.date <= $%d", *f.DateTo)
	}
	if f.UserName != "" {
		cond.Add("u.username ILIKE $%d", query.Contains(f.UserName))
	}
	if f.CategoryName != "" {
		cond.Add("c.name ILIKE $%d", query.Contains(f.CategoryName))
	}
	return cond
}

func (r *PostgresRepository) ListPaged(ctx context.Context, filter Filter, params query.Parameters) (*query.PagedList[*models.Expense], error) {
	cond := filter.conditions()

	countQuery := `SELECT COUNT(*)
		FROM expenses e
		JOIN users u ON u.id = e.user_id
		JOIN categories c ON c.id = e.category_id` + cond.Where()

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, cond.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	page, args := cond.Page(params)
	orderBy := query.OrderBy(params.OrderBy, sortColumns, "e.date DESC, e.id DESC")

	items, err := r.list(ctx, selectExpense+cond.Where()+" ORDER BY "+orderBy+page, args...)
	if err != nil {
		return nil, err
	}
	return query.NewPagedList(items, total, params), nil
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Expense) error {
	q := `
		INSERT INTO expenses (amount, date, description, user_id, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, q, e.Amount, e.Date, e.Description, e.UserID, e.CategoryID).Scan(&e.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("unknown user or category: %w", common.ErrorValidation)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.Expense) error {
	q := `
		UPDATE expenses SET amount = $2, date = $3, description = $4, category_id = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q, e.ID, e.Amount, e.Date, e.Description, e.CategoryID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("unknown category: %w", common.ErrorValidation)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) SetReceiptKey(ctx context.Context, id int64, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE expenses SET receipt_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
