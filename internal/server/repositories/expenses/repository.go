// Package expenses persists expenses together with their receipt keys.
package expenses

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
)

// Filter narrows paged expense listings. Zero values match everything.
// UserID restricts the listing to one owner.
type Filter struct {
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
	DateFrom     *time.Time
	DateTo       *time.Time
	UserName     string
	CategoryName string
	UserID       string
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*models.Expense, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Expense, error)
	ListByCategory(ctx context.Context, categoryID int64, userID string) ([]*models.Expense, error)
	ListPaged(ctx context.Context, filter Filter, params query.Parameters) (*query.PagedList[*models.Expense], error)
	Create(ctx context.Context, e *models.Expense) error
	Update(ctx context.Context, e *models.Expense) error
	Delete(ctx context.Context, id int64) error
	SetReceiptKey(ctx context.Context, id int64, key string) error
}
