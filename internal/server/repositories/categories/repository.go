// Package categories persists expense categories.
package categories

import (
	"context"

	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Category, error)
	// ListPaged filters by a case-insensitive substring of the name.
	ListPaged(ctx context.Context, name string, params query.Parameters) (*query.PagedList[*models.Category], error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	// Create and Update return common.ErrorConflict for a duplicate name.
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	// Delete returns common.ErrorConflict while expenses still use the category.
	Delete(ctx context.Context, id int64) error
}
