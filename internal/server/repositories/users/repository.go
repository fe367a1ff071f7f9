// Package users declares the server-side repository contract for user rows.
package users

import (
	"context"

	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
)

// Filter narrows paged user listings. Empty strings and nil match everything.
type Filter struct {
	UserName  string `form:"userName"`
	Email     string `form:"email"`
	IsBlocked *bool  `form:"isBlocked"`
}

// Repository persists the user row only; roles and refresh tokens have
// their own repositories. Roles and RefreshTokens of returned users are
// left empty.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update writes the row if its version still matches user.Version and
	// bumps user.Version. A stale version yields common.ErrVersionConflict.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	List(ctx context.Context) ([]*models.User, error)
	ListPaged(ctx context.Context, filter Filter, params query.Parameters) (*query.PagedList[*models.User], error)
}
