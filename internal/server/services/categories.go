package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/repomanager"
)

const (
	categoryNameMin = 4
	categoryNameMax = 100
)

type CategoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewCategoryService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CategoryService {
	return &CategoryService{db: db, repomanager: m, log: log.With("module", "categories")}
}

func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	list, err := s.repomanager.Categories(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return list, nil
}

func (s *CategoryService) ListPaged(ctx context.Context, name string, params query.Parameters) (*query.PagedList[*models.Category], error) {
	page, err := s.repomanager.Categories(s.db).ListPaged(ctx, name, params)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return page, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.repomanager.Categories(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Categories(s.db)
	if err := s.checkNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	c := &models.Category{Name: name}
	if err := repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	s.log.Info(ctx, "category created", "category_id", c.ID)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, name string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	c.Name = name
	if err := s.repomanager.Categories(s.db).Update(ctx, c); err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}
	return c, nil
}

// Delete fails with common.ErrorConflict while expenses use the category.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Categories(s.db).Delete(ctx, id); err != nil {
		return notFound(err, "category", id)
	}
	s.log.Info(ctx, "category deleted", "category_id", id)
	return nil
}

// checkNameFree fails with common.ErrorConflict if another category than
// self already has name.
func (s *CategoryService) checkNameFree(ctx context.Context, name string, self int64) error {
	existing, err := s.repomanager.Categories(s.db).GetByName(ctx, name)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("finding category: %w", err)
	case existing.ID != self:
		return fmt.Errorf("%w: category %q already exists", common.ErrorConflict, name)
	}
	return nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: category name is required", common.ErrorValidation)
	}
	if n := utf8.RuneCountInString(name); n < categoryNameMin || n > categoryNameMax {
		return "", fmt.Errorf("%w: category name must be %d to %d characters long",
			common.ErrorValidation, categoryNameMin, categoryNameMax)
	}
	return name, nil
}
