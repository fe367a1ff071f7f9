package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mybudget/internal/server/storage"
)

const maxDescriptionLen = 500

// Actor is the authenticated caller. Non-admins only reach their own
// expenses.
type Actor struct {
	UserID string
	Admin  bool
}

func (a Actor) owns(userID string) bool {
	return a.Admin || a.UserID == userID
}

// ExpenseInput is a create or update request. UserID is honoured for admins
// on create only.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	CategoryID  int64
	UserID      string
}

// Receipt is a presigned object-storage URL for an expense receipt.
type Receipt struct {
	Key       string
	URL       string
	ExpiresIn int64
}

type ExpenseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	receipts    storage.ReceiptStorage
	log         logging.Logger
	now         func() time.Time
}

func NewExpenseService(db *sql.DB, m repomanager.RepositoryManager, receipts storage.ReceiptStorage, log logging.Logger) *ExpenseService {
	return &ExpenseService{
		db:          db,
		repomanager: m,
		receipts:    receipts,
		log:         log.With("module", "expenses"),
		now:         time.Now,
	}
}

// ListByUser returns every expense of userID.
func (s *ExpenseService) ListByUser(ctx context.Context, actor Actor, userID string) ([]*models.Expense, error) {
	if !actor.owns(userID) {
		return nil, fmt.Errorf("%w: expenses of another user", common.ErrorForbidden)
	}
	list, err := s.repomanager.Expenses(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return list, nil
}

// ListByCategory returns the expenses of a category visible to actor.
func (s *ExpenseService) ListByCategory(ctx context.Context, actor Actor, categoryID int64) ([]*models.Expense, error) {
	owner := actor.UserID
	if actor.Admin {
		owner = ""
	}
	list, err := s.repomanager.Expenses(s.db).ListByCategory(ctx, categoryID, owner)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return list, nil
}

func (s *ExpenseService) ListPaged(ctx context.Context, actor Actor, filter expenses.Filter, params query.Parameters) (*query.PagedList[*models.Expense], error) {
	if !actor.Admin {
		filter.UserID = actor.UserID
	}
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return nil, fmt.Errorf("%w: minAmount is greater than maxAmount", common.ErrorValidation)
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, fmt.Errorf("%w: dateFrom is after dateTo", common.ErrorValidation)
	}
	page, err := s.repomanager.Expenses(s.db).ListPaged(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return page, nil
}

func (s *ExpenseService) Get(ctx context.Context, actor Actor, id int64) (*models.Expense, error) {
	e, err := s.repomanager.Expenses(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "expense", id)
	}
	if !actor.owns(e.UserID) {
		return nil, fmt.Errorf("%w: expense %d belongs to another user", common.ErrorForbidden, id)
	}
	return e, nil
}

func (s *ExpenseService) Create(ctx context.Context, actor Actor, in ExpenseInput) (*models.Expense, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	owner := actor.UserID
	if actor.Admin && in.UserID != "" {
		owner = in.UserID
	}

	e := &models.Expense{
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		UserID:      owner,
	}
	repo := s.repomanager.Expenses(s.db)
	if err := repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	s.log.Info(ctx, "expense created", "expense_id", e.ID, "user_id", owner)
	return s.reload(ctx, e.ID)
}

func (s *ExpenseService) Update(ctx context.Context, actor Actor, id int64, in ExpenseInput) (*models.Expense, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	e.Amount = in.Amount
	e.Date = in.Date
	e.Description = in.Description
	e.CategoryID = in.CategoryID
	if err := s.repomanager.Expenses(s.db).Update(ctx, e); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	return s.reload(ctx, id)
}

func (s *ExpenseService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repomanager.Expenses(s.db).Delete(ctx, id); err != nil {
		return notFound(err, "expense", id)
	}
	s.log.Info(ctx, "expense deleted", "expense_id", id)
	return nil
}

// UploadReceipt records a fresh receipt key on the expense and returns a
// presigned PUT URL for it.
func (s *ExpenseService) UploadReceipt(ctx context.Context, actor Actor, id int64) (*Receipt, error) {
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := s.receipts.NewKey(e.UserID, e.ID)
	url, err := s.receipts.PresignPut(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presigning receipt upload: %w", err)
	}
	if err := s.repomanager.Expenses(s.db).SetReceiptKey(ctx, id, key); err != nil {
		return nil, fmt.Errorf("saving receipt key: %w", err)
	}
	return &Receipt{Key: key, URL: url, ExpiresIn: int64(storage.PresignExpiry / time.Second)}, nil
}

// ReceiptURL returns a presigned GET URL for the expense receipt.
func (s *ExpenseService) ReceiptURL(ctx context.Context, actor Actor, id int64) (*Receipt, error) {
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if e.ReceiptKey == nil {
		return nil, fmt.Errorf("%w: expense %d has no receipt", common.ErrorNotFound, id)
	}

	url, err := s.receipts.PresignGet(ctx, *e.ReceiptKey)
	if err != nil {
		return nil, fmt.Errorf("presigning receipt download: %w", err)
	}
	return &Receipt{Key: *e.ReceiptKey, URL: url, ExpiresIn: int64(storage.PresignExpiry / time.Second)}, nil
}

func (s *ExpenseService) reload(ctx context.Context, id int64) (*models.Expense, error) {
	e, err := s.repomanager.Expenses(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "expense", id)
	}
	return e, nil
}

// validate checks in and defaults a zero date to now.
func (s *ExpenseService) validate(in *ExpenseInput) error {
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", common.ErrorValidation)
	}
	now := s.now()
	if in.Date.IsZero() {
		in.Date = now
	}
	if in.Date.After(now) {
		return fmt.Errorf("%w: date cannot be in the future", common.ErrorValidation)
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description can't exceed %d characters", common.ErrorValidation, maxDescriptionLen)
	}
	if in.CategoryID <= 0 {
		return fmt.Errorf("%w: category is required", common.ErrorValidation)
	}
	return nil
}
