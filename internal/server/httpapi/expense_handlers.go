package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
	"github.com/dmitrijs2005/mybudget/internal/server/services"
)

// ExpenseAPI is implemented by services.ExpenseService.
type ExpenseAPI interface {
	ListByUser(ctx context.Context, actor services.Actor, userID string) ([]*models.Expense, error)
	ListByCategory(ctx context.Context, actor services.Actor, categoryID int64) ([]*models.Expense, error)
	ListPaged(ctx context.Context, actor services.Actor, filter expenses.Filter, params query.Parameters) (*query.PagedList[*models.Expense], error)
	Get(ctx context.Context, actor services.Actor, id int64) (*models.Expense, error)
	Create(ctx context.Context, actor services.Actor, in services.ExpenseInput) (*models.Expense, error)
	Update(ctx context.Context, actor services.Actor, id int64, in services.ExpenseInput) (*models.Expense, error)
	Delete(ctx context.Context, actor services.Actor, id int64) error
	UploadReceipt(ctx context.Context, actor services.Actor, id int64) (*services.Receipt, error)
	ReceiptURL(ctx context.Context, actor services.Actor, id int64) (*services.Receipt, error)
}

func expenseList(list []*models.Expense) []*models.Expense {
	if list == nil {
		return []*models.Expense{}
	}
	return list
}

func (r expenseRequest) input() services.ExpenseInput {
	return services.ExpenseInput{
		Amount:      r.Amount,
		Date:        r.Date,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		UserID:      r.UserID,
	}
}

// expenseFilter reads minAmount, maxAmount, dateFrom, dateTo, userName and
// categoryName from the query string. Dates are YYYY-MM-DD or RFC 3339.
func expenseFilter(c *gin.Context) (expenses.Filter, error) {
	f := expenses.Filter{
		UserName:     c.Query("userName"),
		CategoryName: c.Query("categoryName"),
	}

	amount := func(name string) (*decimal.Decimal, error) {
		v := c.Query(name)
		if v == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s", common.ErrorValidation, name)
		}
		return &d, nil
	}
	date := func(name string) (*time.Time, error) {
		v := c.Query(name)
		if v == "" {
			return nil, nil
		}
		for _, layout := range []string{time.DateOnly, time.RFC3339} {
			if t, err := time.Parse(layout, v); err == nil {
				return &t, nil
			}
		}
		return nil, fmt.Errorf("%w: invalid %s", common.ErrorValidation, name)
	}

	var err error
	if f.MinAmount, err = amount("minAmount"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = amount("maxAmount"); err != nil {
		return f, err
	}
	if f.DateFrom, err = date("dateFrom"); err != nil {
		return f, err
	}
	if f.DateTo, err = date("dateTo"); err != nil {
		return f, err
	}
	return f, nil
}

func (a *api) expensesByUser(c *gin.Context) {
	list, err := a.expenses.ListByUser(c.Request.Context(), actorFrom(c), c.Param("userId"))
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, expenseList(list))
}

func (a *api) expensesByCategory(c *gin.Context) {
	id, ok := a.idParam(c, "categoryId")
	if !ok {
		return
	}
	list, err := a.expenses.ListByCategory(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, expenseList(list))
}

func (a *api) pagedExpenses(c *gin.Context) {
	params, ok := a.pageParams(c)
	if !ok {
		return
	}
	filter, err := expenseFilter(c)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	page, err := a.expenses.ListPaged(c.Request.Context(), actorFrom(c), filter, params)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *api) getExpense(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	e, err := a.expenses.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (a *api) createExpense(c *gin.Context) {
	var req expenseRequest
	if !a.bind(c, &req) {
		return
	}
	e, err := a.expenses.Create(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/expenses/%d", e.ID))
	c.JSON(http.StatusCreated, e)
}

func (a *api) updateExpense(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	var req expenseRequest
	if !a.bind(c, &req) {
		return
	}
	if _, err := a.expenses.Update(c.Request.Context(), actorFrom(c), id, req.input()); err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) deleteExpense(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	if err := a.expenses.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) uploadReceipt(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	r, err := a.expenses.UploadReceipt(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, receiptResponse{Key: r.Key, URL: r.URL, ExpiresIn: r.ExpiresIn})
}

func (a *api) receiptURL(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	r, err := a.expenses.ReceiptURL(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, receiptResponse{Key: r.Key, URL: r.URL, ExpiresIn: r.ExpiresIn})
}
