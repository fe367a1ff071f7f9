package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/users"
	"github.com/dmitrijs2005/mybudget/internal/server/services"
)

// UserAPI is implemented by services.UserService.
type UserAPI interface {
	List(ctx context.Context) ([]*models.User, error)
	ListPaged(ctx context.Context, filter users.Filter, params query.Parameters) (*query.PagedList[*models.User], error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetWithExpenses(ctx context.Context, id string) (*services.UserWithExpenses, error)
	Create(ctx context.Context, in services.UserInput) (*models.User, error)
	Update(ctx context.Context, id string, in services.UserInput) (*models.User, error)
	Delete(ctx context.Context, id string) error
	SetBlockStatus(ctx context.Context, id string, blocked bool) (*models.User, error)
}

func (a *api) listUsers(c *gin.Context) {
	list, err := a.users.List(c.Request.Context())
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponses(list))
}

func (a *api) pagedUsers(c *gin.Context) {
	params, ok := a.pageParams(c)
	if !ok {
		return
	}
	var filter users.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		writeProblem(c, a.log, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error()))
		return
	}

	page, err := a.users.ListPaged(c.Request.Context(), filter, params)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	out := query.PagedList[userResponse]{
		Items:       newUserResponses(page.Items),
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		PageSize:    page.PageSize,
		TotalCount:  page.TotalCount,
		HasPrevious: page.HasPrevious,
		HasNext:     page.HasNext,
	}
	c.JSON(http.StatusOK, out)
}

func (a *api) getUser(c *gin.Context) {
	u, err := a.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (a *api) getUserWithExpenses(c *gin.Context) {
	res, err := a.users.GetWithExpenses(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, userWithExpensesResponse{
		userResponse: newUserResponse(res.User),
		Expenses:     expenseList(res.Expenses),
	})
}

func (a *api) createUser(c *gin.Context) {
	var req userCreateRequest
	if !a.bind(c, &req) {
		return
	}
	u, err := a.users.Create(c.Request.Context(), services.UserInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Header("Location", "/api/users/"+u.ID)
	c.JSON(http.StatusCreated, newUserResponse(u))
}

func (a *api) updateUser(c *gin.Context) {
	var req userUpdateRequest
	if !a.bind(c, &req) {
		return
	}
	_, err := a.users.Update(c.Request.Context(), c.Param("id"), services.UserInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) deleteUser(c *gin.Context) {
	if err := a.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// setBlockStatus reads ?isBlocked=true|false.
func (a *api) setBlockStatus(c *gin.Context) {
	blocked, err := strconv.ParseBool(c.Query("isBlocked"))
	if err != nil {
		writeProblem(c, a.log, fmt.Errorf("%w: isBlocked must be true or false", common.ErrorValidation))
		return
	}
	if _, err := a.users.SetBlockStatus(c.Request.Context(), c.Param("id"), blocked); err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
