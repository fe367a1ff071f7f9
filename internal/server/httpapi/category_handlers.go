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
)

// CategoryAPI is implemented by services.CategoryService.
type CategoryAPI interface {
	List(ctx context.Context) ([]*models.Category, error)
	ListPaged(ctx context.Context, name string, params query.Parameters) (*query.PagedList[*models.Category], error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
	Update(ctx context.Context, id int64, name string) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

// idParam parses the named int64 path parameter.
func (a *api) idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(c, a.log, fmt.Errorf("%w: invalid %s", common.ErrorValidation, name))
		return 0, false
	}
	return id, true
}

// pageParams binds pageNumber, pageSize and orderBy from the query string.
func (a *api) pageParams(c *gin.Context) (query.Parameters, bool) {
	var p query.Parameters
	if err := c.ShouldBindQuery(&p); err != nil {
		writeProblem(c, a.log, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error()))
		return p, false
	}
	return p.Normalize(), true
}

func (a *api) listCategories(c *gin.Context) {
	list, err := a.categories.List(c.Request.Context())
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	if list == nil {
		list = []*models.Category{}
	}
	c.JSON(http.StatusOK, list)
}

func (a *api) pagedCategories(c *gin.Context) {
	params, ok := a.pageParams(c)
	if !ok {
		return
	}
	page, err := a.categories.ListPaged(c.Request.Context(), c.Query("name"), params)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *api) getCategory(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	cat, err := a.categories.Get(c.Request.Context(), id)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (a *api) createCategory(c *gin.Context) {
	var req categoryRequest
	if !a.bind(c, &req) {
		return
	}
	cat, err := a.categories.Create(c.Request.Context(), req.Name)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/categories/%d", cat.ID))
	c.JSON(http.StatusCreated, cat)
}

func (a *api) updateCategory(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !a.bind(c, &req) {
		return
	}
	if _, err := a.categories.Update(c.Request.Context(), id, req.Name); err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) deleteCategory(c *gin.Context) {
	id, ok := a.idParam(c, "id")
	if !ok {
		return
	}
	if err := a.categories.Delete(c.Request.Context(), id); err != nil {
		writeProblem(c, a.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
