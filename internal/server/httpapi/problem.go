package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
)

// Problem is the error body of every failed request.
type Problem struct {
	Status   int    `json:"status"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrTokenMissing),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorConflict), errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeProblem aborts the request with the problem body for err. Internal
// errors are logged and answered with a generic detail.
func writeProblem(c *gin.Context, log logging.Logger, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		detail = "An unexpected error occurred."
	}
	abortProblem(c, status, detail)
}

func abortProblem(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, Problem{
		Status:   status,
		Title:    http.StatusText(status),
		Detail:   detail,
		Instance: c.Request.URL.Path,
	})
}
