package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/auth"
	"github.com/dmitrijs2005/mybudget/internal/server/services"
)

// TokenParser validates bearer access tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

const claimsKey = "claims"

// requestLogger logs one line per served request.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}

// authenticate requires a valid "Bearer <token>" Authorization header and
// stores its claims in the context.
func authenticate(tokens TokenParser, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeProblem(c, log, common.ErrTokenMissing)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeProblem(c, log, common.ErrInvalidToken)
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			writeProblem(c, log, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// requireRole must run after authenticate.
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims == nil || !claims.HasRole(role) {
			abortProblem(c, http.StatusForbidden, "the "+role+" role is required")
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func actorFrom(c *gin.Context) services.Actor {
	claims := claimsFrom(c)
	if claims == nil {
		return services.Actor{}
	}
	return services.Actor{UserID: claims.UserID, Admin: claims.HasRole(common.RoleAdmin)}
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return common.UnknownIP
}
