package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/mybudget/internal/common"
)

// cookieManager writes the refresh token cookie. It is always HttpOnly and
// SameSite=Strict; Secure follows the configuration.
type cookieManager struct {
	secure bool
}

func (m cookieManager) setRefreshToken(c *gin.Context, value string, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m cookieManager) clearRefreshToken(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshToken returns the raw refresh cookie value, or "" if absent.
// gin's c.Cookie query-unescapes, which would turn '+' of the base64 value
// into a space.
func (m cookieManager) refreshToken(c *gin.Context) string {
	cookie, err := c.Request.Cookie(common.RefreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
