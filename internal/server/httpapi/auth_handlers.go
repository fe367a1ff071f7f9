package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/server/services"
)

// AuthAPI is implemented by services.AuthService.
type AuthAPI interface {
	Login(ctx context.Context, userName, password, ip string) (*services.LoginResult, error)
	Register(ctx context.Context, userName, email, password string) (bool, error)
	RefreshToken(ctx context.Context, cookie, ip string) (*services.RefreshResult, error)
	ConfirmEmail(ctx context.Context, userID, token string) (bool, error)
	ForgotPassword(ctx context.Context, email string) (bool, error)
	ResetPassword(ctx context.Context, email, token, newPassword string) (bool, error)
	Logout(ctx context.Context, cookie, ip string) error
}

// bind decodes the JSON body into dst and answers 400 on failure.
func (a *api) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeProblem(c, a.log, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error()))
		return false
	}
	return true
}

func (a *api) login(c *gin.Context) {
	var req loginRequest
	if !a.bind(c, &req) {
		return
	}

	res, err := a.auth.Login(c.Request.Context(), req.UserName, req.Password, clientIP(c))
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}

	a.cookies.setRefreshToken(c, res.RefreshToken, res.RefreshTokenExpires)
	c.JSON(http.StatusOK, loginResponse{
		UserName:    res.UserName,
		Email:       res.Email,
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
	})
}

func (a *api) register(c *gin.Context) {
	var req registerRequest
	if !a.bind(c, &req) {
		return
	}

	ok, err := a.auth.Register(c.Request.Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	if !ok {
		abortProblem(c, http.StatusConflict, "User with the same username or email already exists.")
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "Registration successful"})
}

func (a *api) refreshToken(c *gin.Context) {
	res, err := a.auth.RefreshToken(c.Request.Context(), a.cookies.refreshToken(c), clientIP(c))
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}

	a.cookies.setRefreshToken(c, res.RefreshToken, res.RefreshTokenExpires)
	c.JSON(http.StatusOK, refreshResponse{AccessToken: res.AccessToken, ExpiresIn: res.ExpiresIn})
}

func (a *api) confirmEmail(c *gin.Context) {
	userID, token := c.Query("userId"), c.Query("token")
	if userID == "" || token == "" {
		abortProblem(c, http.StatusBadRequest, "userId and token are required")
		return
	}

	ok, err := a.auth.ConfirmEmail(c.Request.Context(), userID, token)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	if !ok {
		abortProblem(c, http.StatusBadRequest, "Email confirmation failed.")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Email successfully confirmed."})
}

func (a *api) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !a.bind(c, &req) {
		return
	}

	ok, err := a.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	if !ok {
		abortProblem(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Reset code sent to email."})
}

func (a *api) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !a.bind(c, &req) {
		return
	}

	ok, err := a.auth.ResetPassword(c.Request.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		writeProblem(c, a.log, err)
		return
	}
	if !ok {
		abortProblem(c, http.StatusBadRequest, "Failed to reset password.")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Password reset successful."})
}

func (a *api) logout(c *gin.Context) {
	if err := a.auth.Logout(c.Request.Context(), a.cookies.refreshToken(c), clientIP(c)); err != nil {
		writeProblem(c, a.log, err)
		return
	}
	a.cookies.clearRefreshToken(c)
	c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}
