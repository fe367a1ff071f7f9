package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

type loginRequest struct {
	UserName string `json:"userName" binding:"required,min=6"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginResponse struct {
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type registerRequest struct {
	UserName string `json:"userName" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type expenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description" binding:"max=500"`
	CategoryID  int64           `json:"categoryId" binding:"required,gt=0"`
	UserID      string          `json:"userId"`
}

type userCreateRequest struct {
	UserName string `json:"userName" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type userUpdateRequest struct {
	UserName string `json:"userName" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type userResponse struct {
	ID             string    `json:"id"`
	UserName       string    `json:"userName"`
	Email          string    `json:"email"`
	IsBlocked      bool      `json:"isBlocked"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	Roles          []string  `json:"roles"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newUserResponse(u *models.User) userResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userResponse{
		ID:             u.ID,
		UserName:       u.UserName,
		Email:          u.Email,
		IsBlocked:      u.IsBlocked,
		EmailConfirmed: u.EmailConfirmed,
		Roles:          roles,
		CreatedAt:      u.CreatedAt,
	}
}

func newUserResponses(list []*models.User) []userResponse {
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, newUserResponse(u))
	}
	return out
}

type userWithExpensesResponse struct {
	userResponse
	Expenses []*models.Expense `json:"expenses"`
}

type receiptResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}
