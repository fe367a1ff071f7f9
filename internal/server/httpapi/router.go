// Package httpapi exposes the MyBudget services over a JSON REST API built
// on gin.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
)

// Deps are the collaborators of the router.
type Deps struct {
	Auth       AuthAPI
	Categories CategoryAPI
	Expenses   ExpenseAPI
	Users      UserAPI
	Tokens     TokenParser
	Logger     logging.Logger

	// CookieSecure sets the Secure attribute of the refresh cookie.
	CookieSecure bool
}

type api struct {
	auth       AuthAPI
	categories CategoryAPI
	expenses   ExpenseAPI
	users      UserAPI
	tokens     TokenParser
	cookies    cookieManager
	log        logging.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	a := &api{
		auth:       d.Auth,
		categories: d.Categories,
		expenses:   d.Expenses,
		users:      d.Users,
		tokens:     d.Tokens,
		cookies:    cookieManager{secure: d.CookieSecure},
		log:        d.Logger.With("module", "http"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.log))
	_ = r.SetTrustedProxies(nil)

	authenticated := authenticate(a.tokens, a.log)
	admin := requireRole(common.RoleAdmin)

	ag := r.Group("/api/auth")
	ag.POST("/login", a.login)
	ag.POST("/register", a.register)
	ag.POST("/refresh-token", a.refreshToken)
	ag.GET("/confirm-email", a.confirmEmail)
	ag.POST("/forgot-password", a.forgotPassword)
	ag.POST("/reset-password", a.resetPassword)
	ag.POST("/logout", authenticated, a.logout)

	cg := r.Group("/api/categories", authenticated)
	cg.GET("", a.listCategories)
	cg.GET("/paginated", a.pagedCategories)
	cg.GET("/:id", a.getCategory)
	cg.POST("", admin, a.createCategory)
	cg.PUT("/:id", admin, a.updateCategory)
	cg.DELETE("/:id", admin, a.deleteCategory)

	eg := r.Group("/api/expenses", authenticated)
	eg.GET("/user/:userId", admin, a.expensesByUser)
	eg.GET("/category/:categoryId", a.expensesByCategory)
	eg.GET("/paginated", a.pagedExpenses)
	eg.GET("/:id", a.getExpense)
	eg.POST("", a.createExpense)
	eg.PUT("/:id", a.updateExpense)
	eg.DELETE("/:id", a.deleteExpense)
	eg.POST("/:id/receipt", a.uploadReceipt)
	eg.GET("/:id/receipt", a.receiptURL)

	ug := r.Group("/api/users", authenticated, admin)
	ug.GET("", a.listUsers)
	ug.GET("/paginated", a.pagedUsers)
	ug.GET("/:id", a.getUser)
	ug.GET("/:id/with-expenses", a.getUserWithExpenses)
	ug.POST("", a.createUser)
	ug.PUT("/:id", a.updateUser)
	ug.DELETE("/:id", a.deleteUser)
	ug.PUT("/:id/block", a.setBlockStatus)

	return r
}
