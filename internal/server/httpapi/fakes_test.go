package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/auth"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/users"
	"github.com/dmitrijs2005/mybudget/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- fakes ----

type fakeAuth struct {
	loginRes *services.LoginResult
	loginErr error

	registered  bool
	registerErr error

	refreshRes *services.RefreshResult
	refreshErr error
	gotCookie  string
	gotIP      string

	confirmed  bool
	confirmErr error
	gotToken   string

	forgotOK  bool
	forgotErr error

	resetOK  bool
	resetErr error

	logoutErr error
}

func (f *fakeAuth) Login(ctx context.Context, userName, password, ip string) (*services.LoginResult, error) {
	f.gotIP = ip
	return f.loginRes, f.loginErr
}
func (f *fakeAuth) Register(ctx context.Context, userName, email, password string) (bool, error) {
	return f.registered, f.registerErr
}
func (f *fakeAuth) RefreshToken(ctx context.Context, cookie, ip string) (*services.RefreshResult, error) {
	f.gotCookie, f.gotIP = cookie, ip
	return f.refreshRes, f.refreshErr
}
func (f *fakeAuth) ConfirmEmail(ctx context.Context, userID, token string) (bool, error) {
	f.gotToken = token
	return f.confirmed, f.confirmErr
}
func (f *fakeAuth) ForgotPassword(ctx context.Context, email string) (bool, error) {
	return f.forgotOK, f.forgotErr
}
func (f *fakeAuth) ResetPassword(ctx context.Context, email, token, newPassword string) (bool, error) {
	return f.resetOK, f.resetErr
}
func (f *fakeAuth) Logout(ctx context.Context, cookie, ip string) error {
	f.gotCookie = cookie
	return f.logoutErr
}

// fakeTokens accepts "admin" and "user" as bearer tokens.
type fakeTokens struct{}

func (fakeTokens) Parse(token string) (*auth.Claims, error) {
	switch token {
	case "admin":
		return &auth.Claims{UserID: "u-admin", Roles: []string{common.RoleAdmin}}, nil
	case "user":
		return &auth.Claims{UserID: "u-1", Roles: []string{common.RoleUser}}, nil
	case "expired":
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrInvalidToken
	}
}

type fakeCategories struct {
	list    []*models.Category
	created *models.Category
	err     error
	gotName string
	gotPage query.Parameters
}

func (f *fakeCategories) List(ctx context.Context) ([]*models.Category, error) {
	return f.list, f.err
}
func (f *fakeCategories) ListPaged(ctx context.Context, name string, params query.Parameters) (*query.PagedList[*models.Category], error) {
	f.gotName, f.gotPage = name, params
	return query.NewPagedList(f.list, len(f.list), params), f.err
}
func (f *fakeCategories) Get(ctx context.Context, id int64) (*models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Category{ID: id, Name: "Food"}, nil
}
func (f *fakeCategories) Create(ctx context.Context, name string) (*models.Category, error) {
	f.gotName = name
	return f.created, f.err
}
func (f *fakeCategories) Update(ctx context.Context, id int64, name string) (*models.Category, error) {
	f.gotName = name
	return &models.Category{ID: id, Name: name}, f.err
}
func (f *fakeCategories) Delete(ctx context.Context, id int64) error { return f.err }

type fakeExpenses struct {
	err       error
	gotActor  services.Actor
	gotFilter expenses.Filter
	gotInput  services.ExpenseInput
	receipt   *services.Receipt
}

func (f *fakeExpenses) ListByUser(ctx context.Context, actor services.Actor, userID string) ([]*models.Expense, error) {
	f.gotActor = actor
	return nil, f.err
}
func (f *fakeExpenses) ListByCategory(ctx context.Context, actor services.Actor, categoryID int64) ([]*models.Expense, error) {
	f.gotActor = actor
	return nil, f.err
}
func (f *fakeExpenses) ListPaged(ctx context.Context, actor services.Actor, filter expenses.Filter, params query.Parameters) (*query.PagedList[*models.Expense], error) {
	f.gotActor, f.gotFilter = actor, filter
	return query.NewPagedList([]*models.Expense{}, 0, params), f.err
}
func (f *fakeExpenses) Get(ctx context.Context, actor services.Actor, id int64) (*models.Expense, error) {
	f.gotActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &models.Expense{ID: id, UserID: actor.UserID}, nil
}
func (f *fakeExpenses) Create(ctx context.Context, actor services.Actor, in services.ExpenseInput) (*models.Expense, error) {
	f.gotActor, f.gotInput = actor, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Expense{ID: 42, Amount: in.Amount, UserID: actor.UserID, CategoryID: in.CategoryID}, nil
}
func (f *fakeExpenses) Update(ctx context.Context, actor services.Actor, id int64, in services.ExpenseInput) (*models.Expense, error) {
	f.gotActor, f.gotInput = actor, in
	return &models.Expense{ID: id}, f.err
}
func (f *fakeExpenses) Delete(ctx context.Context, actor services.Actor, id int64) error {
	f.gotActor = actor
	return f.err
}
func (f *fakeExpenses) UploadReceipt(ctx context.Context, actor services.Actor, id int64) (*services.Receipt, error) {
	return f.receipt, f.err
}
func (f *fakeExpenses) ReceiptURL(ctx context.Context, actor services.Actor, id int64) (*services.Receipt, error) {
	return f.receipt, f.err
}

type fakeUsers struct {
	list      []*models.User
	err       error
	gotFilter users.Filter
	gotInput  services.UserInput
	blocked   *bool
}

func (f *fakeUsers) List(ctx context.Context) ([]*models.User, error) { return f.list, f.err }
func (f *fakeUsers) ListPaged(ctx context.Context, filter users.Filter, params query.Parameters) (*query.PagedList[*models.User], error) {
	f.gotFilter = filter
	return query.NewPagedList(f.list, len(f.list), params), f.err
}
func (f *fakeUsers) Get(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, UserName: "someone"}, nil
}
func (f *fakeUsers) GetWithExpenses(ctx context.Context, id string) (*services.UserWithExpenses, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.UserWithExpenses{User: &models.User{ID: id}}, nil
}
func (f *fakeUsers) Create(ctx context.Context, in services.UserInput) (*models.User, error) {
	f.gotInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "new-id", UserName: in.UserName, Email: in.Email}, nil
}
func (f *fakeUsers) Update(ctx context.Context, id string, in services.UserInput) (*models.User, error) {
	f.gotInput = in
	return &models.User{ID: id}, f.err
}
func (f *fakeUsers) Delete(ctx context.Context, id string) error { return f.err }
func (f *fakeUsers) SetBlockStatus(ctx context.Context, id string, blocked bool) (*models.User, error) {
	f.blocked = &blocked
	return &models.User{ID: id, IsBlocked: blocked}, f.err
}

// ---- helpers ----

type harness struct {
	auth       *fakeAuth
	categories *fakeCategories
	expenses   *fakeExpenses
	users      *fakeUsers
	router     *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		auth:       &fakeAuth{},
		categories: &fakeCategories{},
		expenses:   &fakeExpenses{},
		users:      &fakeUsers{},
	}
	h.router = NewRouter(Deps{
		Auth:         h.auth,
		Categories:   h.categories,
		Expenses:     h.expenses,
		Users:        h.users,
		Tokens:       fakeTokens{},
		Logger:       logging.Nop(),
		CookieSecure: true,
	})
	return h
}

// do sends a request; bearer may be empty, body is sent as JSON when non-empty.
func (h *harness) do(method, path, bearer, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == common.RefreshTokenCookieName {
			return c
		}
	}
	return nil
}
