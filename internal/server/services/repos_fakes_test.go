package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/dbx"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/categories"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/roles"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/users"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/usertokens"
)

// fakeUsersRepo serves List/Delete from the fakeStore contents.
type fakeUsersRepo struct {
	store   *fakeStore
	lastFlt users.Filter
}

func (r *fakeUsersRepo) Create(context.Context, *models.User) error { return nil }
func (r *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.store.FindByID(ctx, id)
}
func (r *fakeUsersRepo) GetByUserName(ctx context.Context, name string) (*models.User, error) {
	return r.store.FindByUserName(ctx, name)
}
func (r *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.store.FindByEmail(ctx, email)
}
func (r *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	return r.store.Update(ctx, u)
}

func (r *fakeUsersRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.store.users, id)
	return nil
}

func (r *fakeUsersRepo) List(context.Context) ([]*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.User
	for _, u := range r.store.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

func (r *fakeUsersRepo) ListPaged(ctx context.Context, f users.Filter, p query.Parameters) (*query.PagedList[*models.User], error) {
	r.lastFlt = f
	all, _ := r.List(ctx)
	return query.NewPagedList(all, len(all), p), nil
}

type fakeCategoriesRepo struct {
	items     map[int64]*models.Category
	next      int64
	deleteErr error
}

func newFakeCategoriesRepo(names ...string) *fakeCategoriesRepo {
	r := &fakeCategoriesRepo{items: map[int64]*models.Category{}}
	for _, n := range names {
		_ = r.Create(context.Background(), &models.Category{Name: n})
	}
	return r
}

func (r *fakeCategoriesRepo) List(context.Context) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range r.items {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCategoriesRepo) ListPaged(ctx context.Context, name string, p query.Parameters) (*query.PagedList[*models.Category], error) {
	all, _ := r.List(ctx)
	var out []*models.Category
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			out = append(out, c)
		}
	}
	return query.NewPagedList(out, len(out), p), nil
}

func (r *fakeCategoriesRepo) GetByID(_ context.Context, id int64) (*models.Category, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *fakeCategoriesRepo) GetByName(_ context.Context, name string) (*models.Category, error) {
	for _, c := range r.items {
		if strings.EqualFold(c.Name, name) {
			cc := *c
			return &cc, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeCategoriesRepo) Create(_ context.Context, c *models.Category) error {
	r.next++
	c.ID = r.next
	cc := *c
	r.items[c.ID] = &cc
	return nil
}

func (r *fakeCategoriesRepo) Update(_ context.Context, c *models.Category) error {
	if _, ok := r.items[c.ID]; !ok {
		return common.ErrorNotFound
	}
	cc := *c
	r.items[c.ID] = &cc
	return nil
}

func (r *fakeCategoriesRepo) Delete(_ context.Context, id int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeExpensesRepo struct {
	items      map[int64]*models.Expense
	next       int64
	lastFilter expenses.Filter
	lastOwner  string
	createErr  error
}

func newFakeExpensesRepo() *fakeExpensesRepo {
	return &fakeExpensesRepo{items: map[int64]*models.Expense{}}
}

func (r *fakeExpensesRepo) copyOf(e *models.Expense) *models.Expense {
	ec := *e
	ec.CategoryName = fmt.Sprintf("category-%d", e.CategoryID)
	return &ec
}

func (r *fakeExpensesRepo) GetByID(_ context.Context, id int64) (*models.Expense, error) {
	e, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.copyOf(e), nil
}

func (r *fakeExpensesRepo) filter(match func(*models.Expense) bool) []*models.Expense {
	var out []*models.Expense
	for id := int64(1); id <= r.next; id++ {
		if e, ok := r.items[id]; ok && match(e) {
			out = append(out, r.copyOf(e))
		}
	}
	return out
}

func (r *fakeExpensesRepo) ListByUser(_ context.Context, userID string) ([]*models.Expense, error) {
	return r.filter(func(e *models.Expense) bool { return e.UserID == userID }), nil
}

func (r *fakeExpensesRepo) ListByCategory(_ context.Context, categoryID int64, userID string) ([]*models.Expense, error) {
	r.lastOwner = userID
	return r.filter(func(e *models.Expense) bool {
		return e.CategoryID == categoryID && (userID == "" || e.UserID == userID)
	}), nil
}

func (r *fakeExpensesRepo) ListPaged(_ context.Context, f expenses.Filter, p query.Parameters) (*query.PagedList[*models.Expense], error) {
	r.lastFilter = f
	out := r.filter(func(e *models.Expense) bool { return f.UserID == "" || e.UserID == f.UserID })
	return query.NewPagedList(out, len(out), p), nil
}

func (r *fakeExpensesRepo) Create(_ context.Context, e *models.Expense) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.next++
	e.ID = r.next
	ec := *e
	r.items[e.ID] = &ec
	return nil
}

func (r *fakeExpensesRepo) Update(_ context.Context, e *models.Expense) error {
	if _, ok := r.items[e.ID]; !ok {
		return common.ErrorNotFound
	}
	ec := *e
	r.items[e.ID] = &ec
	return nil
}

func (r *fakeExpensesRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeExpensesRepo) SetReceiptKey(_ context.Context, id int64, key string) error {
	e, ok := r.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	e.ReceiptKey = &key
	return nil
}

type fakeRepoManager struct {
	users      *fakeUsersRepo
	categories *fakeCategoriesRepo
	expenses   *fakeExpensesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) Roles(dbx.DBTX) roles.Repository                 { return nil }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return nil }
func (m *fakeRepoManager) UserTokens(dbx.DBTX) usertokens.Repository       { return nil }
func (m *fakeRepoManager) Categories(dbx.DBTX) categories.Repository       { return m.categories }
func (m *fakeRepoManager) Expenses(dbx.DBTX) expenses.Repository           { return m.expenses }

type fakeReceipts struct {
	putErr error
}

func (f *fakeReceipts) NewKey(userID string, expenseID int64) string {
	return fmt.Sprintf("receipts/%s/%d", userID, expenseID)
}

func (f *fakeReceipts) PresignPut(_ context.Context, key string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	return "https://s3.test/put/" + key, nil
}

func (f *fakeReceipts) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.test/get/" + key, nil
}
