package identity

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

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

// In-memory repositories sharing one fakeDB. Transactions are not
// simulated; sqlmock checks begin/commit/rollback separately.
type fakeDB struct {
	users      map[string]models.User
	roles      map[string][]string
	tokens     []*models.RefreshToken
	userTokens []*models.UserToken

	calls     int
	updateErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: map[string]models.User{}, roles: map[string][]string{}}
}

type fakeUsers struct{ db *fakeDB }

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.db.calls++
	for _, existing := range f.db.users {
		if strings.EqualFold(existing.UserName, u.UserName) || strings.EqualFold(existing.Email, u.Email) {
			return common.ErrorConflict
		}
	}
	if u.ID == "" {
		u.ID = "id-" + u.UserName
	}
	u.Version = 1
	row := *u
	row.Roles, row.RefreshTokens = nil, nil
	f.db.users[u.ID] = row
	return nil
}

func (f *fakeUsers) get(match func(models.User) bool) (*models.User, error) {
	f.db.calls++
	for _, u := range f.db.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.get(func(u models.User) bool { return u.ID == id })
}

func (f *fakeUsers) GetByUserName(_ context.Context, name string) (*models.User, error) {
	return f.get(func(u models.User) bool { return strings.EqualFold(u.UserName, name) })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.get(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	f.db.calls++
	if f.db.updateErr != nil {
		return f.db.updateErr
	}
	row, ok := f.db.users[u.ID]
	if !ok || row.Version != u.Version {
		return common.ErrVersionConflict
	}
	u.Version++
	row = *u
	row.Roles, row.RefreshTokens = nil, nil
	f.db.users[u.ID] = row
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	delete(f.db.users, id)
	return nil
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) { return nil, nil }

func (f *fakeUsers) ListPaged(context.Context, users.Filter, query.Parameters) (*query.PagedList[*models.User], error) {
	return nil, nil
}

type fakeRoles struct{ db *fakeDB }

func (f *fakeRoles) ListForUser(_ context.Context, userID string) ([]string, error) {
	f.db.calls++
	out := append([]string{}, f.db.roles[userID]...)
	sort.Strings(out)
	return out, nil
}

func (f *fakeRoles) AddUserToRole(_ context.Context, userID, role string) error {
	f.db.calls++
	if role != common.RoleAdmin && role != common.RoleUser {
		return common.ErrorNotFound
	}
	f.db.roles[userID] = append(f.db.roles[userID], role)
	return nil
}

type fakeTokens struct{ db *fakeDB }

func (f *fakeTokens) ListByUser(_ context.Context, userID string) ([]*models.RefreshToken, error) {
	f.db.calls++
	var out []*models.RefreshToken
	for _, t := range f.db.tokens {
		if t.UserID == userID {
			cp := *t
			cp.MarkClean()
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTokens) FindOwner(_ context.Context, token string) (string, error) {
	f.db.calls++
	for _, t := range f.db.tokens {
		if t.Token == token {
			return t.UserID, nil
		}
	}
	return "", common.ErrorNotFound
}

func (f *fakeTokens) Insert(_ context.Context, t *models.RefreshToken) error {
	f.db.calls++
	t.ID = int64(len(f.db.tokens) + 1)
	cp := *t
	f.db.tokens = append(f.db.tokens, &cp)
	return nil
}

func (f *fakeTokens) UpdateRevocation(_ context.Context, t *models.RefreshToken) error {
	f.db.calls++
	for _, stored := range f.db.tokens {
		if stored.ID == t.ID {
			stored.Revoked, stored.RevokedByIP, stored.ReplacedByToken = t.Revoked, t.RevokedByIP, t.ReplacedByToken
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeUserTokens struct{ db *fakeDB }

func (f *fakeUserTokens) Create(_ context.Context, t *models.UserToken) error {
	t.ID = int64(len(f.db.userTokens) + 1)
	cp := *t
	f.db.userTokens = append(f.db.userTokens, &cp)
	return nil
}

func (f *fakeUserTokens) FindUsable(_ context.Context, userID string, purpose models.TokenPurpose, hash []byte, now time.Time) (*models.UserToken, error) {
	for _, t := range f.db.userTokens {
		if t.UserID == userID && t.Purpose == purpose && bytes.Equal(t.TokenHash, hash) && t.Usable(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUserTokens) MarkUsed(_ context.Context, id int64, at time.Time) error {
	for _, t := range f.db.userTokens {
		if t.ID == id && t.UsedAt == nil {
			t.UsedAt = &at
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeUserTokens) InvalidateAll(_ context.Context, userID string, purpose models.TokenPurpose, at time.Time) error {
	for _, t := range f.db.userTokens {
		if t.UserID == userID && t.Purpose == purpose && t.UsedAt == nil {
			t.UsedAt = &at
		}
	}
	return nil
}

type fakeRepoManager struct{ db *fakeDB }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return &fakeUsers{m.db} }
func (m *fakeRepoManager) Roles(dbx.DBTX) roles.Repository                 { return &fakeRoles{m.db} }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return &fakeTokens{m.db} }
func (m *fakeRepoManager) UserTokens(dbx.DBTX) usertokens.Repository       { return &fakeUserTokens{m.db} }
func (m *fakeRepoManager) Categories(dbx.DBTX) categories.Repository       { return nil }
func (m *fakeRepoManager) Expenses(dbx.DBTX) expenses.Repository           { return nil }
