package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

// fakeStore keeps user aggregates in memory. Lookups return deep copies so
// that services only see their changes after Update, like with the database.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
	confirm   map[string]string
	reset     map[string]string
	nextID    int

	updates   int
	createErr error
	updateErr error
	rolesErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		confirm:   map[string]string{},
		reset:     map[string]string{},
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	c.RefreshTokens = nil
	for _, t := range u.RefreshTokens {
		tc := *t
		c.RefreshTokens = append(c.RefreshTokens, &tc)
	}
	return &c
}

// add stores a user directly and returns its id.
func (f *fakeStore) add(u *models.User, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	if u.Version == 0 {
		u.Version = 1
	}
	f.users[u.ID] = cloneUser(u)
	f.passwords[u.ID] = password
	return u.ID
}

// get returns the stored state of a user.
func (f *fakeStore) get(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return cloneUser(u)
	}
	return nil
}

func (f *fakeStore) findBy(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeStore) FindByUserName(_ context.Context, userName string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.UserName == userName })
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeStore) FindByRefreshToken(_ context.Context, token string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool {
		for _, t := range u.RefreshTokens {
			if t.Token == token {
				return true
			}
		}
		return false
	})
}

func (f *fakeStore) Create(_ context.Context, user *models.User, password string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(user, password)
	return nil
}

func (f *fakeStore) Update(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if stored.Version != user.Version {
		return common.ErrVersionConflict
	}
	user.Version++
	for i, t := range user.RefreshTokens {
		if t.ID == 0 {
			t.ID = int64(i + 1)
		}
		t.MarkClean()
	}
	f.users[user.ID] = cloneUser(user)
	f.updates++
	return nil
}

func (f *fakeStore) CheckPassword(user *models.User, password string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwords[user.ID] == password
}

func (f *fakeStore) SetPassword(user *models.User, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[user.ID] = password
	user.PasswordHash = "hash:" + password
	return nil
}

func (f *fakeStore) AddToRole(_ context.Context, user *models.User, role string) error {
	if user.HasRole(role) {
		return nil
	}
	user.Roles = append(user.Roles, role)
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.users[user.ID]; ok {
		stored.Roles = append(stored.Roles, role)
	}
	return nil
}

func (f *fakeStore) GetRoles(_ context.Context, user *models.User) ([]string, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return append([]string(nil), user.Roles...), nil
}

func (f *fakeStore) GenerateEmailConfirmationToken(_ context.Context, user *models.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "c+nf/" + user.ID + "=="
	f.confirm[user.ID] = token
	return token, nil
}

func (f *fakeStore) ConfirmEmail(_ context.Context, user *models.User, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirm[user.ID] == "" || f.confirm[user.ID] != token {
		return false, nil
	}
	delete(f.confirm, user.ID)
	f.users[user.ID].EmailConfirmed = true
	user.EmailConfirmed = true
	return true, nil
}

func (f *fakeStore) GeneratePasswordResetToken(_ context.Context, user *models.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "r+st/" + user.ID + "=="
	f.reset[user.ID] = token
	return token, nil
}

func (f *fakeStore) ResetPassword(_ context.Context, user *models.User, token, newPassword string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reset[user.ID] == "" || f.reset[user.ID] != token {
		return false, nil
	}
	delete(f.reset, user.ID)
	f.passwords[user.ID] = newPassword
	return true, nil
}

type fakeIssuer struct {
	issued int
	err    error
}

func (f *fakeIssuer) Issue(user *models.User, roles []string) (string, int64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	f.issued++
	return fmt.Sprintf("access-%s-%d", user.UserName, f.issued), 1800, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// seedToken appends a stored refresh token to user id.
func (f *fakeStore) seedToken(id string, t *models.RefreshToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[id]
	t.UserID = id
	t.ID = int64(len(u.RefreshTokens) + 100)
	u.RefreshTokens = append(u.RefreshTokens, t)
}

func activeToken(value string, created time.Time) *models.RefreshToken {
	return &models.RefreshToken{
		Token:       value,
		Created:     created,
		CreatedByIP: "10.0.0.1",
		Expires:     created.Add(24 * time.Hour),
	}
}
