package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/auth"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/query"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/users"
)

// UserInput is an admin create or update request. On update, empty Email and
// Password leave the stored values unchanged.
type UserInput struct {
	UserName string
	Email    string
	Password string
}

// UserWithExpenses is a user together with all of its expenses.
type UserWithExpenses struct {
	User     *models.User
	Expenses []*models.Expense
}

// UserService is the admin side of user management.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       CredentialStore
	tokens      *auth.RefreshTokenManager
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, store CredentialStore,
	tokens *auth.RefreshTokenManager, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		store:       store,
		tokens:      tokens,
		log:         log.With("module", "users"),
	}
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return list, nil
}

func (s *UserService) ListPaged(ctx context.Context, filter users.Filter, params query.Parameters) (*query.PagedList[*models.User], error) {
	page, err := s.repomanager.Users(s.db).ListPaged(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return page, nil
}

// Get returns the user aggregate with its roles.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

func (s *UserService) GetWithExpenses(ctx context.Context, id string) (*UserWithExpenses, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := s.repomanager.Expenses(s.db).ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return &UserWithExpenses{User: user, Expenses: list}, nil
}

// Create adds a confirmed account with the User role. A taken email is
// common.ErrorConflict.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	return s.create(ctx, in, common.RoleUser)
}

// CreateAdmin adds a confirmed account holding both Admin and User roles.
func (s *UserService) CreateAdmin(ctx context.Context, in UserInput) (*models.User, error) {
	return s.create(ctx, in, common.RoleAdmin, common.RoleUser)
}

func (s *UserService) create(ctx context.Context, in UserInput, roles ...string) (*models.User, error) {
	if _, err := s.store.FindByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: user with email %q already exists", common.ErrorConflict, in.Email)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	user := &models.User{
		UserName:       in.UserName,
		Email:          in.Email,
		EmailConfirmed: true,
		Roles:          roles,
	}
	if err := s.store.Create(ctx, user, in.Password); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.log.Info(ctx, "user created", "user_id", user.ID, "roles", roles)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.UserName = in.UserName
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Password != "" {
		if err := s.store.SetPassword(user, in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return notFound(err, "user", id)
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// SetBlockStatus blocks or unblocks a user. Blocking also revokes every
// active refresh token of the user.
func (s *UserService) SetBlockStatus(ctx context.Context, id string, blocked bool) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsBlocked = blocked
	revoked := 0
	if blocked {
		revoked = s.tokens.RevokeAll(user, common.RevokedByAdminBlock)
	}

	if err := s.store.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	s.log.Info(ctx, "user block status changed", "user_id", id, "blocked", blocked, "revoked_tokens", revoked)
	return user, nil
}

// notFound adds the missing entity to a common.ErrorNotFound and wraps any
// other error.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %s with id %v", common.ErrorNotFound, entity, id)
	}
	return fmt.Errorf("loading %s: %w", entity, err)
}
