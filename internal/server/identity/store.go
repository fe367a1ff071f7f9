// Package identity is the credential store: it loads and saves user
// aggregates (user row, roles, refresh tokens), hashes passwords and hands
// out single-use email tokens.
package identity

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/dbx"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/users"
)

const (
	emailTokenBytes = 32

	EmailConfirmationTokenTTL = 24 * time.Hour
	PasswordResetTokenTTL     = time.Hour
)

type Store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hashCost    int
	now         func() time.Time
	random      func(size int) (string, error)
}

func NewStore(db *sql.DB, m repomanager.RepositoryManager) *Store {
	return &Store{
		db:          db,
		repomanager: m,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
		random:      common.MakeRandBase64String,
	}
}

// load completes a user row with its roles and refresh tokens.
func (s *Store) load(ctx context.Context, db dbx.DBTX, user *models.User) (*models.User, error) {
	roles, err := s.repomanager.Roles(db).ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.repomanager.RefreshTokens(db).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	user.RefreshTokens = tokens
	return user, nil
}

func (s *Store) find(ctx context.Context, get func(users.Repository) (*models.User, error)) (*models.User, error) {
	user, err := get(s.repomanager.Users(s.db))
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.db, user)
}

// FindByUserName returns the aggregate or common.ErrorNotFound.
func (s *Store) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.find(ctx, func(r users.Repository) (*models.User, error) { return r.GetByUserName(ctx, userName) })
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(ctx, func(r users.Repository) (*models.User, error) { return r.GetByEmail(ctx, email) })
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.find(ctx, func(r users.Repository) (*models.User, error) { return r.GetByID(ctx, id) })
}

// FindByRefreshToken returns the owner of a refresh token value, whatever
// the state of the token.
func (s *Store) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.repomanager.RefreshTokens(s.db).FindOwner(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, userID)
}

// Create hashes password and inserts user together with its roles.
// Duplicate user names or emails yield common.ErrorConflict.
func (s *Store) Create(ctx context.Context, user *models.User, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		roles := s.repomanager.Roles(tx)
		for _, role := range user.Roles {
			if err := roles.AddUserToRole(ctx, user.ID, role); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update saves the aggregate in one transaction: the user row under a
// version check, new refresh tokens and changed revocations.
func (s *Store) Update(ctx context.Context, user *models.User) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.save(ctx, tx, user)
	})
	if err != nil {
		return err
	}
	for _, t := range user.RefreshTokens {
		t.MarkClean()
	}
	return nil
}

func (s *Store) save(ctx context.Context, tx dbx.DBTX, user *models.User) error {
	version := user.Version
	if err := s.repomanager.Users(tx).Update(ctx, user); err != nil {
		return err
	}

	tokens := s.repomanager.RefreshTokens(tx)
	for _, t := range user.RefreshTokens {
		var err error
		switch {
		case t.ID == 0:
			t.UserID = user.ID
			err = tokens.Insert(ctx, t)
		case t.Dirty():
			err = tokens.UpdateRevocation(ctx, t)
		}
		if err != nil {
			user.Version = version
			return fmt.Errorf("saving refresh token: %w", err)
		}
	}
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (s *Store) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the password hash in memory; callers save with Update.
func (s *Store) SetPassword(user *models.User, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

func (s *Store) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", common.ErrorValidation)
		}
		return "", err
	}
	return string(hash), nil
}

func (s *Store) AddToRole(ctx context.Context, user *models.User, role string) error {
	if user.HasRole(role) {
		return nil
	}
	if err := s.repomanager.Roles(s.db).AddUserToRole(ctx, user.ID, role); err != nil {
		return err
	}
	user.Roles = append(user.Roles, role)
	return nil
}

func (s *Store) GetRoles(ctx context.Context, user *models.User) ([]string, error) {
	return s.repomanager.Roles(s.db).ListForUser(ctx, user.ID)
}

func (s *Store) GenerateEmailConfirmationToken(ctx context.Context, user *models.User) (string, error) {
	return s.generateToken(ctx, user, models.PurposeEmailConfirmation, EmailConfirmationTokenTTL)
}

func (s *Store) GeneratePasswordResetToken(ctx context.Context, user *models.User) (string, error) {
	return s.generateToken(ctx, user, models.PurposePasswordReset, PasswordResetTokenTTL)
}

// generateToken issues a new token for purpose; older unused tokens of the
// same purpose stop working.
func (s *Store) generateToken(ctx context.Context, user *models.User, purpose models.TokenPurpose, ttl time.Duration) (string, error) {
	value, err := s.random(emailTokenBytes)
	if err != nil {
		return "", err
	}

	now := s.now()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.UserTokens(tx)
		if err := repo.InvalidateAll(ctx, user.ID, purpose, now); err != nil {
			return err
		}
		return repo.Create(ctx, &models.UserToken{
			UserID:    user.ID,
			Purpose:   purpose,
			TokenHash: hashToken(value),
			Expires:   now.Add(ttl),
		})
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// ConfirmEmail consumes a confirmation token and marks the email confirmed.
// An unknown, used or expired token yields false without an error.
func (s *Store) ConfirmEmail(ctx context.Context, user *models.User, token string) (bool, error) {
	return s.consumeToken(ctx, user, models.PurposeEmailConfirmation, token, func() error {
		user.EmailConfirmed = true
		return nil
	})
}

// ResetPassword consumes a reset token and stores the new password.
func (s *Store) ResetPassword(ctx context.Context, user *models.User, token, newPassword string) (bool, error) {
	return s.consumeToken(ctx, user, models.PurposePasswordReset, token, func() error {
		return s.SetPassword(user, newPassword)
	})
}

func (s *Store) consumeToken(ctx context.Context, user *models.User, purpose models.TokenPurpose, token string, apply func() error) (bool, error) {
	now := s.now()
	snapshot := *user

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.UserTokens(tx)
		found, err := repo.FindUsable(ctx, user.ID, purpose, hashToken(token), now)
		if err != nil {
			return unusable(err)
		}
		if err := repo.MarkUsed(ctx, found.ID, now); err != nil {
			return unusable(err)
		}
		if err := apply(); err != nil {
			return err
		}
		return s.save(ctx, tx, user)
	})

	switch {
	case err == nil:
		for _, t := range user.RefreshTokens {
			t.MarkClean()
		}
		return true, nil
	case errors.Is(err, errTokenUnusable):
		*user = snapshot
		return false, nil
	default:
		*user = snapshot
		return false, err
	}
}

var errTokenUnusable = errors.New("token is unknown, used or expired")

func unusable(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return errTokenUnusable
	}
	return err
}

func hashToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
