// Package services contains server-side business logic: authentication,
// user administration, categories and expenses.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/auth"
	"github.com/dmitrijs2005/mybudget/internal/server/email"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

// CredentialStore loads and saves user aggregates. identity.Store is the
// production implementation.
type CredentialStore interface {
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)

	Create(ctx context.Context, user *models.User, password string) error
	Update(ctx context.Context, user *models.User) error
	CheckPassword(user *models.User, password string) bool
	SetPassword(user *models.User, password string) error

	AddToRole(ctx context.Context, user *models.User, role string) error
	GetRoles(ctx context.Context, user *models.User) ([]string, error)

	GenerateEmailConfirmationToken(ctx context.Context, user *models.User) (string, error)
	ConfirmEmail(ctx context.Context, user *models.User, token string) (bool, error)
	GeneratePasswordResetToken(ctx context.Context, user *models.User) (string, error)
	ResetPassword(ctx context.Context, user *models.User, token, newPassword string) (bool, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(user *models.User, roles []string) (string, int64, error)
}

// AuthOptions carries the policy knobs of AuthService.
type AuthOptions struct {
	RequireConfirmedEmail  bool
	MaxActiveRefreshTokens int
	APIBaseURL             string
}

// LoginResult is returned by a successful login. RefreshToken is meant for
// the refresh cookie only.
type LoginResult struct {
	UserName            string
	Email               string
	AccessToken         string
	ExpiresIn           int64
	RefreshToken        string
	RefreshTokenExpires time.Time
}

// RefreshResult is returned by a successful refresh-token rotation.
type RefreshResult struct {
	AccessToken         string
	ExpiresIn           int64
	RefreshToken        string
	RefreshTokenExpires time.Time
}

const (
	confirmEmailSubject  = "Confirm your email"
	resetPasswordSubject = "Reset Your Password Code"
)

// AuthService implements login, registration, refresh-token rotation,
// logout, email confirmation and password reset.
type AuthService struct {
	store  CredentialStore
	issuer TokenIssuer
	tokens *auth.RefreshTokenManager
	mailer email.Sender
	opts   AuthOptions
	log    logging.Logger
}

func NewAuthService(store CredentialStore, issuer TokenIssuer, tokens *auth.RefreshTokenManager,
	mailer email.Sender, opts AuthOptions, log logging.Logger) *AuthService {
	if opts.MaxActiveRefreshTokens <= 0 {
		opts.MaxActiveRefreshTokens = auth.DefaultMaxActiveTokens
	}
	return &AuthService{
		store:  store,
		issuer: issuer,
		tokens: tokens,
		mailer: mailer,
		opts:   opts,
		log:    log.With("module", "auth"),
	}
}

// Login checks the credentials and starts a new session for ip. Unknown users
// and wrong passwords produce the same common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, userName, password, ip string) (*LoginResult, error) {
	user, err := s.store.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if !s.store.CheckPassword(user, password) {
		return nil, common.ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, fmt.Errorf("%w: user is blocked", common.ErrorUnauthorized)
	}
	if s.opts.RequireConfirmedEmail && !user.EmailConfirmed {
		return nil, fmt.Errorf("%w: email is not confirmed", common.ErrorUnauthorized)
	}

	access, expiresIn, err := s.issueAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Generate(ip)
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}
	refresh.UserID = user.ID
	user.RefreshTokens = append(user.RefreshTokens, refresh)
	s.tokens.PruneExcess(user, s.opts.MaxActiveRefreshTokens)

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID, "ip", ip)
	return &LoginResult{
		UserName:            user.UserName,
		Email:               user.Email,
		AccessToken:         access,
		ExpiresIn:           expiresIn,
		RefreshToken:        refresh.Token,
		RefreshTokenExpires: refresh.Expires,
	}, nil
}

// Register creates an account with the User role. It returns false when the
// user name or email is already taken.
func (s *AuthService) Register(ctx context.Context, userName, emailAddr, password string) (bool, error) {
	taken, err := s.taken(ctx, userName, emailAddr)
	if err != nil || taken {
		return false, err
	}

	user := &models.User{
		UserName:       userName,
		Email:          emailAddr,
		EmailConfirmed: !s.opts.RequireConfirmedEmail,
		Roles:          []string{common.RoleUser},
	}
	if err := s.store.Create(ctx, user, password); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return false, nil
		}
		return false, fmt.Errorf("creating user: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	if user.EmailConfirmed {
		return true, nil
	}

	if err := s.sendConfirmation(ctx, user); err != nil {
		s.log.Error(ctx, "confirmation email not sent", "user_id", user.ID, "error", err)
	}
	return true, nil
}

func (s *AuthService) taken(ctx context.Context, userName, emailAddr string) (bool, error) {
	if _, err := s.store.FindByUserName(ctx, userName); err == nil {
		return true, nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return false, fmt.Errorf("finding user: %w", err)
	}
	if _, err := s.store.FindByEmail(ctx, emailAddr); err == nil {
		return true, nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return false, fmt.Errorf("finding user: %w", err)
	}
	return false, nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *models.User) error {
	token, err := s.store.GenerateEmailConfirmationToken(ctx, user)
	if err != nil {
		return fmt.Errorf("generating confirmation token: %w", err)
	}
	link := ConfirmationLink(s.opts.APIBaseURL, user.ID, token)
	body := fmt.Sprintf("Please confirm your account by following this link:\n\n%s", link)
	return s.mailer.Send(ctx, user.Email, confirmEmailSubject, body)
}

// ConfirmationLink builds the email confirmation URL for userID and an
// unescaped token.
func ConfirmationLink(baseURL, userID, token string) string {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("token", token)
	return baseURL + "/api/auth/confirm-email?" + q.Encode()
}

// RefreshToken rotates the refresh token presented in cookie and issues a
// new access token.
func (s *AuthService) RefreshToken(ctx context.Context, cookie, ip string) (*RefreshResult, error) {
	user, current, err := s.sessionToken(ctx, cookie)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, fmt.Errorf("%w: user is blocked", common.ErrorUnauthorized)
	}
	if current == nil {
		return nil, common.ErrInvalidToken
	}
	if !current.IsActive(s.tokens.Now()) {
		return nil, common.ErrTokenExpired
	}

	access, expiresIn, err := s.issueAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}

	next, err := s.tokens.Rotate(user, current, ip)
	if err != nil {
		return nil, err
	}
	s.tokens.PruneExcess(user, s.opts.MaxActiveRefreshTokens)

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:         access,
		ExpiresIn:           expiresIn,
		RefreshToken:        next.Token,
		RefreshTokenExpires: next.Expires,
	}, nil
}

// Logout revokes the refresh token presented in cookie without a
// replacement.
func (s *AuthService) Logout(ctx context.Context, cookie, ip string) error {
	user, current, err := s.sessionToken(ctx, cookie)
	if err != nil {
		return err
	}
	if current == nil {
		return common.ErrTokenExpired
	}
	if err := s.tokens.Revoke(user, current, ip); err != nil {
		return err
	}
	if err := s.save(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "user logged out", "user_id", user.ID, "ip", ip)
	return nil
}

// sessionToken resolves a refresh cookie to its owner and the matching
// token, which may be nil.
func (s *AuthService) sessionToken(ctx context.Context, cookie string) (*models.User, *models.RefreshToken, error) {
	if cookie == "" {
		return nil, nil, common.ErrTokenMissing
	}
	user, err := s.store.FindByRefreshToken(ctx, cookie)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("finding token owner: %w", err)
	}
	return user, s.tokens.FindByValue(user, cookie), nil
}

// ConfirmEmail consumes an email confirmation token. A missing or blocked
// user is common.ErrorUnauthorized; a bad token is false.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID, token string) (bool, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, fmt.Errorf("%w: user not found", common.ErrorUnauthorized)
		}
		return false, fmt.Errorf("finding user: %w", err)
	}
	if user.IsBlocked {
		return false, fmt.Errorf("%w: user is blocked", common.ErrorUnauthorized)
	}

	decoded, err := url.PathUnescape(token)
	if err != nil {
		return false, nil
	}
	ok, err := s.store.ConfirmEmail(ctx, user, decoded)
	if err != nil {
		return false, fmt.Errorf("confirming email: %w", err)
	}
	return ok, nil
}

// ForgotPassword emails a reset code. Unknown and blocked accounts get
// false and no email.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) (bool, error) {
	user, ok, err := s.resettable(ctx, emailAddr)
	if err != nil || !ok {
		return false, err
	}

	token, err := s.store.GeneratePasswordResetToken(ctx, user)
	if err != nil {
		return false, fmt.Errorf("generating reset token: %w", err)
	}
	body := fmt.Sprintf("Your password reset code is:\n\n%s\n\nUse this code along with your email to reset your password.",
		url.QueryEscape(token))
	if err := s.mailer.Send(ctx, user.Email, resetPasswordSubject, body); err != nil {
		return false, fmt.Errorf("sending reset email: %w", err)
	}
	return true, nil
}

// ResetPassword sets a new password if token is a valid reset code for the
// account. Unknown and blocked accounts get false.
func (s *AuthService) ResetPassword(ctx context.Context, emailAddr, token, newPassword string) (bool, error) {
	user, ok, err := s.resettable(ctx, emailAddr)
	if err != nil || !ok {
		return false, err
	}

	decoded, err := url.PathUnescape(token)
	if err != nil {
		return false, nil
	}
	ok, err = s.store.ResetPassword(ctx, user, decoded, newPassword)
	if err != nil {
		return false, fmt.Errorf("resetting password: %w", err)
	}
	if ok {
		s.log.Info(ctx, "password reset", "user_id", user.ID)
	}
	return ok, nil
}

func (s *AuthService) resettable(ctx context.Context, emailAddr string) (*models.User, bool, error) {
	user, err := s.store.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("finding user: %w", err)
	}
	if user.IsBlocked {
		return nil, false, nil
	}
	return user, true, nil
}

func (s *AuthService) issueAccessToken(ctx context.Context, user *models.User) (string, int64, error) {
	roles, err := s.store.GetRoles(ctx, user)
	if err != nil {
		return "", 0, fmt.Errorf("loading roles: %w", err)
	}
	token, expiresIn, err := s.issuer.Issue(user, roles)
	if err != nil {
		return "", 0, fmt.Errorf("issuing access token: %w", err)
	}
	return token, expiresIn, nil
}

// save persists the aggregate unless ctx is already done.
func (s *AuthService) save(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, user); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}
