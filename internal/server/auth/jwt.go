// Package auth issues and validates access tokens and manages the refresh
// token lifecycle of a user aggregate.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/server/config"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

// DefaultTokenValidityMins applies when the configured validity is not positive.
const DefaultTokenValidityMins = 30

// Claims is the fixed claim set of an access token. Subject holds the user name.
type Claims struct {
	jwt.RegisteredClaims
	Email  string   `json:"email"`
	UserID string   `json:"uid"`
	Roles  []string `json:"roles"`
}

func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Issuer signs HS512 access tokens.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(cfg config.JWT) *Issuer {
	mins := cfg.TokenValidityMins
	if mins <= 0 {
		mins = DefaultTokenValidityMins
	}
	return &Issuer{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		validity: time.Duration(mins) * time.Minute,
		now:      time.Now,
	}
}

// Validity is the lifetime of tokens produced by Issue.
func (i *Issuer) Validity() time.Duration { return i.validity }

// Issue returns a signed token for user carrying roles, and its lifetime in
// seconds.
func (i *Issuer) Issue(user *models.User, roles []string) (string, int64, error) {
	if len(i.key) == 0 {
		return "", 0, fmt.Errorf("%w: jwt signing key is not set", common.ErrConfiguration)
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserName,
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		Email:  user.Email,
		UserID: user.ID,
		Roles:  append([]string{}, roles...),
	}
	if i.audience != "" {
		claims.Audience = jwt.ClaimStrings{i.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.key)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(i.validity / time.Second), nil
}

// Parse validates signature, algorithm, issuer, audience and expiry and
// returns the claims. Expired tokens yield common.ErrTokenExpired, anything
// else common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if len(i.key) == 0 {
		return nil, fmt.Errorf("%w: jwt signing key is not set", common.ErrConfiguration)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		opts = append(opts, jwt.WithAudience(i.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
