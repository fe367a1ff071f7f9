package auth

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/mybudget/internal/common"
	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

const (
	// RefreshTokenBytes is the entropy of a refresh token value.
	RefreshTokenBytes = 64

	DefaultRefreshTokenValidity = 7 * 24 * time.Hour
	DefaultMaxActiveTokens      = 5
)

// RefreshTokenManager mutates the refresh tokens of a loaded user aggregate.
// It never persists anything; callers save the aggregate afterwards.
type RefreshTokenManager struct {
	validity time.Duration
	now      func() time.Time
	random   func(size int) (string, error)
}

func NewRefreshTokenManager(validity time.Duration) *RefreshTokenManager {
	if validity <= 0 {
		validity = DefaultRefreshTokenValidity
	}
	return &RefreshTokenManager{
		validity: validity,
		now:      time.Now,
		random:   common.MakeRandBase64String,
	}
}

// Now is the manager's clock, shared with callers that need to agree on
// activity checks.
func (m *RefreshTokenManager) Now() time.Time { return m.now() }

// Generate builds a new token created by ip. It is not attached to any user.
func (m *RefreshTokenManager) Generate(ip string) (*models.RefreshToken, error) {
	value, err := m.random(RefreshTokenBytes)
	if err != nil {
		return nil, err
	}

	now := m.now()
	return &models.RefreshToken{
		Token:       value,
		Created:     now,
		CreatedByIP: ip,
		Expires:     now.Add(m.validity),
	}, nil
}

// Rotate revokes current and appends its replacement to user.
func (m *RefreshTokenManager) Rotate(user *models.User, current *models.RefreshToken, ip string) (*models.RefreshToken, error) {
	now := m.now()
	if !current.IsActive(now) {
		return nil, common.ErrTokenExpired
	}

	next, err := m.Generate(ip)
	if err != nil {
		return nil, err
	}
	next.UserID = user.ID

	current.MarkRevoked(now, ip, next.Token)
	user.RefreshTokens = append(user.RefreshTokens, next)

	return next, nil
}

// Revoke revokes token without a replacement.
func (m *RefreshTokenManager) Revoke(user *models.User, token *models.RefreshToken, ip string) error {
	now := m.now()
	if !token.IsActive(now) {
		return common.ErrTokenExpired
	}
	token.MarkRevoked(now, ip, "")
	return nil
}

// RevokeAll revokes every active token of user and returns how many were
// revoked.
func (m *RefreshTokenManager) RevokeAll(user *models.User, reason string) int {
	now := m.now()
	n := 0
	for _, t := range user.ActiveRefreshTokens(now) {
		t.MarkRevoked(now, reason, "")
		n++
	}
	return n
}

// PruneExcess keeps the maxActive most recently created active tokens and
// revokes the rest as auto-cleanup. Ties on Created keep collection order.
func (m *RefreshTokenManager) PruneExcess(user *models.User, maxActive int) int {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveTokens
	}

	now := m.now()
	active := user.ActiveRefreshTokens(now)
	if len(active) <= maxActive {
		return 0
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Created.After(active[j].Created)
	})

	for _, t := range active[maxActive:] {
		t.MarkRevoked(now, common.RevokedByAutoCleanup, "")
	}
	return len(active) - maxActive
}

// FindByValue returns the user's token with exactly this value, or nil.
func (m *RefreshTokenManager) FindByValue(user *models.User, value string) *models.RefreshToken {
	for _, t := range user.RefreshTokens {
		if t.Token == value {
			return t
		}
	}
	return nil
}
