// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the account aggregate: the user row, its role names and its
// refresh tokens are loaded and saved together.
type User struct {
	ID             string
	UserName       string
	Email          string
	PasswordHash   string
	IsBlocked      bool
	EmailConfirmed bool
	CreatedAt      time.Time

	// Version is bumped on every save and checked on update.
	Version int64

	Roles         []string
	RefreshTokens []*RefreshToken
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ActiveRefreshTokens returns the tokens active at now, in collection order.
func (u *User) ActiveRefreshTokens(now time.Time) []*RefreshToken {
	var out []*RefreshToken
	for _, t := range u.RefreshTokens {
		if t.IsActive(now) {
			out = append(out, t)
		}
	}
	return out
}
