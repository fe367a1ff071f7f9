package models

import "time"

type TokenPurpose string

const (
	PurposeEmailConfirmation TokenPurpose = "email_confirmation"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// UserToken is a single-use token handed out by email. Only the SHA-256 of
// the token value is stored.
type UserToken struct {
	ID        int64
	UserID    string
	Purpose   TokenPurpose
	TokenHash []byte
	Expires   time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (t *UserToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.Expires)
}
