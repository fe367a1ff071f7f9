package models

import "time"

// RefreshToken is a long-lived opaque credential owned by a single user.
// Records are never deleted by the auth flow; they are only revoked.
type RefreshToken struct {
	ID              int64
	UserID          string
	Token           string
	Created         time.Time
	CreatedByIP     string
	Expires         time.Time
	Revoked         *time.Time
	RevokedByIP     *string
	ReplacedByToken *string

	dirty bool
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.Expires)
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.Revoked == nil && !t.IsExpired(now)
}

// MarkRevoked records the revocation. It is a no-op on a token that is
// already revoked, so the first revocation always wins.
func (t *RefreshToken) MarkRevoked(at time.Time, byIP string, replacedBy string) {
	if t.Revoked != nil {
		return
	}
	t.Revoked = &at
	t.RevokedByIP = &byIP
	if replacedBy != "" {
		t.ReplacedByToken = &replacedBy
	}
	t.dirty = true
}

// Dirty reports whether the token was revoked since it was loaded.
func (t *RefreshToken) Dirty() bool { return t.dirty }

// MarkClean is called by the persistence layer after a successful save.
func (t *RefreshToken) MarkClean() { t.dirty = false }
