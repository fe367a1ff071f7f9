// Package usertokens stores single-use tokens sent by email (confirmation
// and password reset). Only token hashes are persisted.
package usertokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.UserToken) error

	// FindUsable returns the unused, unexpired token matching hash, or
	// common.ErrorNotFound.
	FindUsable(ctx context.Context, userID string, purpose models.TokenPurpose, hash []byte, now time.Time) (*models.UserToken, error)

	// MarkUsed consumes the token. A token consumed concurrently yields
	// common.ErrorNotFound.
	MarkUsed(ctx context.Context, id int64, at time.Time) error

	// InvalidateAll consumes every outstanding token of userID for purpose.
	InvalidateAll(ctx context.Context, userID string, purpose models.TokenPurpose, at time.Time) error
}
