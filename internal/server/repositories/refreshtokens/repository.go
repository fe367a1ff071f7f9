// Package refreshtokens declares the server-side repository contract for
// refresh token rows.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/mybudget/internal/server/models"
)

// Repository stores refresh tokens. Rows are inserted once and afterwards
// only their revocation fields change; they are never deleted here.
type Repository interface {
	// ListByUser returns every token of userID in creation order.
	ListByUser(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// FindOwner returns the id of the user owning token, or
	// common.ErrorNotFound.
	FindOwner(ctx context.Context, token string) (string, error)

	// Insert stores a new token and sets its ID.
	Insert(ctx context.Context, token *models.RefreshToken) error

	// UpdateRevocation writes the revocation fields of an existing token.
	UpdateRevocation(ctx context.Context, token *models.RefreshToken) error
}
