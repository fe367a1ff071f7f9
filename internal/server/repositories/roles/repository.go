// Package roles stores role assignments of users.
package roles

import "context"

type Repository interface {
	// ListForUser returns the role names of userID sorted by name.
	ListForUser(ctx context.Context, userID string) ([]string, error)

	// AddUserToRole assigns role to userID. Assigning an already held role
	// is not an error; an unknown role yields common.ErrorNotFound.
	AddUserToRole(ctx context.Context, userID, role string) error
}
