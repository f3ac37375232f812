package identity

import (
	"context"

	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

// ErrNotFound keeps directory 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")

// Directory is the role store the vetting engine depends on.
type Directory interface {
	// FindByID returns the directory record for a user.
	FindByID(ctx context.Context, userID id.UserID) (*User, error)

	// ElevateToVettedMember grants the vetted-member privilege. Roles at or
	// above vetted member are left untouched so an administrator approving
	// their own test application is never downgraded.
	ElevateToVettedMember(ctx context.Context, userID id.UserID) error
}
