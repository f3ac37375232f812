package vetting

import (
	"context"

	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

// ErrNotFound is returned when no application matches the lookup key.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "application not found")

// ErrModifiedConcurrently is returned by Update when the stored status no
// longer matches what the caller read. The losing writer of two concurrent
// transitions gets this instead of silently overwriting.
var ErrModifiedConcurrently = dErrors.New(dErrors.CodeConflict, "application was modified concurrently")

// Store persists applications and their audit trail. Implementations that
// back onto SQL honor a transaction carried in the context, so a status
// write and its audit entry land in one atomic unit.
type Store interface {
	FindByID(ctx context.Context, appID id.ApplicationID) (*Application, error)
	// FindByUserID returns the user's most recent application by
	// submission time, or ErrNotFound when they have never applied.
	FindByUserID(ctx context.Context, userID id.UserID) (*Application, error)
	// FindByToken resolves the opaque status token mailed to applicants.
	FindByToken(ctx context.Context, token string) (*Application, error)

	Create(ctx context.Context, app *Application) error
	// Update writes the record only if its persisted status still equals
	// expectedStatus, returning ErrModifiedConcurrently otherwise. This is
	// the optimistic check that serializes racing transitions on one
	// application.
	Update(ctx context.Context, app *Application, expectedStatus Status) error

	AppendAudit(ctx context.Context, entry *AuditLog) error
	// ListAudit returns an application's entries oldest first.
	ListAudit(ctx context.Context, appID id.ApplicationID) ([]AuditLog, error)
}

// TxRunner scopes a unit of work. SQL implementations open a transaction
// and thread it through the context; the in-memory implementation takes a
// coarse lock so concurrent transitions on one application serialize.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
