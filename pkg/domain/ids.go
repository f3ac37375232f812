// Package domain holds identifier types shared across feature packages.
// IDs are typed wrappers over UUIDs so that an application ID can never be
// passed where a user ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "membergate/pkg/domain-errors"
)

// UserID identifies a platform account.
type UserID uuid.UUID

// ApplicationID identifies a vetting application.
type ApplicationID uuid.UUID

// EventID identifies a community event.
type EventID uuid.UUID

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string       { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewApplicationID returns a fresh random application ID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewEventID returns a fresh random event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// ParseUserID validates and parses a user ID from its string form.
// IDs must be valid, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s)
	return UserID(u), err
}

// ParseApplicationID validates and parses an application ID from its string form.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parse(s)
	return ApplicationID(u), err
}

// ParseEventID validates and parses an event ID from its string form.
func ParseEventID(s string) (EventID, error) {
	u, err := parse(s)
	return EventID(u), err
}

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
