// Package audit defines the operational audit trail emitted by the vetting
// engine. Events here are observability fan-out; the per-application audit
// log persisted with each transition lives with the vetting store and is
// written transactionally.
package audit

import (
	"context"
	"time"

	id "membergate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with membership-record significance:
	// status decisions and privilege grants. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to access enforcement,
	// such as denied RSVP or ticket-purchase checks.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine visibility events that can be
	// sampled, such as notification dispatch outcomes.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	UserID        id.UserID
	ApplicationID string
	Action        string
	Decision      string
	Reason        string
	// ActorID tracks the administrator who performed the action when
	// different from UserID.
	ActorID   string
	RequestID string
}

// AuditEvent names the actions the engine emits.
type AuditEvent string

const (
	EventStatusChanged      AuditEvent = "application_status_changed"
	EventInterviewScheduled AuditEvent = "interview_scheduled"
	EventRoleElevated       AuditEvent = "member_role_elevated"
	EventAccessDenied       AuditEvent = "access_denied"
	EventNotificationFailed AuditEvent = "notification_failed"
	EventStatusLookupFailed AuditEvent = "status_lookup_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventStatusChanged:      CategoryCompliance,
	EventInterviewScheduled: CategoryCompliance,
	EventRoleElevated:       CategoryCompliance,
	EventAccessDenied:       CategorySecurity,
	EventNotificationFailed: CategoryOperations,
	EventStatusLookupFailed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations must be append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
}
