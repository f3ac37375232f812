// Package ports defines shared interfaces for the vetting module.
// Interfaces live here when more than one service consumes them.
package ports

import (
	"context"
	"log/slog"
	"time"

	"membergate/internal/platform/middleware"
	"membergate/internal/vetting"
	id "membergate/pkg/domain"
	"membergate/pkg/platform/audit"
)

// AuditPublisher emits operational audit events for security-relevant
// activity. This is the platform trail, separate from the per-application
// audit log the store persists.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StatusSnapshot is the cached answer to "where does this user stand in
// vetting". HasApplication false means the user never applied; Status is
// meaningful only when HasApplication is true.
type StatusSnapshot struct {
	HasApplication bool             `json:"has_application"`
	ApplicationID  id.ApplicationID `json:"application_id"`
	Status         vetting.Status   `json:"status"`
}

// StatusCache holds per-user status snapshots between access checks.
// Get returns (nil, nil) on a miss; cache errors are advisory and callers
// fall through to the store.
type StatusCache interface {
	Get(ctx context.Context, userID id.UserID) (*StatusSnapshot, error)
	Set(ctx context.Context, userID id.UserID, snap StatusSnapshot, ttl time.Duration) error
	Invalidate(ctx context.Context, userID id.UserID) error
}

// CacheInvalidator is the slice of StatusCache the transition engine needs:
// every successful mutation drops the owning user's snapshot so access
// checks never act on a stale status.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID id.UserID) error
}

// LogAudit records an audit-worthy event to both the structured logger and
// the audit publisher when either is available. The request id is stamped
// from the context so log lines and audit records correlate.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event, attrs ...any) {
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		event.RequestID = requestID
		attrs = append(attrs, "request_id", requestID)
	}

	args := append(attrs, "event", event.Action, "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, event.Action, args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
