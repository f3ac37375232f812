// Package service implements the status transition engine for membership
// applications. Every mutation takes an explicit actor, writes its audit
// entry in the same unit of work as the status change, and treats applicant
// notification as best effort.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"membergate/internal/identity"
	"membergate/internal/notification"
	"membergate/internal/platform/metrics"
	"membergate/internal/vetting"
	"membergate/internal/vetting/ports"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/email"
	"membergate/pkg/platform/audit"
)

var tracer = otel.Tracer("membergate/vetting/service")

type Service struct {
	store     vetting.Store
	txr       vetting.TxRunner
	directory identity.Directory

	sender         notification.Sender
	auditPublisher ports.AuditPublisher
	cache          ports.CacheInvalidator
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithSender enables applicant notifications. Without it the engine still
// completes transitions; it just has no one to tell.
func WithSender(sender notification.Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// WithCacheInvalidator drops the owning user's access-gate snapshot after
// every successful mutation.
func WithCacheInvalidator(cache ports.CacheInvalidator) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store vetting.Store, txr vetting.TxRunner, directory identity.Directory, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if txr == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("identity directory is required")
	}

	svc := &Service{
		store:     store,
		txr:       txr,
		directory: directory,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// RequestTransition moves an application along one edge of the workflow.
// Rules are checked in a fixed order so callers get the most specific
// rejection: existence, actor privilege, terminal protection, edge
// validity, then the notes requirement.
func (s *Service) RequestTransition(ctx context.Context, appID id.ApplicationID, target vetting.Status, notes string, actorID id.UserID) (*vetting.Application, error) {
	ctx, span := tracer.Start(ctx, "vetting.RequestTransition")
	defer span.End()
	span.SetAttributes(
		attribute.String("application_id", appID.String()),
		attribute.String("target_status", string(target)),
	)

	if appID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "application_id is required")
	}
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "actor_id is required")
	}

	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdministrator(ctx, actorID); err != nil {
		return nil, err
	}

	if err := s.checkEdge(app.Status, target, notes); err != nil {
		s.countRejection(err)
		return nil, err
	}

	now := s.now().UTC()
	old := app.Status
	app.Status = target
	app.UpdatedAt = now
	if target.IsTerminal() {
		app.DecisionMadeAt = &now
	}
	trimmed := strings.TrimSpace(notes)
	if trimmed != "" {
		app.AppendAdminNote(now, target, trimmed)
	}

	entry := &vetting.AuditLog{
		ApplicationID: app.ID,
		Action:        vetting.ActionStatusChanged,
		OldValue:      string(old),
		NewValue:      string(target),
		PerformedBy:   actorID,
		PerformedAt:   now,
		Notes:         trimmed,
	}

	// Elevation runs before the status write: an approval that cannot grant
	// the vetted-member role must not be recorded as approved.
	err = s.txr.RunInTx(ctx, func(ctx context.Context) error {
		if target == vetting.StatusApproved && app.UserID != nil {
			if err := s.directory.ElevateToVettedMember(ctx, *app.UserID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "role elevation failed")
			}
		}
		if err := s.store.Update(ctx, app, old); err != nil {
			return err
		}
		return s.store.AppendAudit(ctx, entry)
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(target)).Inc()
	}
	s.invalidateSnapshot(ctx, app)

	event := audit.Event{
		Category:      audit.EventStatusChanged.Category(),
		Timestamp:     now,
		ApplicationID: app.ID.String(),
		Action:        string(audit.EventStatusChanged),
		Decision:      string(target),
		ActorID:       actorID.String(),
	}
	if app.UserID != nil {
		event.UserID = *app.UserID
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, event,
		"application_id", app.ID.String(),
		"from", string(old),
		"to", string(target),
		"actor_id", actorID.String(),
	)

	if target == vetting.StatusApproved && app.UserID != nil {
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:      audit.EventRoleElevated.Category(),
			Timestamp:     now,
			UserID:        *app.UserID,
			ApplicationID: app.ID.String(),
			Action:        string(audit.EventRoleElevated),
			ActorID:       actorID.String(),
		}, "user_id", app.UserID.String())
	}

	s.notifyStatusChange(ctx, app)

	return app, nil
}

// Approve grants membership. Only valid from final review, with notes.
func (s *Service) Approve(ctx context.Context, appID id.ApplicationID, notes string, actorID id.UserID) (*vetting.Application, error) {
	return s.RequestTransition(ctx, appID, vetting.StatusApproved, notes, actorID)
}

// Deny rejects the application. Only valid from final review, with notes.
func (s *Service) Deny(ctx context.Context, appID id.ApplicationID, notes string, actorID id.UserID) (*vetting.Application, error) {
	return s.RequestTransition(ctx, appID, vetting.StatusDenied, notes, actorID)
}

// PutOnHold pauses an application under review, with notes.
func (s *Service) PutOnHold(ctx context.Context, appID id.ApplicationID, notes string, actorID id.UserID) (*vetting.Application, error) {
	return s.RequestTransition(ctx, appID, vetting.StatusOnHold, notes, actorID)
}

// GetApplication returns the full record for administrative review.
func (s *Service) GetApplication(ctx context.Context, appID id.ApplicationID, actorID id.UserID) (*vetting.Application, error) {
	if appID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "application_id is required")
	}
	if err := s.requireAdministrator(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, appID)
}

// AuditTrail returns an application's audit entries, oldest first.
func (s *Service) AuditTrail(ctx context.Context, appID id.ApplicationID, actorID id.UserID) ([]vetting.AuditLog, error) {
	if appID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "application_id is required")
	}
	if err := s.requireAdministrator(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.store.FindByID(ctx, appID); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, appID)
}

// requireAdministrator re-verifies the actor's privilege against the
// directory. Transport already gates admin routes; the engine does not
// trust that alone.
func (s *Service) requireAdministrator(ctx context.Context, actorID id.UserID) error {
	actor, err := s.directory.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) || dErrors.Is(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "administrator role required")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "actor lookup failed")
	}
	if !actor.Role.IsAdministrative() {
		return dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	return nil
}

func (s *Service) checkEdge(from, to vetting.Status, notes string) error {
	if from.IsTerminal() {
		return dErrors.New(dErrors.CodeTerminalState,
			fmt.Sprintf("application is %s; terminal statuses cannot change", from))
	}
	if !vetting.CanTransition(from, to) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move from %s to %s", from, to))
	}
	if vetting.RequiresNotes(from, to) && strings.TrimSpace(notes) == "" {
		return dErrors.New(dErrors.CodeNotesRequired,
			fmt.Sprintf("reviewer notes are required to move from %s to %s", from, to))
	}
	return nil
}

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.TransitionsRejected.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
}

func (s *Service) invalidateSnapshot(ctx context.Context, app *vetting.Application) {
	if s.cache == nil || app.UserID == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, *app.UserID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to invalidate status snapshot",
			"user_id", app.UserID.String(), "error", err)
	}
}

// notifyStatusChange tells the applicant about their new status. Final
// review is an internal checkpoint and withdrawal was their own act, so
// neither produces mail. Failures are logged and counted, never returned:
// the transition already happened.
func (s *Service) notifyStatusChange(ctx context.Context, app *vetting.Application) {
	if s.sender == nil {
		return
	}
	switch app.Status {
	case vetting.StatusFinalReview, vetting.StatusWithdrawn:
		return
	}

	msg := notification.StatusUpdate{
		ApplicationID:     app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		RecipientEmail:    app.Email,
		RecipientName:     s.recipientName(app),
		NewStatus:         app.Status.DisplayName(),
	}
	if err := s.sender.SendStatusUpdate(ctx, msg); err != nil {
		s.recordNotificationFailure(ctx, app, "status_update", err)
	}
}

func (s *Service) recipientName(app *vetting.Application) string {
	if app.PreferredName != "" {
		return app.PreferredName
	}
	first, last := email.DeriveNameFromEmail(app.Email)
	if last != "Applicant" {
		return first + " " + last
	}
	return first
}

func (s *Service) recordNotificationFailure(ctx context.Context, app *vetting.Application, kind string, err error) {
	if s.metrics != nil {
		s.metrics.NotificationFailures.Inc()
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"kind", kind,
			"application_id", app.ID.String(),
			"recipient", email.Mask(app.Email),
			"error", err)
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:      audit.EventNotificationFailed.Category(),
		Timestamp:     s.now().UTC(),
		ApplicationID: app.ID.String(),
		Action:        string(audit.EventNotificationFailed),
		Reason:        kind,
	})
}
