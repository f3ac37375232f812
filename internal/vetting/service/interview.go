package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"membergate/internal/notification"
	"membergate/internal/vetting"
	"membergate/internal/vetting/ports"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/audit"
)

// ScheduleInterview records when and where an applicant will be interviewed.
// Scheduling does not move the workflow; it annotates the application and
// leaves its own audit entry.
func (s *Service) ScheduleInterview(ctx context.Context, appID id.ApplicationID, whenUTC time.Time, location string, actorID id.UserID) (*vetting.Application, error) {
	ctx, span := tracer.Start(ctx, "vetting.ScheduleInterview")
	defer span.End()
	span.SetAttributes(attribute.String("application_id", appID.String()))

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

	if app.Status.IsTerminal() {
		err := dErrors.New(dErrors.CodeTerminalState,
			fmt.Sprintf("application is %s; terminal statuses cannot change", app.Status))
		s.countRejection(err)
		return nil, err
	}

	now := s.now().UTC()
	whenUTC = whenUTC.UTC()
	if !whenUTC.After(now) {
		err := dErrors.New(dErrors.CodeInvalidInterviewDate, "interview must be scheduled in the future")
		s.countRejection(err)
		return nil, err
	}
	location = strings.TrimSpace(location)
	if location == "" {
		err := dErrors.New(dErrors.CodeInterviewLocationRequired, "interview location is required")
		s.countRejection(err)
		return nil, err
	}

	app.InterviewAt = &whenUTC
	app.InterviewLocation = location
	app.UpdatedAt = now

	entry := &vetting.AuditLog{
		ApplicationID: app.ID,
		Action:        vetting.ActionInterviewScheduled,
		NewValue:      whenUTC.Format(time.RFC3339),
		PerformedBy:   actorID,
		PerformedAt:   now,
		Notes:         fmt.Sprintf("Interview scheduled for %s at %s", whenUTC.Format(time.RFC3339), location),
	}

	err = s.txr.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Update(ctx, app, app.Status); err != nil {
			return err
		}
		return s.store.AppendAudit(ctx, entry)
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.invalidateSnapshot(ctx, app)

	event := audit.Event{
		Category:      audit.EventInterviewScheduled.Category(),
		Timestamp:     now,
		ApplicationID: app.ID.String(),
		Action:        string(audit.EventInterviewScheduled),
		ActorID:       actorID.String(),
	}
	if app.UserID != nil {
		event.UserID = *app.UserID
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, event,
		"application_id", app.ID.String(),
		"interview_at", whenUTC.Format(time.RFC3339),
	)

	s.notifyInterview(ctx, app)

	return app, nil
}

func (s *Service) notifyInterview(ctx context.Context, app *vetting.Application) {
	if s.sender == nil || app.InterviewAt == nil {
		return
	}
	msg := notification.InterviewInvite{
		ApplicationID:     app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		RecipientEmail:    app.Email,
		RecipientName:     s.recipientName(app),
		ScheduledForUTC:   app.InterviewAt.Format(time.RFC3339),
		Location:          app.InterviewLocation,
	}
	if err := s.sender.SendInterviewScheduled(ctx, msg); err != nil {
		s.recordNotificationFailure(ctx, app, "interview_scheduled", err)
	}
}
