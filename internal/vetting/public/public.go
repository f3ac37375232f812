// Package public serves applicant-facing status lookups. Views are
// projections of the current status only; reviewer notes and actor
// identities never leave the administrative surface.
package public

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"membergate/internal/vetting"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

// StatusView is everything an applicant may see about their application.
type StatusView struct {
	ApplicationNumber string         `json:"application_number"`
	Status            vetting.Status `json:"status"`
	StatusDisplay     string         `json:"status_display"`
	Description       string         `json:"description"`
	Phase             string         `json:"phase"`
	ProgressPercent   int            `json:"progress_percent"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	InterviewAt       *time.Time     `json:"interview_at,omitempty"`
	InterviewLocation string         `json:"interview_location,omitempty"`
	// EstimatedDaysRemaining is nil once the review has run past the
	// estimate or reached a decision.
	EstimatedDaysRemaining *int `json:"estimated_days_remaining,omitempty"`
}

type Service struct {
	store               vetting.Store
	logger              *slog.Logger
	estimatedReviewDays int
	now                 func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEstimatedReviewDays sets the advertised total review duration used
// for the countdown shown to applicants.
func WithEstimatedReviewDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.estimatedReviewDays = days
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store vetting.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("application store is required")
	}

	svc := &Service{
		store:               store,
		estimatedReviewDays: 14,
		now:                 time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// GetStatusByToken resolves the opaque token from the confirmation email.
// Anything that goes wrong reads as not-found: the token is unauthenticated
// and the response must not reveal whether it was close to a real one.
func (s *Service) GetStatusByToken(ctx context.Context, token string) (*StatusView, error) {
	if token == "" {
		return nil, vetting.ErrNotFound
	}

	app, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) && s.logger != nil {
			s.logger.ErrorContext(ctx, "status lookup by token failed", "error", err)
		}
		return nil, vetting.ErrNotFound
	}
	return s.view(app), nil
}

// GetMyStatus returns the authenticated user's most recent application.
func (s *Service) GetMyStatus(ctx context.Context, userID id.UserID) (*StatusView, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}

	app, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(app), nil
}

func (s *Service) view(app *vetting.Application) *StatusView {
	v := &StatusView{
		ApplicationNumber: app.ApplicationNumber,
		Status:            app.Status,
		StatusDisplay:     app.Status.DisplayName(),
		Description:       statusDescription(app.Status),
		Phase:             currentPhase(app.Status),
		ProgressPercent:   progressPercent(app.Status),
		SubmittedAt:       app.SubmittedAt,
		UpdatedAt:         app.UpdatedAt,
		InterviewAt:       app.InterviewAt,
		InterviewLocation: app.InterviewLocation,
	}
	if !app.Status.IsTerminal() {
		if remaining := s.estimatedDaysRemaining(app); remaining > 0 {
			v.EstimatedDaysRemaining = &remaining
		}
	}
	return v
}

func (s *Service) estimatedDaysRemaining(app *vetting.Application) int {
	elapsed := int(s.now().UTC().Sub(app.SubmittedAt.UTC()).Hours() / 24)
	return s.estimatedReviewDays - elapsed
}

func statusDescription(status vetting.Status) string {
	switch status {
	case vetting.StatusUnderReview:
		return "Your application is currently under review by our vetting team."
	case vetting.StatusInterviewApproved:
		return "Your application passed initial review. We will reach out to schedule an interview."
	case vetting.StatusInterviewScheduled:
		return "An interview has been scheduled. Check your email for details."
	case vetting.StatusFinalReview:
		return "Your interview is complete and your application is in final review."
	case vetting.StatusOnHold:
		return "We need additional information from you. Check your email for details."
	case vetting.StatusApproved:
		return "Congratulations! Your application has been approved."
	case vetting.StatusDenied:
		return "Your application was not approved at this time."
	case vetting.StatusWithdrawn:
		return "You withdrew your application. You may submit a new application at any time."
	}
	return "Your application is being processed."
}

func currentPhase(status vetting.Status) string {
	switch status {
	case vetting.StatusUnderReview:
		return "Under Review"
	case vetting.StatusInterviewApproved:
		return "Interview Approved"
	case vetting.StatusInterviewScheduled:
		return "Interview Scheduled"
	case vetting.StatusFinalReview:
		return "Final Review"
	case vetting.StatusOnHold:
		return "Additional Information Requested"
	case vetting.StatusApproved:
		return "Approved"
	case vetting.StatusDenied, vetting.StatusWithdrawn:
		return "Decision Made"
	}
	return "Processing"
}

// progressPercent maps each status onto the coarse five-step progress bar:
// submitted, under review, interview stage, final review, decided.
func progressPercent(status vetting.Status) int {
	switch status {
	case vetting.StatusUnderReview, vetting.StatusOnHold:
		return 40
	case vetting.StatusInterviewApproved, vetting.StatusInterviewScheduled:
		return 60
	case vetting.StatusFinalReview:
		return 80
	case vetting.StatusApproved, vetting.StatusDenied, vetting.StatusWithdrawn:
		return 100
	}
	return 20
}
