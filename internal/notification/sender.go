// Package notification hands status messages to the mailer pipeline. The
// engine treats delivery as advisory: a failed send is logged and counted,
// never surfaced to the transition caller.
package notification

import "context"

// StatusUpdate tells an applicant their application moved to a new status.
// Statuses travel as strings so this package stays independent of the
// workflow model.
type StatusUpdate struct {
	ApplicationID     string
	ApplicationNumber string
	RecipientEmail    string
	RecipientName     string
	NewStatus         string
}

// InterviewInvite tells an applicant when and where their interview happens.
type InterviewInvite struct {
	ApplicationID     string
	ApplicationNumber string
	RecipientEmail    string
	RecipientName     string
	ScheduledForUTC   string
	Location          string
}

// Sender attempts delivery and reports success or failure. Implementations
// must not block beyond the context deadline and must never mutate
// application state.
type Sender interface {
	SendStatusUpdate(ctx context.Context, msg StatusUpdate) error
	SendInterviewScheduled(ctx context.Context, msg InterviewInvite) error
}
