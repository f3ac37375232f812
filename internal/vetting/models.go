// Package vetting holds the application workflow model: the status
// enumeration, the transition table, and the records the stores persist.
package vetting

import (
	"fmt"
	"time"

	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

// Status is the workflow state of a membership application. Values are
// persisted as strings; ParseStatus is the only way back into the type, so
// anything outside the known set is rejected at the storage boundary.
type Status string

const (
	StatusUnderReview       Status = "UnderReview"
	StatusInterviewApproved Status = "InterviewApproved"
	StatusFinalReview       Status = "FinalReview"
	StatusOnHold            Status = "OnHold"
	StatusApproved          Status = "Approved"
	StatusDenied            Status = "Denied"
	StatusWithdrawn         Status = "Withdrawn"

	// StatusInterviewScheduled survives only in historical rows. Scheduling
	// stopped being a distinct workflow state when interview logistics moved
	// onto the application record itself; the parser still accepts the value
	// so old rows load, but no transition reaches or leaves it.
	//
	// Deprecated: no new applications enter this state.
	StatusInterviewScheduled Status = "InterviewScheduled"
)

var knownStatuses = map[Status]struct{}{
	StatusUnderReview:        {},
	StatusInterviewApproved:  {},
	StatusFinalReview:        {},
	StatusOnHold:             {},
	StatusApproved:           {},
	StatusDenied:             {},
	StatusWithdrawn:          {},
	StatusInterviewScheduled: {},
}

// ParseStatus converts persisted text into a Status. Unknown values mean the
// row was written by something that does not understand the workflow, which
// is treated as corruption rather than silently coerced.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := knownStatuses[s]; !ok {
		return "", dErrors.New(dErrors.CodeInternal, fmt.Sprintf("corrupt application status %q", raw))
	}
	return s, nil
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusDenied, StatusWithdrawn:
		return true
	}
	return false
}

// BlocksParticipation reports whether the status denies event actions for
// the holder. All other statuses, and having no application at all, allow.
func (s Status) BlocksParticipation() bool {
	switch s {
	case StatusOnHold, StatusDenied, StatusWithdrawn:
		return true
	}
	return false
}

// DisplayName is the applicant-facing label for the status.
func (s Status) DisplayName() string {
	switch s {
	case StatusUnderReview:
		return "Under Review"
	case StatusInterviewApproved:
		return "Interview Approved"
	case StatusInterviewScheduled:
		return "Interview Scheduled"
	case StatusFinalReview:
		return "Final Review"
	case StatusOnHold:
		return "On Hold"
	case StatusApproved:
		return "Approved"
	case StatusDenied:
		return "Denied"
	case StatusWithdrawn:
		return "Withdrawn"
	}
	return string(s)
}

type edge struct{ from, to Status }

// transitions is the complete workflow graph. An edge's value records
// whether reviewer notes are mandatory on that move.
var transitions = map[edge]struct{ notesRequired bool }{
	{StatusUnderReview, StatusInterviewApproved}: {notesRequired: false},
	{StatusUnderReview, StatusOnHold}:            {notesRequired: true},
	{StatusOnHold, StatusUnderReview}:            {notesRequired: true},
	{StatusInterviewApproved, StatusFinalReview}: {notesRequired: false},
	{StatusFinalReview, StatusApproved}:          {notesRequired: true},
	{StatusFinalReview, StatusDenied}:            {notesRequired: true},
}

// CanTransition reports whether the workflow permits moving from one status
// to another in a single step.
func CanTransition(from, to Status) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}

// RequiresNotes reports whether the given edge demands reviewer notes.
// Undefined edges report false; callers check CanTransition first.
func RequiresNotes(from, to Status) bool {
	t, ok := transitions[edge{from, to}]
	return ok && t.notesRequired
}

// Application is one person's request to join, tracked from submission to a
// terminal decision. UserID is nil until the applicant links an account;
// until then StatusToken is their only handle on the record.
type Application struct {
	ID                id.ApplicationID
	ApplicationNumber string
	StatusToken       string
	UserID            *id.UserID
	Email             string
	PreferredName     string
	Status            Status
	AdminNotes        string
	DecisionMadeAt    *time.Time
	InterviewAt       *time.Time
	InterviewLocation string
	SubmittedAt       time.Time
	UpdatedAt         time.Time
}

// AppendAdminNote adds a timestamped fragment to the running reviewer log.
// Notes only ever grow; nothing in the workflow rewrites history.
func (a *Application) AppendAdminNote(at time.Time, target Status, notes string) {
	fragment := fmt.Sprintf("[%s] Status change to %s: %s",
		at.UTC().Format(time.RFC3339), target, notes)
	if a.AdminNotes == "" {
		a.AdminNotes = fragment
		return
	}
	a.AdminNotes += "\n" + fragment
}

// FormatApplicationNumber renders the human-facing reference for an
// application, e.g. VET-20260829-0042.
func FormatApplicationNumber(submittedAt time.Time, seq int) string {
	return fmt.Sprintf("VET-%s-%04d", submittedAt.UTC().Format("20060102"), seq)
}

// Audit actions recorded against applications. The labels are load-bearing:
// reporting tooling filters on them.
const (
	ActionStatusChanged      = "Status Changed"
	ActionInterviewScheduled = "Interview Scheduled"
	ActionRSVP               = "RSVP"
	ActionTicketPurchase     = "TicketPurchase"
)

// AuditLog is one immutable entry in an application's history. PerformedBy
// is always an explicit actor, never inferred from ambient request state.
type AuditLog struct {
	ID            int64
	ApplicationID id.ApplicationID
	Action        string
	OldValue      string
	NewValue      string
	PerformedBy   id.UserID
	PerformedAt   time.Time
	Notes         string
}
