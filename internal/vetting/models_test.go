package vetting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "membergate/pkg/domain-errors"
)

func TestParseStatus(t *testing.T) {
	t.Run("accepts every workflow status", func(t *testing.T) {
		for _, raw := range []string{
			"UnderReview", "InterviewApproved", "FinalReview",
			"OnHold", "Approved", "Denied", "Withdrawn",
		} {
			s, err := ParseStatus(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, Status(raw), s)
		}
	})

	t.Run("accepts the retired InterviewScheduled value", func(t *testing.T) {
		s, err := ParseStatus("InterviewScheduled")
		require.NoError(t, err)
		assert.Equal(t, StatusInterviewScheduled, s)
	})

	t.Run("rejects unknown text as corruption", func(t *testing.T) {
		for _, raw := range []string{"", "approved", "UNDER_REVIEW", "Pending", "garbage"} {
			_, err := ParseStatus(raw)
			require.Error(t, err, raw)
			assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
		}
	})
}

func TestStatusPredicates(t *testing.T) {
	terminal := map[Status]bool{
		StatusUnderReview:        false,
		StatusInterviewApproved:  false,
		StatusInterviewScheduled: false,
		StatusFinalReview:        false,
		StatusOnHold:             false,
		StatusApproved:           true,
		StatusDenied:             true,
		StatusWithdrawn:          true,
	}
	for s, want := range terminal {
		assert.Equal(t, want, s.IsTerminal(), "IsTerminal(%s)", s)
	}

	blocking := map[Status]bool{
		StatusUnderReview:        false,
		StatusInterviewApproved:  false,
		StatusInterviewScheduled: false,
		StatusFinalReview:        false,
		StatusOnHold:             true,
		StatusApproved:           false,
		StatusDenied:             true,
		StatusWithdrawn:          true,
	}
	for s, want := range blocking {
		assert.Equal(t, want, s.BlocksParticipation(), "BlocksParticipation(%s)", s)
	}
}

func TestCanTransition(t *testing.T) {
	all := []Status{
		StatusUnderReview, StatusInterviewApproved, StatusInterviewScheduled,
		StatusFinalReview, StatusOnHold, StatusApproved, StatusDenied, StatusWithdrawn,
	}
	allowed := map[[2]Status]bool{
		{StatusUnderReview, StatusInterviewApproved}: true,
		{StatusUnderReview, StatusOnHold}:            true,
		{StatusOnHold, StatusUnderReview}:            true,
		{StatusInterviewApproved, StatusFinalReview}: true,
		{StatusFinalReview, StatusApproved}:          true,
		{StatusFinalReview, StatusDenied}:            true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestRequiresNotes(t *testing.T) {
	assert.True(t, RequiresNotes(StatusUnderReview, StatusOnHold))
	assert.True(t, RequiresNotes(StatusOnHold, StatusUnderReview))
	assert.True(t, RequiresNotes(StatusFinalReview, StatusApproved))
	assert.True(t, RequiresNotes(StatusFinalReview, StatusDenied))

	assert.False(t, RequiresNotes(StatusUnderReview, StatusInterviewApproved))
	assert.False(t, RequiresNotes(StatusInterviewApproved, StatusFinalReview))
	assert.False(t, RequiresNotes(StatusApproved, StatusDenied), "undefined edges never require notes")
}

func TestAppendAdminNote(t *testing.T) {
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	t.Run("first note stands alone", func(t *testing.T) {
		app := &Application{}
		app.AppendAdminNote(at, StatusOnHold, "waiting on references")
		assert.Equal(t,
			"[2026-03-14T15:09:26Z] Status change to OnHold: waiting on references",
			app.AdminNotes)
	})

	t.Run("later notes append on new lines", func(t *testing.T) {
		app := &Application{AdminNotes: "earlier note"}
		app.AppendAdminNote(at, StatusApproved, "welcome aboard")
		assert.Equal(t,
			"earlier note\n[2026-03-14T15:09:26Z] Status change to Approved: welcome aboard",
			app.AdminNotes)
	})

	t.Run("timestamps normalize to UTC", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		app := &Application{}
		app.AppendAdminNote(time.Date(2026, 3, 14, 10, 9, 26, 0, est), StatusDenied, "no")
		assert.Contains(t, app.AdminNotes, "[2026-03-14T15:09:26Z]")
	})
}

func TestFormatApplicationNumber(t *testing.T) {
	at := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "VET-20260829-0042", FormatApplicationNumber(at, 42))
	assert.Equal(t, "VET-20260829-0001", FormatApplicationNumber(at, 1))
}
