package access

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"membergate/internal/vetting"
	"membergate/internal/vetting/store/memory"
	id "membergate/pkg/domain"
)

type AccessSuite struct {
	suite.Suite

	ctx     context.Context
	now     time.Time
	store   *memory.InMemoryStore
	cache   *MemoryCache
	gate    *Service
	eventID id.EventID
}

func TestAccessSuite(t *testing.T) {
	suite.Run(t, new(AccessSuite))
}

func (s *AccessSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	s.store = memory.NewInMemoryStore()
	s.cache = NewMemoryCache()
	s.eventID = id.NewEventID()

	gate, err := New(s.store, s.cache,
		WithSupportEmail("support@example.com"),
		WithNow(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.gate = gate
}

func (s *AccessSuite) seedApp(status vetting.Status) (id.UserID, *vetting.Application) {
	userID := id.NewUserID()
	app := &vetting.Application{
		ID:                id.NewApplicationID(),
		ApplicationNumber: vetting.FormatApplicationNumber(s.now, 7),
		StatusToken:       id.NewApplicationID().String(),
		UserID:            &userID,
		Email:             "applicant@example.com",
		Status:            status,
		SubmittedAt:       s.now.Add(-time.Hour),
		UpdatedAt:         s.now.Add(-time.Hour),
	}
	s.Require().NoError(s.store.Create(s.ctx, app))
	return userID, app
}

func (s *AccessSuite) TestNoApplicationAllows() {
	decision, err := s.gate.CanUserRSVP(s.ctx, id.NewUserID(), s.eventID)
	s.Require().NoError(err)
	s.True(decision.Allowed)
	s.Nil(decision.Status)
	s.Empty(decision.Reason)
}

func (s *AccessSuite) TestNonBlockingStatusesAllow() {
	for _, status := range []vetting.Status{
		vetting.StatusUnderReview,
		vetting.StatusInterviewApproved,
		vetting.StatusInterviewScheduled,
		vetting.StatusFinalReview,
		vetting.StatusApproved,
	} {
		s.Run(string(status), func() {
			userID, app := s.seedApp(status)

			decision, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
			s.Require().NoError(err)
			s.True(decision.Allowed)
			s.Require().NotNil(decision.Status, "status returned for caller-side display")
			s.Equal(status, *decision.Status)

			entries, err := s.store.ListAudit(s.ctx, app.ID)
			s.Require().NoError(err)
			s.Empty(entries, "allowed outcomes are never audited")
		})
	}
}

func (s *AccessSuite) TestBlockingStatusesDeny() {
	s.Run("on hold directs to support", func() {
		userID, app := s.seedApp(vetting.StatusOnHold)

		decision, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)
		s.False(decision.Allowed)
		s.Equal("Vetting application on hold", decision.Reason)
		s.Contains(decision.UserMessage, "support@example.com")

		entries, err := s.store.ListAudit(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(vetting.ActionRSVP, entries[0].Action)
		s.Equal(userID, entries[0].PerformedBy)
		s.Equal("Access denied. Vetting status: OnHold. Reason: Vetting application on hold", entries[0].Notes)
	})

	s.Run("denied blocks ticket purchase", func() {
		userID, app := s.seedApp(vetting.StatusDenied)

		decision, err := s.gate.CanUserPurchaseTicket(s.ctx, userID, s.eventID)
		s.Require().NoError(err)
		s.False(decision.Allowed)
		s.Equal("Vetting application denied", decision.Reason)
		s.Contains(decision.UserMessage, "cannot purchase tickets")

		entries, err := s.store.ListAudit(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(vetting.ActionTicketPurchase, entries[0].Action)
	})

	s.Run("withdrawn invites a new application", func() {
		userID, _ := s.seedApp(vetting.StatusWithdrawn)

		decision, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)
		s.False(decision.Allowed)
		s.Contains(decision.UserMessage, "new application")
	})

	s.Run("every denial writes its own entry", func() {
		userID, app := s.seedApp(vetting.StatusDenied)

		for i := 0; i < 3; i++ {
			_, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
			s.Require().NoError(err)
		}

		entries, err := s.store.ListAudit(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Len(entries, 3)
	})
}

func (s *AccessSuite) TestSnapshotCaching() {
	s.Run("second check is served from cache", func() {
		userID, app := s.seedApp(vetting.StatusUnderReview)

		decision, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)
		s.True(decision.Allowed)

		// Flip the stored status behind the cache's back.
		app.Status = vetting.StatusDenied
		s.Require().NoError(s.store.Update(s.ctx, app, vetting.StatusUnderReview))

		decision, err = s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)
		s.True(decision.Allowed, "stale snapshot still answers until invalidated")
	})

	s.Run("point invalidation takes effect immediately", func() {
		userID, app := s.seedApp(vetting.StatusUnderReview)

		_, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)

		app.Status = vetting.StatusDenied
		s.Require().NoError(s.store.Update(s.ctx, app, vetting.StatusUnderReview))
		s.Require().NoError(s.cache.Invalidate(s.ctx, userID))

		decision, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)
		s.False(decision.Allowed)
	})

	s.Run("absence of an application is cached too", func() {
		userID := id.NewUserID()

		_, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)

		snap, err := s.cache.Get(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().NotNil(snap)
		s.False(snap.HasApplication)
	})
}

func (s *AccessSuite) TestRejectsNilUser() {
	_, err := s.gate.CanUserRSVP(s.ctx, id.UserID{}, s.eventID)
	s.Error(err)
}

func (s *AccessSuite) TestRuleSetIsSharedAcrossActions() {
	for _, status := range []vetting.Status{vetting.StatusOnHold, vetting.StatusDenied, vetting.StatusWithdrawn} {
		userID, _ := s.seedApp(status)

		rsvp, err := s.gate.CanUserRSVP(s.ctx, userID, s.eventID)
		s.Require().NoError(err)
		ticket, err := s.gate.CanUserPurchaseTicket(s.ctx, userID, s.eventID)
		s.Require().NoError(err)

		s.Equal(rsvp.Allowed, ticket.Allowed, fmt.Sprintf("status %s", status))
		s.Equal(rsvp.Reason, ticket.Reason)
	}
}
