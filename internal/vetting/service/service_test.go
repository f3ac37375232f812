package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"membergate/internal/identity"
	"membergate/internal/notification"
	"membergate/internal/vetting"
	"membergate/internal/vetting/mocks"
	"membergate/internal/vetting/store/memory"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

type recordingInvalidator struct {
	users []id.UserID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID id.UserID) error {
	r.users = append(r.users, userID)
	return nil
}

type ServiceSuite struct {
	suite.Suite

	ctx    context.Context
	now    time.Time
	store  *memory.InMemoryStore
	dir    *identity.MemoryDirectory
	sender *notification.MemorySender
	cache  *recordingInvalidator
	svc    *Service

	adminID id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	s.store = memory.NewInMemoryStore()
	s.dir = identity.NewMemoryDirectory()
	s.sender = notification.NewMemorySender()
	s.cache = &recordingInvalidator{}

	s.adminID = id.NewUserID()
	s.dir.Seed(identity.User{ID: s.adminID, Email: "admin@example.com", Role: identity.RoleAdministrator})

	svc, err := New(s.store, memory.NewMemoryTx(), s.dir,
		WithSender(s.sender),
		WithCacheInvalidator(s.cache),
		WithNow(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) seedMember() id.UserID {
	userID := id.NewUserID()
	s.dir.Seed(identity.User{ID: userID, Email: "applicant@example.com", Role: identity.RoleMember})
	return userID
}

func (s *ServiceSuite) seedApp(status vetting.Status, userID *id.UserID) *vetting.Application {
	app := &vetting.Application{
		ID:                id.NewApplicationID(),
		ApplicationNumber: vetting.FormatApplicationNumber(s.now, 1),
		StatusToken:       id.NewApplicationID().String(),
		UserID:            userID,
		Email:             "applicant@example.com",
		PreferredName:     "Jess",
		Status:            status,
		SubmittedAt:       s.now.Add(-72 * time.Hour),
		UpdatedAt:         s.now.Add(-72 * time.Hour),
	}
	s.Require().NoError(s.store.Create(s.ctx, app))
	return app
}

func (s *ServiceSuite) TestConstructorRequiresDependencies() {
	_, err := New(nil, memory.NewMemoryTx(), s.dir)
	s.Error(err)
	_, err = New(s.store, nil, s.dir)
	s.Error(err)
	_, err = New(s.store, memory.NewMemoryTx(), nil)
	s.Error(err)
}

func (s *ServiceSuite) TestFullWorkflow() {
	userID := s.seedMember()
	app := s.seedApp(vetting.StatusUnderReview, &userID)

	s.Run("approve for interview needs no notes", func() {
		got, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusInterviewApproved, "", s.adminID)
		s.Require().NoError(err)
		s.Equal(vetting.StatusInterviewApproved, got.Status)
		s.Empty(got.AdminNotes)
		s.Nil(got.DecisionMadeAt)
	})

	s.Run("move to final review", func() {
		got, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusFinalReview, "", s.adminID)
		s.Require().NoError(err)
		s.Equal(vetting.StatusFinalReview, got.Status)
	})

	s.Run("approve with notes decides and elevates", func() {
		got, err := s.svc.Approve(s.ctx, app.ID, "references checked", s.adminID)
		s.Require().NoError(err)
		s.Equal(vetting.StatusApproved, got.Status)
		s.Require().NotNil(got.DecisionMadeAt)
		s.Equal(s.now, *got.DecisionMadeAt)
		s.Contains(got.AdminNotes, "Status change to Approved: references checked")

		u, err := s.dir.FindByID(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(identity.RoleVettedMember, u.Role)
	})

	s.Run("each transition wrote exactly one audit entry", func() {
		entries, err := s.store.ListAudit(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 3)
		for _, e := range entries {
			s.Equal(vetting.ActionStatusChanged, e.Action)
			s.Equal(s.adminID, e.PerformedBy)
		}
		s.Equal("UnderReview", entries[0].OldValue)
		s.Equal("InterviewApproved", entries[0].NewValue)
		s.Equal("FinalReview", entries[2].OldValue)
		s.Equal("Approved", entries[2].NewValue)
	})

	s.Run("applicant heard about everything except final review", func() {
		updates := s.sender.StatusUpdates()
		s.Require().Len(updates, 2)
		s.Equal("Interview Approved", updates[0].NewStatus)
		s.Equal("Approved", updates[1].NewStatus)
		s.Equal("Jess", updates[1].RecipientName)
	})

	s.Run("snapshot invalidated on every mutation", func() {
		s.Len(s.cache.users, 3)
		for _, u := range s.cache.users {
			s.Equal(userID, u)
		}
	})
}

func (s *ServiceSuite) TestOnHoldRoundTrip() {
	app := s.seedApp(vetting.StatusUnderReview, nil)

	_, err := s.svc.PutOnHold(s.ctx, app.ID, "waiting on references", s.adminID)
	s.Require().NoError(err)

	got, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusUnderReview, "references arrived", s.adminID)
	s.Require().NoError(err)

	s.Equal(vetting.StatusUnderReview, got.Status)
	s.Contains(got.AdminNotes, "Status change to OnHold: waiting on references")
	s.Contains(got.AdminNotes, "Status change to UnderReview: references arrived")

	entries, err := s.store.ListAudit(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *ServiceSuite) TestRejections() {
	s.Run("unknown application", func() {
		_, err := s.svc.RequestTransition(s.ctx, id.NewApplicationID(), vetting.StatusOnHold, "n", s.adminID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("actor without administrator role", func() {
		app := s.seedApp(vetting.StatusUnderReview, nil)
		member := s.seedMember()

		_, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusInterviewApproved, "", member)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		entries, _ := s.store.ListAudit(s.ctx, app.ID)
		s.Empty(entries)
	})

	s.Run("unknown actor", func() {
		app := s.seedApp(vetting.StatusUnderReview, nil)
		_, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusInterviewApproved, "", id.NewUserID())
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("terminal statuses never change", func() {
		for _, status := range []vetting.Status{vetting.StatusApproved, vetting.StatusDenied, vetting.StatusWithdrawn} {
			app := s.seedApp(status, nil)
			_, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusUnderReview, "reopen please", s.adminID)
			s.True(dErrors.Is(err, dErrors.CodeTerminalState), string(status))

			got, err := s.store.FindByID(s.ctx, app.ID)
			s.Require().NoError(err)
			s.Equal(status, got.Status)
		}
	})

	s.Run("undefined edges rejected", func() {
		app := s.seedApp(vetting.StatusUnderReview, nil)
		for _, target := range []vetting.Status{vetting.StatusApproved, vetting.StatusDenied, vetting.StatusFinalReview} {
			_, err := s.svc.RequestTransition(s.ctx, app.ID, target, "notes", s.adminID)
			s.True(dErrors.Is(err, dErrors.CodeInvalidTransition), string(target))
		}
	})

	s.Run("missing notes leave no trace", func() {
		app := s.seedApp(vetting.StatusUnderReview, nil)
		for _, notes := range []string{"", "   ", "\n\t"} {
			_, err := s.svc.PutOnHold(s.ctx, app.ID, notes, s.adminID)
			s.True(dErrors.Is(err, dErrors.CodeNotesRequired))
		}

		got, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(vetting.StatusUnderReview, got.Status)
		s.Empty(got.AdminNotes)

		entries, err := s.store.ListAudit(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})
}

func (s *ServiceSuite) TestApproveWithoutLinkedUserSkipsElevation() {
	app := s.seedApp(vetting.StatusFinalReview, nil)

	got, err := s.svc.Approve(s.ctx, app.ID, "approved on paper record", s.adminID)
	s.Require().NoError(err)
	s.Equal(vetting.StatusApproved, got.Status)
	s.Empty(s.cache.users)
}

func (s *ServiceSuite) TestElevationFailureBlocksApproval() {
	ctrl := gomock.NewController(s.T())
	dir := mocks.NewMockDirectory(ctrl)

	userID := id.NewUserID()
	app := s.seedApp(vetting.StatusFinalReview, &userID)

	dir.EXPECT().FindByID(gomock.Any(), s.adminID).
		Return(&identity.User{ID: s.adminID, Role: identity.RoleAdministrator}, nil)
	dir.EXPECT().ElevateToVettedMember(gomock.Any(), userID).
		Return(errors.New("directory unavailable"))

	svc, err := New(s.store, memory.NewMemoryTx(), dir,
		WithNow(func() time.Time { return s.now }))
	s.Require().NoError(err)

	_, err = svc.Approve(s.ctx, app.ID, "looks good", s.adminID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInternal))

	got, err := s.store.FindByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(vetting.StatusFinalReview, got.Status)
	s.Empty(got.AdminNotes)

	entries, err := s.store.ListAudit(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ServiceSuite) TestNotificationFailureDoesNotFailTransition() {
	app := s.seedApp(vetting.StatusUnderReview, nil)
	s.sender.FailWith = errors.New("smtp relay down")

	got, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusInterviewApproved, "", s.adminID)
	s.Require().NoError(err)
	s.Equal(vetting.StatusInterviewApproved, got.Status)

	entries, err := s.store.ListAudit(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *ServiceSuite) TestNoNotificationForFinalReview() {
	app := s.seedApp(vetting.StatusInterviewApproved, nil)

	_, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusFinalReview, "", s.adminID)
	s.Require().NoError(err)
	s.Empty(s.sender.StatusUpdates())
}

func (s *ServiceSuite) TestRecipientNameFallsBackToEmail() {
	app := s.seedApp(vetting.StatusUnderReview, nil)
	app.PreferredName = ""
	app.Email = "jess.doe@example.com"
	s.Require().NoError(s.store.Update(s.ctx, app, app.Status))

	_, err := s.svc.RequestTransition(s.ctx, app.ID, vetting.StatusInterviewApproved, "", s.adminID)
	s.Require().NoError(err)

	updates := s.sender.StatusUpdates()
	s.Require().Len(updates, 1)
	s.NotEmpty(updates[0].RecipientName)
	s.NotEqual("jess.doe@example.com", updates[0].RecipientName)
}

func (s *ServiceSuite) TestAdminReads() {
	app := s.seedApp(vetting.StatusUnderReview, nil)
	member := s.seedMember()

	s.Run("get application requires administrator", func() {
		_, err := s.svc.GetApplication(s.ctx, app.ID, member)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		got, err := s.svc.GetApplication(s.ctx, app.ID, s.adminID)
		s.Require().NoError(err)
		s.Equal(app.ID, got.ID)
	})

	s.Run("audit trail requires administrator", func() {
		_, err := s.svc.AuditTrail(s.ctx, app.ID, member)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		_, err = s.svc.AuditTrail(s.ctx, id.NewApplicationID(), s.adminID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}
