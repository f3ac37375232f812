package service

import (
	"errors"
	"time"

	"membergate/internal/vetting"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

func (s *ServiceSuite) TestScheduleInterview() {
	userID := s.seedMember()
	when := s.now.Add(7 * 24 * time.Hour)

	s.Run("records time, place, and an audit entry", func() {
		app := s.seedApp(vetting.StatusInterviewApproved, &userID)

		got, err := s.svc.ScheduleInterview(s.ctx, app.ID, when, "Community Hall, Room 2", s.adminID)
		s.Require().NoError(err)
		s.Require().NotNil(got.InterviewAt)
		s.Equal(when, *got.InterviewAt)
		s.Equal("Community Hall, Room 2", got.InterviewLocation)
		s.Equal(vetting.StatusInterviewApproved, got.Status, "scheduling does not move the workflow")

		entries, err := s.store.ListAudit(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(vetting.ActionInterviewScheduled, entries[0].Action)
		s.Equal(when.Format(time.RFC3339), entries[0].NewValue)
		s.Equal(s.adminID, entries[0].PerformedBy)

		invites := s.sender.InterviewInvites()
		s.Require().Len(invites, 1)
		s.Equal("Community Hall, Room 2", invites[0].Location)
		s.Equal(when.Format(time.RFC3339), invites[0].ScheduledForUTC)

		s.Contains(s.cache.users, userID)
	})

	s.Run("rejects a date that is not in the future", func() {
		app := s.seedApp(vetting.StatusInterviewApproved, nil)
		for _, bad := range []time.Time{s.now, s.now.Add(-time.Hour)} {
			_, err := s.svc.ScheduleInterview(s.ctx, app.ID, bad, "Community Hall", s.adminID)
			s.True(dErrors.Is(err, dErrors.CodeInvalidInterviewDate))
		}

		got, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Nil(got.InterviewAt)
	})

	s.Run("rejects a blank location", func() {
		app := s.seedApp(vetting.StatusInterviewApproved, nil)
		for _, bad := range []string{"", "   "} {
			_, err := s.svc.ScheduleInterview(s.ctx, app.ID, when, bad, s.adminID)
			s.True(dErrors.Is(err, dErrors.CodeInterviewLocationRequired))
		}
	})

	s.Run("rejects terminal applications", func() {
		app := s.seedApp(vetting.StatusDenied, nil)
		_, err := s.svc.ScheduleInterview(s.ctx, app.ID, when, "Community Hall", s.adminID)
		s.True(dErrors.Is(err, dErrors.CodeTerminalState))
	})

	s.Run("requires an administrator", func() {
		app := s.seedApp(vetting.StatusInterviewApproved, nil)
		member := s.seedMember()
		_, err := s.svc.ScheduleInterview(s.ctx, app.ID, when, "Community Hall", member)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("unknown application", func() {
		_, err := s.svc.ScheduleInterview(s.ctx, id.NewApplicationID(), when, "Community Hall", s.adminID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("invite failure does not undo the schedule", func() {
		app := s.seedApp(vetting.StatusInterviewApproved, nil)
		s.sender.FailWith = errors.New("mailer offline")
		defer func() { s.sender.FailWith = nil }()

		got, err := s.svc.ScheduleInterview(s.ctx, app.ID, when, "Community Hall", s.adminID)
		s.Require().NoError(err)
		s.NotNil(got.InterviewAt)
	})
}
