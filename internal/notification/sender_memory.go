package notification

import (
	"context"
	"sync"
)

// MemorySender records messages for tests and single-process dev runs.
type MemorySender struct {
	mu         sync.Mutex
	statuses   []StatusUpdate
	interviews []InterviewInvite

	// FailWith, when set, is returned from every send. Lets tests exercise
	// the engine's swallow-and-log path.
	FailWith error
}

func NewMemorySender() *MemorySender { return &MemorySender{} }

func (s *MemorySender) SendStatusUpdate(_ context.Context, msg StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.statuses = append(s.statuses, msg)
	return nil
}

func (s *MemorySender) SendInterviewScheduled(_ context.Context, msg InterviewInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.interviews = append(s.interviews, msg)
	return nil
}

// StatusUpdates returns a copy of the recorded status messages.
func (s *MemorySender) StatusUpdates() []StatusUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StatusUpdate{}, s.statuses...)
}

// InterviewInvites returns a copy of the recorded interview messages.
func (s *MemorySender) InterviewInvites() []InterviewInvite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InterviewInvite{}, s.interviews...)
}
