// Package memory provides the in-process application store used by tests
// and single-node development runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"membergate/internal/vetting"
	id "membergate/pkg/domain"
	dErrors "membergate/pkg/domain-errors"
)

// InMemoryStore keeps applications and audit entries in maps guarded by a
// single RWMutex. Returned records are copies; callers never share memory
// with the store.
type InMemoryStore struct {
	mu        sync.RWMutex
	apps      map[id.ApplicationID]vetting.Application
	audit     map[id.ApplicationID][]vetting.AuditLog
	nextAudit int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		apps:      make(map[id.ApplicationID]vetting.Application),
		audit:     make(map[id.ApplicationID][]vetting.AuditLog),
		nextAudit: 1,
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, appID id.ApplicationID) (*vetting.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[appID]
	if !ok {
		return nil, vetting.ErrNotFound
	}
	return &app, nil
}

func (s *InMemoryStore) FindByUserID(_ context.Context, userID id.UserID) (*vetting.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *vetting.Application
	for _, app := range s.apps {
		if app.UserID == nil || *app.UserID != userID {
			continue
		}
		if latest == nil || app.SubmittedAt.After(latest.SubmittedAt) {
			a := app
			latest = &a
		}
	}
	if latest == nil {
		return nil, vetting.ErrNotFound
	}
	return latest, nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, token string) (*vetting.Application, error) {
	if token == "" {
		return nil, vetting.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.apps {
		if app.StatusToken == token {
			a := app
			return &a, nil
		}
	}
	return nil, vetting.ErrNotFound
}

func (s *InMemoryStore) Create(_ context.Context, app *vetting.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.apps[app.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "application already exists")
	}
	s.apps[app.ID] = *app
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, app *vetting.Application, expectedStatus vetting.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.apps[app.ID]
	if !exists {
		return vetting.ErrNotFound
	}
	if current.Status != expectedStatus {
		return vetting.ErrModifiedConcurrently
	}
	s.apps[app.ID] = *app
	return nil
}

func (s *InMemoryStore) AppendAudit(_ context.Context, entry *vetting.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	e.ID = s.nextAudit
	s.nextAudit++
	entry.ID = e.ID
	s.audit[e.ApplicationID] = append(s.audit[e.ApplicationID], e)
	return nil
}

func (s *InMemoryStore) ListAudit(_ context.Context, appID id.ApplicationID) ([]vetting.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]vetting.AuditLog{}, s.audit[appID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// defaultTxTimeout caps how long an in-memory unit of work may hold the lock.
const defaultTxTimeout = 5 * time.Second

// MemoryTx serializes units of work with a single mutex. Coarse, but the
// in-memory store only ever backs tests and dev runs.
type MemoryTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMemoryTx() *MemoryTx { return &MemoryTx{} }

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
