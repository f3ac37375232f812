package identity

import (
	"context"
	"sync"

	id "membergate/pkg/domain"
)

// MemoryDirectory is an in-memory Directory for tests and dev runs.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[id.UserID]*User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[id.UserID]*User)}
}

// Seed inserts or replaces a user record.
func (d *MemoryDirectory) Seed(user User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := user
	d.users[user.ID] = &u
}

func (d *MemoryDirectory) FindByID(_ context.Context, userID id.UserID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (d *MemoryDirectory) ElevateToVettedMember(_ context.Context, userID id.UserID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return ErrNotFound
	}
	switch u.Role {
	case RoleVettedMember, RoleAdministrator:
		// Already at or above the granted privilege.
	default:
		u.Role = RoleVettedMember
	}
	return nil
}
