// Package identity exposes the role directory the vetting engine consults
// for privilege checks and role elevation. Account lifecycle (registration,
// sessions) lives elsewhere; the engine only reads roles and grants the
// vetted-member privilege.
package identity

import (
	"time"

	id "membergate/pkg/domain"
)

// Role is the privilege level of a platform account.
type Role string

const (
	RoleGuest         Role = "guest"
	RoleMember        Role = "member"
	RoleVettedMember  Role = "vetted_member"
	RoleAdministrator Role = "administrator"
)

// IsAdministrative reports whether the role may drive the vetting workflow.
func (r Role) IsAdministrative() bool {
	return r == RoleAdministrator
}

// User is the directory's view of an account.
type User struct {
	ID          id.UserID
	Email       string
	DisplayName string
	Role        Role
	UpdatedAt   time.Time
}
