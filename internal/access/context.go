// Package access builds the per-request access context and derives the row
// scoping applied to every organization-owned query. Handlers never touch the
// database without one: the scoped Store is the only data path, so an
// unscoped read or write is a compile-time impossibility rather than a
// forgotten filter call.
package access

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers both a missing row and a row outside the caller's
	// scope; the two are deliberately indistinguishable so out-of-scope ids
	// leak nothing.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when a caller names an organization outside
	// their memberships.
	ErrForbidden = errors.New("organization not accessible")
)

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleUser       Role = "user"
	RoleViewer     Role = "viewer"
	RoleUnknown    Role = "unknown"
)

// ParseRole maps a stored role literal to its enum value. Unrecognized
// literals resolve to RoleUnknown rather than failing.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSuperadmin, RoleAdmin, RoleManager, RoleUser, RoleViewer:
		return Role(s)
	}
	return RoleUnknown
}

// Principal is a verified caller identity.
type Principal struct {
	ID    uuid.UUID
	Email string
}

// Context is the immutable per-request access bundle. Built once by the
// Resolver after token verification and consumed by everything downstream.
type Context struct {
	Principal       Principal
	OrganizationIDs []uuid.UUID
	Role            Role
	IsSuperAdmin    bool
}

// CanAccess reports whether the caller may touch rows owned by orgID.
// Superadmin access is unconditional regardless of memberships.
func (c *Context) CanAccess(orgID uuid.UUID) bool {
	if c.IsSuperAdmin {
		return true
	}
	for _, id := range c.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}

// SoleOrganization returns the caller's organization when they belong to
// exactly one; ok is false otherwise (zero or several memberships, or
// superadmin, where a target must be named explicitly).
func (c *Context) SoleOrganization() (uuid.UUID, bool) {
	if c.IsSuperAdmin || len(c.OrganizationIDs) != 1 {
		return uuid.Nil, false
	}
	return c.OrganizationIDs[0], true
}
