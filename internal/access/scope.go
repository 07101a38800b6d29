package access

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnerColumn is the organization-owning column shared by every scoped table.
const OwnerColumn = "organization_id"

// Scope returns the row-filtering predicate for a caller:
//
//	superadmin            -> unrestricted, no filter added
//	member of >=1 org     -> ownerColumn IN (organization ids)
//	member of no org      -> ownerColumn = nil UUID, matching zero rows
//
// The empty-membership case is a valid terminal state (a user not yet
// assigned to any organization sees empty collections), never an error.
func Scope(ac *Context, ownerColumn string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if ac.IsSuperAdmin {
			return tx
		}
		if len(ac.OrganizationIDs) == 0 {
			return tx.Where(fmt.Sprintf("%s = ?", ownerColumn), uuid.Nil)
		}
		return tx.Where(fmt.Sprintf("%s IN ?", ownerColumn), ac.OrganizationIDs)
	}
}
