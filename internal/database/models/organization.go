package models

import "github.com/google/uuid"

type Organization struct {
	Base
	Name string `gorm:"not null" json:"name"`
	Code string `gorm:"uniqueIndex;not null" json:"code"`

	// Relationships
	Memberships []OrgMembership      `gorm:"foreignKey:OrganizationID" json:"-"`
	Risks       []Risk               `gorm:"foreignKey:OrganizationID" json:"-"`
	Objectives  []StrategicObjective `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

// OrgMembership relates a user to an organization. A user may belong to
// several organizations; visibility is the union of them.
type OrgMembership struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"organization_id"`
	Role           string    `gorm:"not null;default:'member'" json:"role"` // owner, admin, member
}

func (OrgMembership) TableName() string {
	return "org_memberships"
}
