package models

import "github.com/google/uuid"

type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`

	// Role is the user's explicit role record. Empty means no explicit
	// record; resolution falls back to the configured default.
	Role     string `gorm:"index" json:"role"` // superadmin, admin, manager, user, viewer
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// OrganizationID is the user's primary organization (set at registration).
	OrganizationID uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`

	// Relationships
	Organization *Organization   `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Memberships  []OrgMembership `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
