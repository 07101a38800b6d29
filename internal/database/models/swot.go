package models

import "github.com/google/uuid"

type SwotKind string

const (
	SwotStrength    SwotKind = "strength"
	SwotWeakness    SwotKind = "weakness"
	SwotOpportunity SwotKind = "opportunity"
	SwotThreat      SwotKind = "threat"
)

// SwotFactor is one raw entry in the factor inventory feeding TOWS strategy
// formulation.
type SwotFactor struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Kind           SwotKind  `gorm:"not null;index" json:"kind"`
	Description    string    `gorm:"not null" json:"description"`
	Weight         int       `gorm:"default:1" json:"weight"` // 1-5 relative importance

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (SwotFactor) TableName() string {
	return "swot_factors"
}

func (f *SwotFactor) OwnerOrganization() uuid.UUID {
	return f.OrganizationID
}
