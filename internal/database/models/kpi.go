package models

import (
	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/risk"
)

// KPI tracks realization against a target. Percentage and Status are derived
// from Realization/Target and recomputed whenever either changes.
type KPI struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`

	Name   string  `gorm:"not null" json:"name"`
	Unit   string  `json:"unit,omitempty"` // %, count, days, ...
	Target float64 `json:"target"`

	// Realization is nil until a value is reported.
	Realization *float64               `json:"realization,omitempty"`
	Percentage  float64                `json:"percentage"`
	Status      risk.AchievementStatus `gorm:"index;default:'not_yet_realized'" json:"status"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (KPI) TableName() string {
	return "kpis"
}

func (k *KPI) OwnerOrganization() uuid.UUID {
	return k.OrganizationID
}
