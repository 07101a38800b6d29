package models

import (
	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/strategy"
)

// TowsStrategy is a catalog entry produced by the SWOT workflow: a strategic
// response derived from pairing SWOT factors.
type TowsStrategy struct {
	Base
	OrganizationID uuid.UUID     `gorm:"type:uuid;index;not null" json:"organization_id"`
	Type           strategy.Type `gorm:"not null;index" json:"type"` // SO, WO, ST, WT
	Text           string        `gorm:"not null" json:"text"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (TowsStrategy) TableName() string {
	return "tows_strategies"
}

func (s *TowsStrategy) OwnerOrganization() uuid.UUID {
	return s.OrganizationID
}
