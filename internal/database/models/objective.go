package models

import (
	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/strategy"
)

// StrategicObjective is a balanced-scorecard objective. StrategyID and
// Confidence are derived by the correlation engine and recomputed on demand;
// they are never edited directly.
type StrategicObjective struct {
	Base
	OrganizationID uuid.UUID            `gorm:"type:uuid;index;not null" json:"organization_id"`
	Text           string               `gorm:"not null" json:"text"`
	Perspective    strategy.Perspective `gorm:"not null;index" json:"perspective"`

	StrategyID *uuid.UUID `gorm:"type:uuid;index" json:"strategy_id,omitempty"`
	Confidence int        `gorm:"default:0" json:"confidence,omitempty"` // 0-100

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Strategy     *TowsStrategy `gorm:"foreignKey:StrategyID" json:"strategy,omitempty"`
}

func (StrategicObjective) TableName() string {
	return "strategic_objectives"
}

func (o *StrategicObjective) OwnerOrganization() uuid.UUID {
	return o.OrganizationID
}
