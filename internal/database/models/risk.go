package models

import (
	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/risk"
)

type RiskStatus string

const (
	RiskStatusOpen      RiskStatus = "open"
	RiskStatusMitigated RiskStatus = "mitigated"
	RiskStatusAccepted  RiskStatus = "accepted"
	RiskStatusClosed    RiskStatus = "closed"
)

// RiskAnalysis is one classification snapshot. A risk carries two: inherent
// (before mitigation) and residual (after). The value/level pair is derived
// from probability/impact and recomputed on every write.
type RiskAnalysis struct {
	Probability int        `json:"probability"`
	Impact      int        `json:"impact"`
	Value       int        `json:"value"`
	Level       risk.Level `json:"level"`
}

type Risk struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`

	Title    string     `gorm:"not null" json:"title"`
	Category string     `gorm:"index" json:"category,omitempty"` // clinical, operational, financial, ...
	Owner    string     `json:"owner,omitempty"`
	Status   RiskStatus `gorm:"not null;index;default:'open'" json:"status"`

	Inherent RiskAnalysis `gorm:"embedded;embeddedPrefix:inherent_" json:"inherent"`
	Residual RiskAnalysis `gorm:"embedded;embeddedPrefix:residual_" json:"residual"`

	// ProbabilityPercentage is the reference band for the inherent
	// probability index, stored for display.
	ProbabilityPercentage string  `json:"probability_percentage,omitempty"`
	FinancialImpact       float64 `json:"financial_impact,omitempty"`

	// RiskAppetite is the threshold the residual value is compared against.
	RiskAppetite int `gorm:"default:0" json:"risk_appetite,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Risk) TableName() string {
	return "risks"
}

func (r *Risk) OwnerOrganization() uuid.UUID {
	return r.OrganizationID
}

// AppetiteBreached reports whether the residual value exceeds the appetite
// threshold. Zero appetite means no threshold was set.
func (r *Risk) AppetiteBreached() bool {
	return r.RiskAppetite > 0 && r.Residual.Value > r.RiskAppetite
}
