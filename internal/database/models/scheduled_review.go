package models

import "github.com/google/uuid"

// ScheduledReview triggers periodic recomputation of an organization's
// derived data (risk classifications and objective correlations) on a cron
// schedule.
type ScheduledReview struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`

	Name      string `gorm:"not null" json:"name"`
	CronExpr  string `gorm:"not null" json:"cron_expr"` // standard 5-field cron
	IsEnabled bool   `gorm:"default:true" json:"is_enabled"`

	NextRunAt int64 `gorm:"index" json:"next_run_at"`
	LastRunAt int64 `json:"last_run_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (ScheduledReview) TableName() string {
	return "scheduled_reviews"
}

func (r *ScheduledReview) OwnerOrganization() uuid.UUID {
	return r.OrganizationID
}
