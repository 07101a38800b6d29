package models

import "github.com/google/uuid"

// LossEvent records a realized loss. The narrative may contain
// patient-identifying detail, so it is stored age-encrypted; handlers decrypt
// on read.
type LossEvent struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`

	OccurredAt int64   `gorm:"index" json:"occurred_at"` // unix seconds
	Category   string  `gorm:"index" json:"category,omitempty"`
	Amount     float64 `json:"amount"`

	// Narrative holds the base64 age ciphertext, never serialized raw.
	Narrative string `gorm:"type:text" json:"-"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (LossEvent) TableName() string {
	return "loss_events"
}

func (e *LossEvent) OwnerOrganization() uuid.UUID {
	return e.OrganizationID
}
