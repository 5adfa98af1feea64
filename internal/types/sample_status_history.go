package types

import (
	"time"

	"github.com/google/uuid"
)

// SampleStatusHistory is the append-only audit trail of phase transitions.
// One row is written per Transition call, even when the phase is unchanged.
// Rows are never updated or deleted.
type SampleStatusHistory struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SampleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_id"`
	Sample   *Sample   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SampleID;references:ID" json:"sample,omitempty"`

	Status    SamplePhase `gorm:"column:status;not null" json:"status"`
	Comments  string      `gorm:"column:comments" json:"comments"`
	ChangedBy string      `gorm:"column:changed_by" json:"changed_by"`
	CreatedAt time.Time   `gorm:"not null;default:now();index" json:"created_at"`
}

func (SampleStatusHistory) TableName() string { return "sample_status_history" }
