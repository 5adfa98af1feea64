package types

import (
	"time"

	"github.com/google/uuid"
)

type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "Info"
	AlertWarning  AlertSeverity = "Warning"
	AlertCritical AlertSeverity = "Critical"
)

// Alert flags a sample whose next milestone is overdue. Produced by the
// overdue sweep; cleared by acknowledgement, not deletion.
type Alert struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SampleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_id"`
	Sample   *Sample   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SampleID;references:ID" json:"sample,omitempty"`

	Severity       AlertSeverity `gorm:"column:severity;not null;default:'Warning'" json:"severity"`
	Type           string        `gorm:"column:type;not null" json:"type"`
	Message        string        `gorm:"column:message;not null" json:"message"`
	Acknowledged   bool          `gorm:"column:acknowledged;not null;default:false;index" json:"acknowledged"`
	AcknowledgedBy string        `gorm:"column:acknowledged_by" json:"acknowledged_by"`
	AcknowledgedAt *time.Time    `gorm:"column:acknowledged_at" json:"acknowledged_at"`
	CreatedAt      time.Time     `gorm:"not null;default:now()" json:"created_at"`
}

func (Alert) TableName() string { return "alert" }
