package types

import (
	"time"

	"github.com/google/uuid"
)

// SamplePoint is a fixed physical location on an FPSO from which fluid
// specimens are drawn. Identity fields (tag, FPSO, classification, analysis
// type, local) are immutable after creation; only descriptive fields change.
type SamplePoint struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TagNumber      string    `gorm:"column:tag_number;not null;index" json:"tag_number"`
	FPSOName       string    `gorm:"column:fpso_name;not null;index" json:"fpso_name"`
	FluidType      string    `gorm:"column:fluid_type" json:"fluid_type"`
	AnalysisType   string    `gorm:"column:analysis_type;not null" json:"analysis_type"`
	Classification string    `gorm:"column:classification;not null" json:"classification"`
	Local          string    `gorm:"column:local;not null;default:'Onshore'" json:"local"`
	Description    string    `gorm:"column:description" json:"description"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SamplePoint) TableName() string { return "sample_point" }
