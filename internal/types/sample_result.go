package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SampleResult is one persisted validation check for one parameter of a
// sample's lab report. The full set for a sample is replaced atomically on
// every (re-)validation; rows are never updated in place.
type SampleResult struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SampleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_id"`
	Sample   *Sample   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SampleID;references:ID" json:"sample,omitempty"`

	Parameter string      `gorm:"column:parameter;not null;index" json:"parameter"`
	Value     float64     `gorm:"column:value;not null" json:"value"`
	Unit      string      `gorm:"column:unit" json:"unit"`
	Status    CheckStatus `gorm:"column:status;not null" json:"status"`
	Detail    string      `gorm:"column:detail" json:"detail"`

	HistoryMean   *float64                     `gorm:"column:history_mean" json:"history_mean"`
	HistoryStd    *float64                     `gorm:"column:history_std" json:"history_std"`
	LowerBound    *float64                     `gorm:"column:lower_bound" json:"lower_bound"`
	UpperBound    *float64                     `gorm:"column:upper_bound" json:"upper_bound"`
	HistoryValues datatypes.JSONSlice[float64] `gorm:"column:history_values" json:"history_values"`
	HistoryDates  datatypes.JSONSlice[string]  `gorm:"column:history_dates" json:"history_dates"`

	Boletim      string `gorm:"column:boletim" json:"boletim"`
	LabReportURL string `gorm:"column:lab_report_url" json:"lab_report_url"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (SampleResult) TableName() string { return "sample_result" }
