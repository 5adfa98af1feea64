package types

import (
	"time"

	"github.com/google/uuid"
)

// Sample is one physical specimen tracked from collection until its data is
// incorporated into the flow computer. Expected milestone dates are frozen
// when the sample enters the Sampled phase; actual dates are filled in as
// events occur. DueDate always mirrors the expected date of the next
// milestone for the current phase unless a caller supplied an override.
type Sample struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SampleID      string       `gorm:"column:sample_id;uniqueIndex;not null" json:"sample_id"`
	Type          string       `gorm:"column:type;not null" json:"type"`
	Status        SamplePhase  `gorm:"column:status;not null;default:'Planned';index" json:"status"`
	Responsible   string       `gorm:"column:responsible" json:"responsible"`
	SamplePointID uuid.UUID    `gorm:"type:uuid;not null;index" json:"sample_point_id"`
	SamplePoint   *SamplePoint `gorm:"constraint:OnDelete:RESTRICT;foreignKey:SamplePointID;references:ID" json:"sample_point,omitempty"`

	OSMID       string `gorm:"column:osm_id" json:"osm_id"`
	LaudoNumber string `gorm:"column:laudo_number" json:"laudo_number"`
	Mitigated   bool   `gorm:"column:mitigated;not null;default:false" json:"mitigated"`

	PlannedDate  *time.Time `gorm:"column:planned_date" json:"planned_date"`
	SamplingDate *time.Time `gorm:"column:sampling_date" json:"sampling_date"`

	DisembarkExpectedDate *time.Time `gorm:"column:disembark_expected_date" json:"disembark_expected_date"`
	DisembarkDate         *time.Time `gorm:"column:disembark_date" json:"disembark_date"`
	LabExpectedDate       *time.Time `gorm:"column:lab_expected_date" json:"lab_expected_date"`
	DeliveryDate          *time.Time `gorm:"column:delivery_date" json:"delivery_date"`
	ReportExpectedDate    *time.Time `gorm:"column:report_expected_date" json:"report_expected_date"`
	ReportIssueDate       *time.Time `gorm:"column:report_issue_date" json:"report_issue_date"`
	FCExpectedDate        *time.Time `gorm:"column:fc_expected_date" json:"fc_expected_date"`
	FCUpdateDate          *time.Time `gorm:"column:fc_update_date" json:"fc_update_date"`

	DueDate *time.Time `gorm:"column:due_date;index" json:"due_date"`

	ValidationStatus *ValidationOutcome `gorm:"column:validation_status" json:"validation_status"`
	LabReportURL     string             `gorm:"column:lab_report_url" json:"lab_report_url"`
	Notes            string             `gorm:"column:notes" json:"notes"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Sample) TableName() string { return "sample" }

// DueDateSource returns the expected-date field whose current value becomes
// the sample's due date while it sits in the given phase. The mapping is
// fixed:
//
//	Planned                                      -> planned_date
//	Sampled, Disembark preparation/logistics     -> disembark_expected_date
//	Warehouse, Logistics to vendor               -> lab_expected_date
//	Delivered at vendor, Report issued/validation -> report_expected_date
//	Report approved/reproved, Flow computer updated -> fc_expected_date
//
// The returned pointer may be nil when the milestone is not yet known.
func (s *Sample) DueDateSource(phase SamplePhase) *time.Time {
	switch phase {
	case PhasePlanned:
		return s.PlannedDate
	case PhaseSampled, PhaseDisembarkPreparation, PhaseDisembarkLogistics:
		return s.DisembarkExpectedDate
	case PhaseWarehouse, PhaseLogisticsToVendor:
		return s.LabExpectedDate
	case PhaseDeliveredAtVendor, PhaseReportIssued, PhaseReportUnderValidation:
		return s.ReportExpectedDate
	case PhaseReportApprovedReproved, PhaseFlowComputerUpdated:
		return s.FCExpectedDate
	}
	return nil
}
