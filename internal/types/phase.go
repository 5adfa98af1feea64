package types

import "fmt"

// SamplePhase is the closed set of lifecycle phases a sample moves through.
// The order below is the conventional flow shown on the tracking screen;
// transitions are not restricted to adjacent phases.
type SamplePhase string

const (
	PhasePlanned                SamplePhase = "Planned"
	PhaseSampled                SamplePhase = "Sampled"
	PhaseDisembarkPreparation   SamplePhase = "Disembark preparation"
	PhaseDisembarkLogistics     SamplePhase = "Disembark logistics"
	PhaseWarehouse              SamplePhase = "Warehouse"
	PhaseLogisticsToVendor      SamplePhase = "Logistics to vendor"
	PhaseDeliveredAtVendor      SamplePhase = "Delivered at vendor"
	PhaseReportIssued           SamplePhase = "Report issued"
	PhaseReportUnderValidation  SamplePhase = "Report under validation"
	PhaseReportApprovedReproved SamplePhase = "Report approved/reproved"
	PhaseFlowComputerUpdated    SamplePhase = "Flow computer updated"
)

// PhaseOrder lists every phase in conventional lifecycle order.
var PhaseOrder = []SamplePhase{
	PhasePlanned,
	PhaseSampled,
	PhaseDisembarkPreparation,
	PhaseDisembarkLogistics,
	PhaseWarehouse,
	PhaseLogisticsToVendor,
	PhaseDeliveredAtVendor,
	PhaseReportIssued,
	PhaseReportUnderValidation,
	PhaseReportApprovedReproved,
	PhaseFlowComputerUpdated,
}

func ParseSamplePhase(raw string) (SamplePhase, error) {
	p := SamplePhase(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown sample phase %q", raw)
	}
	return p, nil
}

func (p SamplePhase) Valid() bool {
	for _, known := range PhaseOrder {
		if p == known {
			return true
		}
	}
	return false
}

func (p SamplePhase) Terminal() bool {
	return p == PhaseFlowComputerUpdated
}

func (p SamplePhase) String() string {
	return string(p)
}

// ValidationOutcome is the overall verdict recorded on a sample after its
// lab report has been validated.
type ValidationOutcome string

const (
	OutcomeApproved ValidationOutcome = "Approved"
	OutcomeReproved ValidationOutcome = "Reproved"
)

func ParseValidationOutcome(raw string) (ValidationOutcome, error) {
	switch ValidationOutcome(raw) {
	case OutcomeApproved, OutcomeReproved:
		return ValidationOutcome(raw), nil
	}
	return "", fmt.Errorf("unknown validation outcome %q", raw)
}

// CheckStatus is the per-parameter verdict of a single validation check.
type CheckStatus string

const (
	CheckPass             CheckStatus = "pass"
	CheckFail             CheckStatus = "fail"
	CheckWarning          CheckStatus = "warning"
	CheckInsufficientData CheckStatus = "insufficient_data"
)
