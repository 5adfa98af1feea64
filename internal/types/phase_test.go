package types

import (
	"testing"
	"time"
)

func TestParseSamplePhase(t *testing.T) {
	for _, phase := range PhaseOrder {
		parsed, err := ParseSamplePhase(string(phase))
		if err != nil {
			t.Fatalf("phase %q: unexpected error: %v", phase, err)
		}
		if parsed != phase {
			t.Fatalf("phase %q: got %q", phase, parsed)
		}
	}
	if _, err := ParseSamplePhase("Em trânsito"); err == nil {
		t.Fatalf("expected error for unknown phase")
	}
}

func TestTerminal(t *testing.T) {
	for _, phase := range PhaseOrder {
		want := phase == PhaseFlowComputerUpdated
		if phase.Terminal() != want {
			t.Fatalf("phase %q: expected Terminal()=%v", phase, want)
		}
	}
}

func TestDueDateSource_CoversEveryPhase(t *testing.T) {
	planned := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	disembark := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	lab := time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC)
	report := time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC)
	fc := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	sample := &Sample{
		PlannedDate:           &planned,
		DisembarkExpectedDate: &disembark,
		LabExpectedDate:       &lab,
		ReportExpectedDate:    &report,
		FCExpectedDate:        &fc,
	}

	want := map[SamplePhase]time.Time{
		PhasePlanned:                planned,
		PhaseSampled:                disembark,
		PhaseDisembarkPreparation:   disembark,
		PhaseDisembarkLogistics:     disembark,
		PhaseWarehouse:              lab,
		PhaseLogisticsToVendor:      lab,
		PhaseDeliveredAtVendor:      report,
		PhaseReportIssued:           report,
		PhaseReportUnderValidation:  report,
		PhaseReportApprovedReproved: fc,
		PhaseFlowComputerUpdated:    fc,
	}
	for _, phase := range PhaseOrder {
		got := sample.DueDateSource(phase)
		if got == nil || !got.Equal(want[phase]) {
			t.Fatalf("phase %q: expected %v, got %v", phase, want[phase], got)
		}
	}
}

func TestDueDateSource_NilWhenMilestoneUnknown(t *testing.T) {
	sample := &Sample{}
	for _, phase := range PhaseOrder {
		if sample.DueDateSource(phase) != nil {
			t.Fatalf("phase %q: expected nil before milestones are known", phase)
		}
	}
}
