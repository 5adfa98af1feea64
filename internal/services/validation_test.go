package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/viniciosgnr/MMT/internal/db/testdb"
	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/types"
	"gorm.io/gorm"
)

func newValidationFixture(t *testing.T) (*gorm.DB, ValidationService) {
	t.Helper()
	db := testdb.Open(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	resultRepo := repos.NewSampleResultRepo(db, log)
	historySvc := NewHistoryService(db, log, resultRepo)
	return db, NewValidationService(db, log, historySvc)
}

func seedPoint(t *testing.T, db *gorm.DB) *types.SamplePoint {
	t.Helper()
	point := &types.SamplePoint{
		ID:             uuid.New(),
		TagNumber:      "662-AP-2233",
		FPSOName:       "Sepetiba",
		FluidType:      "Óleo",
		AnalysisType:   "PVT",
		Classification: "Apropriation",
		Local:          "Onshore",
	}
	if err := db.Create(point).Error; err != nil {
		t.Fatalf("seed sample point: %v", err)
	}
	return point
}

func seedSample(t *testing.T, db *gorm.DB, pointID uuid.UUID, sampleID string) *types.Sample {
	t.Helper()
	samplingDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	sample := &types.Sample{
		ID:            uuid.New(),
		SampleID:      sampleID,
		Type:          "Óleo",
		Status:        types.PhaseReportUnderValidation,
		SamplePointID: pointID,
		SamplingDate:  &samplingDate,
	}
	if err := db.Create(sample).Error; err != nil {
		t.Fatalf("seed sample: %v", err)
	}
	return sample
}

// seedHistory inserts n prior validated readings of parameter at the point,
// one sample each, with strictly increasing created_at.
func seedHistory(t *testing.T, db *gorm.DB, pointID uuid.UUID, parameter string, values []float64) {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		sample := seedSample(t, db, pointID, fmt.Sprintf("HIST-%s-%03d", parameter, i))
		result := &types.SampleResult{
			ID:        uuid.New(),
			SampleID:  sample.ID,
			Parameter: parameter,
			Value:     v,
			Unit:      UnitDensity,
			Status:    types.CheckPass,
			CreatedAt: base.AddDate(0, 0, i),
		}
		if err := db.Create(result).Error; err != nil {
			t.Fatalf("seed history result: %v", err)
		}
	}
}

func TestValidate_BootstrapBaselineAlwaysPasses(t *testing.T) {
	db, validator := newValidationFixture(t)
	point := seedPoint(t, db)
	sample := seedSample(t, db, point.ID, "AM-2026-001")

	extracted := &ExtractedReport{
		ReportType: ReportTypePVT,
		Boletim:    "PVT Sepetiba/26-16901",
		Density:    floatPtr(912.45),
		RS:         floatPtr(45.2),
		FE:         floatPtr(0.876),
	}
	summary, err := validator.Validate(context.Background(), nil, extracted, sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OverallStatus != types.OutcomeApproved {
		t.Fatalf("expected Approved, got %q", summary.OverallStatus)
	}
	if len(summary.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(summary.Checks))
	}
	for _, c := range summary.Checks {
		if c.Status != types.CheckPass {
			t.Fatalf("check %s: expected pass, got %q (%s)", c.Parameter, c.Status, c.Detail)
		}
		if !strings.Contains(c.Detail, "bootstrapped baseline") {
			t.Fatalf("check %s: expected bootstrap marker in detail %q", c.Parameter, c.Detail)
		}
		if len(c.HistoryValues) != HistorySize {
			t.Fatalf("check %s: expected padded window of %d, got %d", c.Parameter, HistorySize, len(c.HistoryValues))
		}
	}
}

func TestValidate_ZeroWidthBandOnUniformHistory(t *testing.T) {
	db, validator := newValidationFixture(t)
	point := seedPoint(t, db)
	uniform := make([]float64, HistorySize)
	for i := range uniform {
		uniform[i] = 10.0
	}
	seedHistory(t, db, point.ID, "density", uniform)
	sample := seedSample(t, db, point.ID, "AM-2026-002")

	exact, err := validator.Validate(context.Background(), nil, &ExtractedReport{
		ReportType: ReportTypePVT,
		Density:    floatPtr(10.0),
	}, sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exact.OverallStatus != types.OutcomeApproved {
		t.Fatalf("value on the band edge must pass, got %q (%s)", exact.OverallStatus, exact.Checks[0].Detail)
	}

	off, err := validator.Validate(context.Background(), nil, &ExtractedReport{
		ReportType: ReportTypePVT,
		Density:    floatPtr(10.01),
	}, sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off.OverallStatus != types.OutcomeReproved {
		t.Fatalf("value off a zero-width band must fail, got %q", off.OverallStatus)
	}
	if off.FailedCount != 1 {
		t.Fatalf("expected 1 failed check, got %d", off.FailedCount)
	}
}

func TestValidate_ExcludesSampleUnderValidation(t *testing.T) {
	db, validator := newValidationFixture(t)
	point := seedPoint(t, db)
	uniform := make([]float64, HistorySize)
	for i := range uniform {
		uniform[i] = 10.0
	}
	seedHistory(t, db, point.ID, "density", uniform)
	sample := seedSample(t, db, point.ID, "AM-2026-003")

	// A stale result row from a prior validation of the same sample must not
	// pollute its own window.
	stale := &types.SampleResult{
		ID:        uuid.New(),
		SampleID:  sample.ID,
		Parameter: "density",
		Value:     999.0,
		Status:    types.CheckFail,
		CreatedAt: time.Now(),
	}
	if err := db.Create(stale).Error; err != nil {
		t.Fatalf("seed stale result: %v", err)
	}

	summary, err := validator.Validate(context.Background(), nil, &ExtractedReport{
		ReportType: ReportTypePVT,
		Density:    floatPtr(10.0),
	}, sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	check := summary.Checks[0]
	if check.HistoryMean == nil || *check.HistoryMean != 10.0 {
		t.Fatalf("expected mean 10.0 without own stale row, got %v", check.HistoryMean)
	}
	if check.Status != types.CheckPass {
		t.Fatalf("expected pass, got %q (%s)", check.Status, check.Detail)
	}
}

func TestValidate_O2HardLimit(t *testing.T) {
	cases := []struct {
		name string
		o2   float64
		want types.CheckStatus
	}{
		{"above limit fails", 0.6, types.CheckFail},
		{"exactly at limit passes", 0.5, types.CheckPass},
		{"below limit passes", 0.31, types.CheckPass},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := checkO2Limit(tc.o2)
			if check.Status != tc.want {
				t.Fatalf("o2=%v: expected %q, got %q (%s)", tc.o2, tc.want, check.Status, check.Detail)
			}
		})
	}
}

func TestValidate_O2FailureReprovesReport(t *testing.T) {
	db, validator := newValidationFixture(t)
	point := seedPoint(t, db)
	sample := seedSample(t, db, point.ID, "AM-2026-004")

	summary, err := validator.Validate(context.Background(), nil, &ExtractedReport{
		ReportType:    ReportTypeCRO,
		O2:            floatPtr(0.75),
		DensityAbsOp:  floatPtr(0.912),
		DensityAbsStd: floatPtr(0.845),
	}, sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OverallStatus != types.OutcomeReproved {
		t.Fatalf("expected Reproved, got %q", summary.OverallStatus)
	}
	if summary.FailedCount != 1 || summary.PassedCount != 2 {
		t.Fatalf("expected 1 fail / 2 pass, got %d / %d", summary.FailedCount, summary.PassedCount)
	}
}
