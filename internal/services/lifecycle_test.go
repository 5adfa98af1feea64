package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/clients/redis"
	"github.com/viniciosgnr/MMT/internal/db/testdb"
	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/types"
)

type lifecycleFixture struct {
	db          *gorm.DB
	lifecycle   LifecycleService
	samples     SampleService
	historyRepo repos.SampleStatusHistoryRepo
	resultRepo  repos.SampleResultRepo
	point       *types.SamplePoint
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	db := testdb.Open(t)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	pointRepo := repos.NewSamplePointRepo(db, log)
	sampleRepo := repos.NewSampleRepo(db, log)
	resultRepo := repos.NewSampleResultRepo(db, log)
	historyRepo := repos.NewSampleStatusHistoryRepo(db, log)
	extractor := NewReportExtractor(log)
	historySvc := NewHistoryService(db, log, resultRepo)
	validator := NewValidationService(db, log, historySvc)
	lifecycle := NewLifecycleService(db, log, redis.NewLocalLocker(), sampleRepo, resultRepo, historyRepo, extractor, validator)
	samples := NewSampleService(db, log, sampleRepo, pointRepo, resultRepo, historyRepo)
	return &lifecycleFixture{
		db:          db,
		lifecycle:   lifecycle,
		samples:     samples,
		historyRepo: historyRepo,
		resultRepo:  resultRepo,
		point:       seedPoint(t, db),
	}
}

func (f *lifecycleFixture) newSample(t *testing.T, sampleID string) *types.Sample {
	t.Helper()
	planned := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sample, err := f.samples.Create(context.Background(), SampleInput{
		SampleID:      sampleID,
		Type:          "Óleo",
		Responsible:   "operador",
		SamplePointID: f.point.ID,
		PlannedDate:   &planned,
	})
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}
	return sample
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestTransition_SampledProjectsMilestoneDates(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-001")

	got, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.PhaseSampled,
		EventDate:   datePtr(2024, 1, 1),
		User:        "operador",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != types.PhaseSampled {
		t.Fatalf("expected Sampled, got %q", got.Status)
	}
	expectations := []struct {
		name string
		got  *time.Time
		want time.Time
	}{
		{"sampling_date", got.SamplingDate, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"disembark_expected_date", got.DisembarkExpectedDate, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)},
		{"lab_expected_date", got.LabExpectedDate, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC)},
		{"report_expected_date", got.ReportExpectedDate, time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC)},
		{"fc_expected_date", got.FCExpectedDate, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, e := range expectations {
		if e.got == nil || !e.got.Equal(e.want) {
			t.Fatalf("%s: expected %v, got %v", e.name, e.want, e.got)
		}
	}
	if got.DueDate == nil || !got.DueDate.Equal(*got.DisembarkExpectedDate) {
		t.Fatalf("due date should follow disembark expected date, got %v", got.DueDate)
	}
}

func TestTransition_MilestoneDatesFrozenOnReentry(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-002")

	if _, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.PhaseSampled,
		EventDate:   datePtr(2024, 1, 1),
	}); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	got, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.PhaseSampled,
		EventDate:   datePtr(2024, 2, 1),
	})
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if !got.SamplingDate.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("explicit event date should update sampling date, got %v", got.SamplingDate)
	}
	if !got.DisembarkExpectedDate.Equal(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("milestone projection must not be recomputed, got %v", got.DisembarkExpectedDate)
	}
}

func TestTransition_DueDateFollowsPhaseTable(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-003")

	if _, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.PhaseSampled,
		EventDate:   datePtr(2024, 1, 1),
	}); err != nil {
		t.Fatalf("transition to Sampled: %v", err)
	}
	got, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.PhaseWarehouse,
	})
	if err != nil {
		t.Fatalf("transition to Warehouse: %v", err)
	}
	if got.DueDate == nil || !got.DueDate.Equal(*got.LabExpectedDate) {
		t.Fatalf("Warehouse due date should be lab expected date, got %v", got.DueDate)
	}
}

func TestTransition_ExplicitDueDateOverridesTable(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-004")

	override := datePtr(2024, 6, 30)
	got, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.PhaseSampled,
		EventDate:   datePtr(2024, 1, 1),
		DueDate:     override,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DueDate == nil || !got.DueDate.Equal(*override) {
		t.Fatalf("expected override %v, got %v", override, got.DueDate)
	}
}

func TestTransition_AppendsHistoryRowEveryCall(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-005")

	for i := 0; i < 2; i++ {
		if _, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
			TargetPhase: types.PhaseSampled,
			EventDate:   datePtr(2024, 1, 1),
			Comment:     "repetição",
		}); err != nil {
			t.Fatalf("transition %d: %v", i, err)
		}
	}
	rows, err := f.historyRepo.ListBySample(context.Background(), nil, sample.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	// One row from registration plus one per transition, duplicates included.
	if len(rows) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(rows))
	}
}

func TestTransition_UnknownPhaseRejected(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-006")

	_, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.SamplePhase("Em trânsito"),
	})
	if err == nil {
		t.Fatalf("expected error for unknown phase")
	}
	got, gerr := f.samples.Get(context.Background(), sample.ID)
	if gerr != nil {
		t.Fatalf("reload sample: %v", gerr)
	}
	if got.Sample.Status != types.PhasePlanned {
		t.Fatalf("rejected transition must not change phase, got %q", got.Sample.Status)
	}
}

func TestSubmitReport_FullPipeline(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-007")
	if _, err := f.lifecycle.Transition(context.Background(), sample.ID, TransitionInput{
		TargetPhase: types.PhaseSampled,
		EventDate:   datePtr(2024, 1, 1),
	}); err != nil {
		t.Fatalf("transition to Sampled: %v", err)
	}

	summary, got, err := f.lifecycle.SubmitReport(context.Background(), sample.ID, []byte(pvtReportText), "PVT_laudo.pdf", "validador")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.OverallStatus != types.OutcomeApproved {
		t.Fatalf("expected Approved, got %q", summary.OverallStatus)
	}
	if got.Status != types.PhaseReportUnderValidation {
		t.Fatalf("expected Report under validation, got %q", got.Status)
	}
	if got.ValidationStatus == nil || *got.ValidationStatus != types.OutcomeApproved {
		t.Fatalf("expected validation status recorded, got %v", got.ValidationStatus)
	}
	if got.LaudoNumber != "PVT Sepetiba/26-16901" {
		t.Fatalf("expected laudo number from report, got %q", got.LaudoNumber)
	}
	if got.DueDate == nil || !got.DueDate.Equal(*got.ReportExpectedDate) {
		t.Fatalf("due date should follow report expected date, got %v", got.DueDate)
	}
	results, err := f.resultRepo.ListBySample(context.Background(), nil, sample.ID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 persisted checks, got %d", len(results))
	}
}

func TestSubmitReport_ReplacesEntireResultSet(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-008")

	for i := 0; i < 2; i++ {
		if _, _, err := f.lifecycle.SubmitReport(context.Background(), sample.ID, []byte(pvtReportText), "PVT_laudo.pdf", "validador"); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	results, err := f.resultRepo.ListBySample(context.Background(), nil, sample.ID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("resubmission must replace, not append; got %d rows", len(results))
	}
}

func TestSubmitReport_UnknownKindStoresNothing(t *testing.T) {
	f := newLifecycleFixture(t)
	sample := f.newSample(t, "AM-2024-009")

	_, _, err := f.lifecycle.SubmitReport(context.Background(), sample.ID, []byte("laudo ilegível"), "laudo.pdf", "validador")
	if !errors.Is(err, ErrUnknownReportType) {
		t.Fatalf("expected ErrUnknownReportType, got %v", err)
	}
	results, rerr := f.resultRepo.ListBySample(context.Background(), nil, sample.ID)
	if rerr != nil {
		t.Fatalf("list results: %v", rerr)
	}
	if len(results) != 0 {
		t.Fatalf("expected no persisted results, got %d", len(results))
	}
	got, gerr := f.samples.Get(context.Background(), sample.ID)
	if gerr != nil {
		t.Fatalf("reload sample: %v", gerr)
	}
	if got.Sample.Status != types.PhasePlanned {
		t.Fatalf("failed submission must not advance the phase, got %q", got.Sample.Status)
	}
}

func TestSampleService_RejectsDuplicateSampleID(t *testing.T) {
	f := newLifecycleFixture(t)
	f.newSample(t, "AM-2024-010")

	_, err := f.samples.Create(context.Background(), SampleInput{
		SampleID:      "AM-2024-010",
		SamplePointID: f.point.ID,
	})
	if !errors.Is(err, ErrDuplicateSampleID) {
		t.Fatalf("expected ErrDuplicateSampleID, got %v", err)
	}
}
