package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redislock "github.com/viniciosgnr/MMT/internal/clients/redis"
	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/types"
)

// Milestone offsets in days from the sampling date, the "10-10-5-5" pattern.
// Frozen once when the sample enters the Sampled phase.
const (
	DisembarkOffsetDays = 10
	LabOffsetDays       = 20
	ReportOffsetDays    = 25
	FCOffsetDays        = 30
)

// ErrPersistenceConflict marks a failed atomic replacement of a sample's
// result set; the prior consistent state is preserved.
var ErrPersistenceConflict = errors.New("sample result set replacement failed")

// TransitionInput carries the optional event details for a phase change.
type TransitionInput struct {
	TargetPhase       types.SamplePhase
	EventDate         *time.Time
	DueDate           *time.Time // verbatim override of the table lookup
	ArtifactURL       string
	ValidationOutcome *types.ValidationOutcome
	Comment           string
	User              string
}

// LifecycleService owns every write to a sample's phase, milestone dates and
// due date. Each operation is serialized per sample and commits atomically:
// the status-history row, the phase change and the due-date update land
// together or not at all.
type LifecycleService interface {
	Transition(ctx context.Context, sampleID uuid.UUID, input TransitionInput) (*types.Sample, error)
	SubmitReport(ctx context.Context, sampleID uuid.UUID, documentBytes []byte, filename, user string) (*ValidationSummary, *types.Sample, error)
}

type lifecycleService struct {
	db          *gorm.DB
	log         *logger.Logger
	locker      redislock.SampleLocker
	sampleRepo  repos.SampleRepo
	resultRepo  repos.SampleResultRepo
	historyRepo repos.SampleStatusHistoryRepo
	extractor   ReportExtractor
	validator   ValidationService
}

func NewLifecycleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	locker redislock.SampleLocker,
	sampleRepo repos.SampleRepo,
	resultRepo repos.SampleResultRepo,
	historyRepo repos.SampleStatusHistoryRepo,
	extractor ReportExtractor,
	validator ValidationService,
) LifecycleService {
	serviceLog := baseLog.With("service", "LifecycleService")
	return &lifecycleService{
		db:          db,
		log:         serviceLog,
		locker:      locker,
		sampleRepo:  sampleRepo,
		resultRepo:  resultRepo,
		historyRepo: historyRepo,
		extractor:   extractor,
		validator:   validator,
	}
}

func (ls *lifecycleService) Transition(ctx context.Context, sampleID uuid.UUID, input TransitionInput) (*types.Sample, error) {
	if !input.TargetPhase.Valid() {
		return nil, fmt.Errorf("unknown sample phase %q", input.TargetPhase)
	}

	unlock, err := ls.locker.Lock(ctx, sampleID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	transaction := ls.db.Begin()
	if transaction.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", transaction.Error)
	}

	var sample *types.Sample
	defer func() {
		if err != nil {
			transaction.Rollback()
		}
	}()

	sample, err = ls.sampleRepo.GetByID(ctx, transaction, sampleID)
	if err != nil {
		return nil, err
	}

	if err = ls.applyTransition(ctx, transaction, sample, input); err != nil {
		return nil, err
	}

	if err = transaction.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	ls.log.Info("Sample transitioned",
		"sample_id", sample.SampleID,
		"status", sample.Status,
		"due_date", sample.DueDate,
	)
	return sample, nil
}

// applyTransition mutates the sample for the target phase inside the given
// transaction: phase effects, one appended history row, then the due-date
// recomputation. Any known target phase is accepted; ordering is a workflow
// convention, not a database rule, so exceptional flows (skipped disembark,
// re-entry) stay representable.
func (ls *lifecycleService) applyTransition(ctx context.Context, tx *gorm.DB, sample *types.Sample, input TransitionInput) error {
	eventDate := input.EventDate
	if eventDate == nil {
		today := time.Now()
		eventDate = &today
	}

	switch input.TargetPhase {
	case types.PhasePlanned:
		if sample.PlannedDate == nil || input.EventDate != nil {
			sample.PlannedDate = eventDate
		}
	case types.PhaseSampled:
		if sample.SamplingDate == nil || input.EventDate != nil {
			sample.SamplingDate = eventDate
		}
		// Expected milestone dates are projected once from the sampling
		// date and never recomputed by later transitions.
		if sample.DisembarkExpectedDate == nil && sample.SamplingDate != nil {
			base := *sample.SamplingDate
			disembark := base.AddDate(0, 0, DisembarkOffsetDays)
			lab := base.AddDate(0, 0, LabOffsetDays)
			report := base.AddDate(0, 0, ReportOffsetDays)
			fc := base.AddDate(0, 0, FCOffsetDays)
			sample.DisembarkExpectedDate = &disembark
			sample.LabExpectedDate = &lab
			sample.ReportExpectedDate = &report
			sample.FCExpectedDate = &fc
		}
	case types.PhaseDisembarkLogistics:
		if sample.DisembarkDate == nil || input.EventDate != nil {
			sample.DisembarkDate = eventDate
		}
	case types.PhaseDeliveredAtVendor:
		if sample.DeliveryDate == nil || input.EventDate != nil {
			sample.DeliveryDate = eventDate
		}
	case types.PhaseReportIssued:
		if sample.ReportIssueDate == nil || input.EventDate != nil {
			sample.ReportIssueDate = eventDate
		}
	case types.PhaseFlowComputerUpdated:
		if sample.FCUpdateDate == nil || input.EventDate != nil {
			sample.FCUpdateDate = eventDate
		}
	}

	if input.ArtifactURL != "" {
		sample.LabReportURL = input.ArtifactURL
	}
	if input.ValidationOutcome != nil {
		sample.ValidationStatus = input.ValidationOutcome
	}

	// One history row per call, even when the phase value is unchanged.
	historyRow := &types.SampleStatusHistory{
		ID:        uuid.New(),
		SampleID:  sample.ID,
		Status:    input.TargetPhase,
		Comments:  input.Comment,
		ChangedBy: input.User,
		CreatedAt: time.Now(),
	}
	if _, err := ls.historyRepo.Append(ctx, tx, []*types.SampleStatusHistory{historyRow}); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}

	sample.Status = input.TargetPhase

	if input.DueDate != nil {
		sample.DueDate = input.DueDate
	} else {
		sample.DueDate = sample.DueDateSource(input.TargetPhase)
	}

	if err := ls.sampleRepo.Save(ctx, tx, sample); err != nil {
		return fmt.Errorf("save sample: %w", err)
	}
	return nil
}

// SubmitReport runs the full report pipeline for a sample: extract the
// document, validate against history, then atomically replace the sample's
// result set, record the verdict and move it into "Report under validation".
// An undetectable report type stores nothing.
func (ls *lifecycleService) SubmitReport(ctx context.Context, sampleID uuid.UUID, documentBytes []byte, filename, user string) (*ValidationSummary, *types.Sample, error) {
	unlock, err := ls.locker.Lock(ctx, sampleID.String())
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	sample, err := ls.sampleRepo.GetByID(ctx, nil, sampleID)
	if err != nil {
		return nil, nil, err
	}

	extracted, err := ls.extractor.Extract(documentBytes, filename)
	if err != nil {
		return nil, nil, err
	}

	// History reads deliberately run outside the write transaction: the
	// sample under validation is excluded from its own window, so the rows
	// about to be replaced cannot influence the band.
	summary, err := ls.validator.Validate(ctx, nil, extracted, sample)
	if err != nil {
		return nil, nil, err
	}

	resultRows := make([]*types.SampleResult, 0, len(summary.Checks))
	for _, c := range summary.Checks {
		resultRows = append(resultRows, &types.SampleResult{
			ID:            uuid.New(),
			SampleID:      sample.ID,
			Parameter:     c.Parameter,
			Value:         c.Value,
			Unit:          c.Unit,
			Status:        c.Status,
			Detail:        c.Detail,
			HistoryMean:   c.HistoryMean,
			HistoryStd:    c.HistoryStd,
			LowerBound:    c.LowerBound,
			UpperBound:    c.UpperBound,
			HistoryValues: datatypes.NewJSONSlice(c.HistoryValues),
			HistoryDates:  datatypes.NewJSONSlice(c.HistoryDates),
			Boletim:       summary.Boletim,
			LabReportURL:  filename,
			CreatedAt:     time.Now(),
		})
	}

	transaction := ls.db.Begin()
	if transaction.Error != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", transaction.Error)
	}
	defer func() {
		if err != nil {
			transaction.Rollback()
		}
	}()

	if err = ls.resultRepo.ReplaceForSample(ctx, transaction, sample.ID, resultRows); err != nil {
		err = fmt.Errorf("%w: %v", ErrPersistenceConflict, err)
		return nil, nil, err
	}

	outcome := summary.OverallStatus
	comment := fmt.Sprintf("Report %s validated: %s (%d passed, %d failed)",
		summary.Boletim, outcome, summary.PassedCount, summary.FailedCount)
	input := TransitionInput{
		TargetPhase:       types.PhaseReportUnderValidation,
		ValidationOutcome: &outcome,
		Comment:           comment,
		User:              user,
	}
	if summary.Boletim != "" {
		sample.LaudoNumber = summary.Boletim
	}
	if err = ls.applyTransition(ctx, transaction, sample, input); err != nil {
		return nil, nil, err
	}

	if err = transaction.Commit().Error; err != nil {
		err = fmt.Errorf("commit report submission: %w", err)
		return nil, nil, err
	}

	ls.log.Info("Report submitted",
		"sample_id", sample.SampleID,
		"boletim", summary.Boletim,
		"overall_status", summary.OverallStatus,
	)
	return summary, sample, nil
}
