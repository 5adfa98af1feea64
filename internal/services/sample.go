package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/types"
)

// ErrDuplicateSampleID is returned when the human-readable sample identifier
// is already taken.
var ErrDuplicateSampleID = errors.New("sample_id already exists")

// SampleInput carries the fields for registering a new sample.
type SampleInput struct {
	SampleID      string     `json:"sample_id"`
	Type          string     `json:"type"`
	Responsible   string     `json:"responsible"`
	SamplePointID uuid.UUID  `json:"sample_point_id"`
	OSMID         string     `json:"osm_id"`
	PlannedDate   *time.Time `json:"planned_date"`
	Notes         string     `json:"notes"`
}

// SampleUpdateInput carries the mutable bookkeeping fields. Phase, dates and
// validation outcomes change only through the lifecycle service.
type SampleUpdateInput struct {
	Responsible *string `json:"responsible"`
	OSMID       *string `json:"osm_id"`
	LaudoNumber *string `json:"laudo_number"`
	Mitigated   *bool   `json:"mitigated"`
	Notes       *string `json:"notes"`
}

// SampleDetail is a sample together with its persisted validation results and
// full status history.
type SampleDetail struct {
	Sample  *types.Sample                `json:"sample"`
	Results []*types.SampleResult        `json:"results"`
	History []*types.SampleStatusHistory `json:"history"`
}

type SampleService interface {
	Create(ctx context.Context, input SampleInput) (*types.Sample, error)
	Get(ctx context.Context, id uuid.UUID) (*SampleDetail, error)
	List(ctx context.Context, filter repos.SampleFilter) ([]*types.Sample, error)
	Update(ctx context.Context, id uuid.UUID, input SampleUpdateInput) (*types.Sample, error)
	StatusHistory(ctx context.Context, id uuid.UUID) ([]*types.SampleStatusHistory, error)
	Results(ctx context.Context, id uuid.UUID) ([]*types.SampleResult, error)
}

type sampleService struct {
	db          *gorm.DB
	log         *logger.Logger
	sampleRepo  repos.SampleRepo
	pointRepo   repos.SamplePointRepo
	resultRepo  repos.SampleResultRepo
	historyRepo repos.SampleStatusHistoryRepo
}

func NewSampleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sampleRepo repos.SampleRepo,
	pointRepo repos.SamplePointRepo,
	resultRepo repos.SampleResultRepo,
	historyRepo repos.SampleStatusHistoryRepo,
) SampleService {
	serviceLog := baseLog.With("service", "SampleService")
	return &sampleService{
		db:          db,
		log:         serviceLog,
		sampleRepo:  sampleRepo,
		pointRepo:   pointRepo,
		resultRepo:  resultRepo,
		historyRepo: historyRepo,
	}
}

// Create registers a sample in the Planned phase and appends its first
// status-history row in the same transaction.
func (ss *sampleService) Create(ctx context.Context, input SampleInput) (*types.Sample, error) {
	if input.SampleID == "" {
		return nil, fmt.Errorf("sample_id is required")
	}
	if input.SamplePointID == uuid.Nil {
		return nil, fmt.Errorf("sample_point_id is required")
	}
	if _, err := ss.pointRepo.GetByID(ctx, nil, input.SamplePointID); err != nil {
		return nil, fmt.Errorf("sample point lookup: %w", err)
	}

	exists, err := ss.sampleRepo.SampleIDExists(ctx, nil, input.SampleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSampleID
	}

	transaction := ss.db.Begin()
	if transaction.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", transaction.Error)
	}
	defer func() {
		if err != nil {
			transaction.Rollback()
		}
	}()

	sample := &types.Sample{
		ID:            uuid.New(),
		SampleID:      input.SampleID,
		Type:          input.Type,
		Status:        types.PhasePlanned,
		Responsible:   input.Responsible,
		SamplePointID: input.SamplePointID,
		OSMID:         input.OSMID,
		PlannedDate:   input.PlannedDate,
		DueDate:       input.PlannedDate,
		Notes:         input.Notes,
	}
	if _, err = ss.sampleRepo.Create(ctx, transaction, []*types.Sample{sample}); err != nil {
		return nil, fmt.Errorf("create sample: %w", err)
	}

	historyRow := &types.SampleStatusHistory{
		ID:        uuid.New(),
		SampleID:  sample.ID,
		Status:    types.PhasePlanned,
		Comments:  "Sample registered",
		ChangedBy: input.Responsible,
		CreatedAt: time.Now(),
	}
	if _, err = ss.historyRepo.Append(ctx, transaction, []*types.SampleStatusHistory{historyRow}); err != nil {
		return nil, fmt.Errorf("append status history: %w", err)
	}

	if err = transaction.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit sample creation: %w", err)
	}
	ss.log.Info("Sample created", "sample_id", sample.SampleID, "sample_point_id", sample.SamplePointID)
	return sample, nil
}

func (ss *sampleService) Get(ctx context.Context, id uuid.UUID) (*SampleDetail, error) {
	sample, err := ss.sampleRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	results, err := ss.resultRepo.ListBySample(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	history, err := ss.historyRepo.ListBySample(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return &SampleDetail{Sample: sample, Results: results, History: history}, nil
}

func (ss *sampleService) List(ctx context.Context, filter repos.SampleFilter) ([]*types.Sample, error) {
	return ss.sampleRepo.List(ctx, nil, filter)
}

func (ss *sampleService) Update(ctx context.Context, id uuid.UUID, input SampleUpdateInput) (*types.Sample, error) {
	sample, err := ss.sampleRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if input.Responsible != nil {
		sample.Responsible = *input.Responsible
	}
	if input.OSMID != nil {
		sample.OSMID = *input.OSMID
	}
	if input.LaudoNumber != nil {
		sample.LaudoNumber = *input.LaudoNumber
	}
	if input.Mitigated != nil {
		sample.Mitigated = *input.Mitigated
	}
	if input.Notes != nil {
		sample.Notes = *input.Notes
	}
	if err := ss.sampleRepo.Save(ctx, nil, sample); err != nil {
		return nil, fmt.Errorf("update sample: %w", err)
	}
	return sample, nil
}

func (ss *sampleService) StatusHistory(ctx context.Context, id uuid.UUID) ([]*types.SampleStatusHistory, error) {
	return ss.historyRepo.ListBySample(ctx, nil, id)
}

func (ss *sampleService) Results(ctx context.Context, id uuid.UUID) ([]*types.SampleResult, error) {
	return ss.resultRepo.ListBySample(ctx, nil, id)
}
