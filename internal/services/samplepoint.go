package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/types"
)

// SamplePointInput carries the registry fields for creating or updating a
// metering sample point.
type SamplePointInput struct {
	TagNumber      string `json:"tag_number"`
	FPSOName       string `json:"fpso_name"`
	FluidType      string `json:"fluid_type"`
	AnalysisType   string `json:"analysis_type"`
	Classification string `json:"classification"`
	Local          string `json:"local"`
	Description    string `json:"description"`
}

type SamplePointService interface {
	Create(ctx context.Context, input SamplePointInput) (*types.SamplePoint, error)
	Get(ctx context.Context, id uuid.UUID) (*types.SamplePoint, error)
	List(ctx context.Context, filter repos.SamplePointFilter) ([]*types.SamplePoint, error)
	Update(ctx context.Context, id uuid.UUID, input SamplePointInput) (*types.SamplePoint, error)
	SLA(ctx context.Context, id uuid.UUID) (*SLAConfig, error)
}

type samplePointService struct {
	db        *gorm.DB
	log       *logger.Logger
	pointRepo repos.SamplePointRepo
	sla       SLAService
}

func NewSamplePointService(db *gorm.DB, baseLog *logger.Logger, pointRepo repos.SamplePointRepo, sla SLAService) SamplePointService {
	serviceLog := baseLog.With("service", "SamplePointService")
	return &samplePointService{db: db, log: serviceLog, pointRepo: pointRepo, sla: sla}
}

func (sp *samplePointService) Create(ctx context.Context, input SamplePointInput) (*types.SamplePoint, error) {
	if input.TagNumber == "" {
		return nil, fmt.Errorf("tag_number is required")
	}
	if input.FPSOName == "" {
		return nil, fmt.Errorf("fpso_name is required")
	}
	local := input.Local
	if local == "" {
		local = "Onshore"
	}
	point := &types.SamplePoint{
		ID:             uuid.New(),
		TagNumber:      input.TagNumber,
		FPSOName:       input.FPSOName,
		FluidType:      input.FluidType,
		AnalysisType:   input.AnalysisType,
		Classification: input.Classification,
		Local:          local,
		Description:    input.Description,
	}
	created, err := sp.pointRepo.Create(ctx, nil, []*types.SamplePoint{point})
	if err != nil {
		return nil, fmt.Errorf("create sample point: %w", err)
	}
	sp.log.Info("Sample point created", "id", point.ID, "tag_number", point.TagNumber)
	return created[0], nil
}

func (sp *samplePointService) Get(ctx context.Context, id uuid.UUID) (*types.SamplePoint, error) {
	return sp.pointRepo.GetByID(ctx, nil, id)
}

func (sp *samplePointService) List(ctx context.Context, filter repos.SamplePointFilter) ([]*types.SamplePoint, error) {
	return sp.pointRepo.List(ctx, nil, filter)
}

// Update touches descriptive fields only. Tag, FPSO, classification, analysis
// type and local identify the point's history baseline and stay immutable.
func (sp *samplePointService) Update(ctx context.Context, id uuid.UUID, input SamplePointInput) (*types.SamplePoint, error) {
	point, err := sp.pointRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if input.FluidType != "" {
		point.FluidType = input.FluidType
	}
	if input.Description != "" {
		point.Description = input.Description
	}
	if err := sp.pointRepo.Save(ctx, nil, point); err != nil {
		return nil, fmt.Errorf("update sample point: %w", err)
	}
	return point, nil
}

// SLA resolves the service-level configuration agreed for this point.
func (sp *samplePointService) SLA(ctx context.Context, id uuid.UUID) (*SLAConfig, error) {
	point, err := sp.pointRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	cfg := sp.sla.Config(point.Classification, point.AnalysisType, point.Local)
	return &cfg, nil
}
