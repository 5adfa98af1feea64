package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
)

type SampleFilter struct {
	SamplePointID *uuid.UUID
	Status        *types.SamplePhase
	FPSOName      string
}

type SampleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, samples []*types.Sample) ([]*types.Sample, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Sample, error)
	GetBySampleID(ctx context.Context, tx *gorm.DB, sampleID string) (*types.Sample, error)
	SampleIDExists(ctx context.Context, tx *gorm.DB, sampleID string) (bool, error)
	List(ctx context.Context, tx *gorm.DB, filter SampleFilter) ([]*types.Sample, error)
	ListOverdue(ctx context.Context, tx *gorm.DB, asOf time.Time) ([]*types.Sample, error)
	Save(ctx context.Context, tx *gorm.DB, sample *types.Sample) error
}

type sampleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleRepo(db *gorm.DB, baseLog *logger.Logger) SampleRepo {
	repoLog := baseLog.With("repo", "SampleRepo")
	return &sampleRepo{db: db, log: repoLog}
}

func (r *sampleRepo) Create(ctx context.Context, tx *gorm.DB, samples []*types.Sample) ([]*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(samples) == 0 {
		return []*types.Sample{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *sampleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Sample
	if err := transaction.WithContext(ctx).
		Preload("SamplePoint").
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *sampleRepo) GetBySampleID(ctx context.Context, tx *gorm.DB, sampleID string) (*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Sample
	if err := transaction.WithContext(ctx).
		Preload("SamplePoint").
		Where("sample_id = ?", sampleID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *sampleRepo) SampleIDExists(ctx context.Context, tx *gorm.DB, sampleID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Sample{}).
		Where("sample_id = ?", sampleID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *sampleRepo) List(ctx context.Context, tx *gorm.DB, filter SampleFilter) ([]*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Sample
	q := transaction.WithContext(ctx).
		Model(&types.Sample{}).
		Preload("SamplePoint")
	if filter.SamplePointID != nil {
		q = q.Where("sample_point_id = ?", *filter.SamplePointID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.FPSOName != "" {
		q = q.Joins("JOIN sample_point ON sample_point.id = sample.sample_point_id").
			Where("sample_point.fpso_name = ?", filter.FPSOName)
	}
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListOverdue returns non-terminal samples whose due date has passed.
func (r *sampleRepo) ListOverdue(ctx context.Context, tx *gorm.DB, asOf time.Time) ([]*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Sample
	if err := transaction.WithContext(ctx).
		Model(&types.Sample{}).
		Where("due_date IS NOT NULL AND due_date < ?", asOf).
		Where("status <> ?", types.PhaseFlowComputerUpdated).
		Where("mitigated = ?", false).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sampleRepo) Save(ctx context.Context, tx *gorm.DB, sample *types.Sample) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(sample).Error
}
