package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
)

type SamplePointFilter struct {
	FPSOName     string
	AnalysisType string
}

type SamplePointRepo interface {
	Create(ctx context.Context, tx *gorm.DB, points []*types.SamplePoint) ([]*types.SamplePoint, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SamplePoint, error)
	List(ctx context.Context, tx *gorm.DB, filter SamplePointFilter) ([]*types.SamplePoint, error)
	Save(ctx context.Context, tx *gorm.DB, point *types.SamplePoint) error
}

type samplePointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSamplePointRepo(db *gorm.DB, baseLog *logger.Logger) SamplePointRepo {
	repoLog := baseLog.With("repo", "SamplePointRepo")
	return &samplePointRepo{db: db, log: repoLog}
}

func (r *samplePointRepo) Create(ctx context.Context, tx *gorm.DB, points []*types.SamplePoint) ([]*types.SamplePoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(points) == 0 {
		return []*types.SamplePoint{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

func (r *samplePointRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SamplePoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.SamplePoint
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *samplePointRepo) List(ctx context.Context, tx *gorm.DB, filter SamplePointFilter) ([]*types.SamplePoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.SamplePoint
	q := transaction.WithContext(ctx).Model(&types.SamplePoint{})
	if filter.FPSOName != "" {
		q = q.Where("fpso_name = ?", filter.FPSOName)
	}
	if filter.AnalysisType != "" {
		q = q.Where("analysis_type = ?", filter.AnalysisType)
	}
	if err := q.Order("tag_number ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *samplePointRepo) Save(ctx context.Context, tx *gorm.DB, point *types.SamplePoint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(point).Error
}
