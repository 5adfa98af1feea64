package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
)

type SampleStatusHistoryRepo interface {
	Append(ctx context.Context, tx *gorm.DB, rows []*types.SampleStatusHistory) ([]*types.SampleStatusHistory, error)
	ListBySample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.SampleStatusHistory, error)
}

type sampleStatusHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleStatusHistoryRepo(db *gorm.DB, baseLog *logger.Logger) SampleStatusHistoryRepo {
	repoLog := baseLog.With("repo", "SampleStatusHistoryRepo")
	return &sampleStatusHistoryRepo{db: db, log: repoLog}
}

func (r *sampleStatusHistoryRepo) Append(ctx context.Context, tx *gorm.DB, rows []*types.SampleStatusHistory) ([]*types.SampleStatusHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.SampleStatusHistory{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sampleStatusHistoryRepo) ListBySample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.SampleStatusHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.SampleStatusHistory
	if err := transaction.WithContext(ctx).
		Where("sample_id = ?", sampleID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
