package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
)

// HistoryPoint is one prior reading of a parameter at a sample point,
// joined from sample_result and its owning sample.
type HistoryPoint struct {
	Value        float64    `gorm:"column:value"`
	SamplingDate *time.Time `gorm:"column:sampling_date"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

type SampleResultRepo interface {
	ReplaceForSample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID, results []*types.SampleResult) error
	ListBySample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.SampleResult, error)
	GetParameterHistory(ctx context.Context, tx *gorm.DB, samplePointID uuid.UUID, parameter string, excludeSampleID uuid.UUID, limit int) ([]HistoryPoint, error)
}

type sampleResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleResultRepo(db *gorm.DB, baseLog *logger.Logger) SampleResultRepo {
	repoLog := baseLog.With("repo", "SampleResultRepo")
	return &sampleResultRepo{db: db, log: repoLog}
}

// ReplaceForSample swaps the entire result set of a sample: every prior row
// is deleted and the new rows inserted on the same handle. When no outer tx
// is supplied the swap runs in its own transaction, so a failure partway
// leaves the previous result set intact.
func (r *sampleResultRepo) ReplaceForSample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID, results []*types.SampleResult) error {
	replace := func(transaction *gorm.DB) error {
		if err := transaction.WithContext(ctx).
			Where("sample_id = ?", sampleID).
			Delete(&types.SampleResult{}).Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		return transaction.WithContext(ctx).Create(&results).Error
	}
	if tx != nil {
		return replace(tx)
	}
	return r.db.Transaction(replace)
}

func (r *sampleResultRepo) ListBySample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.SampleResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.SampleResult
	if err := transaction.WithContext(ctx).
		Where("sample_id = ?", sampleID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetParameterHistory returns up to limit prior readings of parameter at the
// given sample point, newest first, excluding the sample under validation.
// Only samples that already hold validated results contribute rows, which is
// exactly the set with result rows to join against.
func (r *sampleResultRepo) GetParameterHistory(ctx context.Context, tx *gorm.DB, samplePointID uuid.UUID, parameter string, excludeSampleID uuid.UUID, limit int) ([]HistoryPoint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []HistoryPoint
	q := transaction.WithContext(ctx).
		Table("sample_result").
		Select("sample_result.value AS value, sample.sampling_date AS sampling_date, sample_result.created_at AS created_at").
		Joins("JOIN sample ON sample.id = sample_result.sample_id").
		Where("sample.sample_point_id = ?", samplePointID).
		Where("sample_result.parameter = ?", parameter)
	if excludeSampleID != uuid.Nil {
		q = q.Where("sample.id <> ?", excludeSampleID)
	}
	if err := q.Order("sample_result.created_at DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
