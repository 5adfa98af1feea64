package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
)

type AlertFilter struct {
	Acknowledged *bool
}

type AlertRepo interface {
	Create(ctx context.Context, tx *gorm.DB, alerts []*types.Alert) ([]*types.Alert, error)
	List(ctx context.Context, tx *gorm.DB, filter AlertFilter) ([]*types.Alert, error)
	HasOpenForSample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID, alertType string) (bool, error)
	Acknowledge(ctx context.Context, tx *gorm.DB, id uuid.UUID, by string) (*types.Alert, error)
}

type alertRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlertRepo(db *gorm.DB, baseLog *logger.Logger) AlertRepo {
	repoLog := baseLog.With("repo", "AlertRepo")
	return &alertRepo{db: db, log: repoLog}
}

func (r *alertRepo) Create(ctx context.Context, tx *gorm.DB, alerts []*types.Alert) ([]*types.Alert, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(alerts) == 0 {
		return []*types.Alert{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepo) List(ctx context.Context, tx *gorm.DB, filter AlertFilter) ([]*types.Alert, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Alert
	q := transaction.WithContext(ctx).
		Model(&types.Alert{}).
		Preload("Sample")
	if filter.Acknowledged != nil {
		q = q.Where("acknowledged = ?", *filter.Acknowledged)
	}
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *alertRepo) HasOpenForSample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID, alertType string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Alert{}).
		Where("sample_id = ? AND type = ? AND acknowledged = ?", sampleID, alertType, false).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *alertRepo) Acknowledge(ctx context.Context, tx *gorm.DB, id uuid.UUID, by string) (*types.Alert, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var alert types.Alert
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&alert).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = by
	alert.AcknowledgedAt = &now
	if err := transaction.WithContext(ctx).Save(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}
