package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
)

// HistoryEntry is one prior reading used to build the acceptance band.
type HistoryEntry struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// HistoryService is the read-only window over past validated readings of a
// parameter at a sample point. Only samples that already carry persisted
// results contribute; an empty window is a valid answer.
type HistoryService interface {
	ParameterHistory(ctx context.Context, tx *gorm.DB, samplePointID uuid.UUID, parameter string, excludeSampleID uuid.UUID, limit int) ([]HistoryEntry, error)
}

type historyService struct {
	db         *gorm.DB
	log        *logger.Logger
	resultRepo repos.SampleResultRepo
}

func NewHistoryService(db *gorm.DB, baseLog *logger.Logger, resultRepo repos.SampleResultRepo) HistoryService {
	serviceLog := baseLog.With("service", "HistoryService")
	return &historyService{db: db, log: serviceLog, resultRepo: resultRepo}
}

func (hs *historyService) ParameterHistory(ctx context.Context, tx *gorm.DB, samplePointID uuid.UUID, parameter string, excludeSampleID uuid.UUID, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = HistorySize
	}
	points, err := hs.resultRepo.GetParameterHistory(ctx, tx, samplePointID, parameter, excludeSampleID, limit)
	if err != nil {
		return nil, fmt.Errorf("parameter history for %s: %w", parameter, err)
	}
	entries := make([]HistoryEntry, 0, len(points))
	for _, p := range points {
		date := p.CreatedAt.Format("2006-01-02 15:04:05")
		if p.SamplingDate != nil {
			date = p.SamplingDate.Format("2006-01-02")
		}
		entries = append(entries, HistoryEntry{Value: p.Value, Date: date})
	}
	return entries, nil
}
