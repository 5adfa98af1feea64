package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/types"
)

// AlertTypeOverdue tags alerts raised by the overdue sweep.
const AlertTypeOverdue = "overdue"

// criticalOverdueDays escalates an overdue alert to critical.
const criticalOverdueDays = 7

type AlertService interface {
	// SweepOverdue raises one open alert per overdue, unmitigated sample.
	// Samples that already carry an open overdue alert are skipped.
	SweepOverdue(ctx context.Context, asOf time.Time) ([]*types.Alert, error)
	List(ctx context.Context, filter repos.AlertFilter) ([]*types.Alert, error)
	Acknowledge(ctx context.Context, id uuid.UUID, by string) (*types.Alert, error)
	// RunSweeper loops SweepOverdue until the context is cancelled.
	RunSweeper(ctx context.Context, interval time.Duration)
}

type alertService struct {
	db         *gorm.DB
	log        *logger.Logger
	alertRepo  repos.AlertRepo
	sampleRepo repos.SampleRepo
}

func NewAlertService(db *gorm.DB, baseLog *logger.Logger, alertRepo repos.AlertRepo, sampleRepo repos.SampleRepo) AlertService {
	serviceLog := baseLog.With("service", "AlertService")
	return &alertService{db: db, log: serviceLog, alertRepo: alertRepo, sampleRepo: sampleRepo}
}

func (as *alertService) SweepOverdue(ctx context.Context, asOf time.Time) ([]*types.Alert, error) {
	overdue, err := as.sampleRepo.ListOverdue(ctx, nil, asOf)
	if err != nil {
		return nil, fmt.Errorf("list overdue samples: %w", err)
	}

	var created []*types.Alert
	for _, sample := range overdue {
		open, err := as.alertRepo.HasOpenForSample(ctx, nil, sample.ID, AlertTypeOverdue)
		if err != nil {
			return nil, err
		}
		if open {
			continue
		}

		daysLate := int(asOf.Sub(*sample.DueDate).Hours() / 24)
		severity := types.AlertWarning
		if daysLate >= criticalOverdueDays {
			severity = types.AlertCritical
		}
		alert := &types.Alert{
			ID:       uuid.New(),
			SampleID: sample.ID,
			Severity: severity,
			Type:     AlertTypeOverdue,
			Message: fmt.Sprintf("Sample %s is %d day(s) past its due date (%s, phase %q)",
				sample.SampleID, daysLate, sample.DueDate.Format("2006-01-02"), sample.Status),
			CreatedAt: time.Now(),
		}
		created = append(created, alert)
	}

	if len(created) > 0 {
		if _, err := as.alertRepo.Create(ctx, nil, created); err != nil {
			return nil, fmt.Errorf("create alerts: %w", err)
		}
	}
	as.log.Info("Overdue sweep completed", "overdue", len(overdue), "alerts_created", len(created))
	return created, nil
}

func (as *alertService) List(ctx context.Context, filter repos.AlertFilter) ([]*types.Alert, error) {
	return as.alertRepo.List(ctx, nil, filter)
}

func (as *alertService) Acknowledge(ctx context.Context, id uuid.UUID, by string) (*types.Alert, error) {
	alert, err := as.alertRepo.Acknowledge(ctx, nil, id, by)
	if err != nil {
		return nil, err
	}
	as.log.Info("Alert acknowledged", "alert_id", id, "by", by)
	return alert, nil
}

func (as *alertService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := as.SweepOverdue(ctx, time.Now()); err != nil {
				as.log.Error("Overdue sweep failed", "error", err)
			}
		}
	}
}
