package services

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/types"
)

const (
	// O2Limit is the maximum oxygen content (%) allowed on a CRO report.
	// Exactly 0.5 passes; only values above the limit fail.
	O2Limit = 0.5
	// HistorySize is the rolling window used for the acceptance band.
	HistorySize = 10
	// SigmaMultiplier widens the band to mean ± 2 standard deviations.
	SigmaMultiplier = 2.0
)

// CheckResult is the outcome of a single per-parameter validation check.
type CheckResult struct {
	Parameter     string            `json:"parameter"`
	Value         float64           `json:"value"`
	Unit          string            `json:"unit"`
	Status        types.CheckStatus `json:"status"`
	Detail        string            `json:"detail"`
	HistoryMean   *float64          `json:"history_mean,omitempty"`
	HistoryStd    *float64          `json:"history_std,omitempty"`
	LowerBound    *float64          `json:"lower_bound,omitempty"`
	UpperBound    *float64          `json:"upper_bound,omitempty"`
	HistoryValues []float64         `json:"history_values,omitempty"`
	HistoryDates  []string          `json:"history_dates,omitempty"`
}

// ValidationSummary is the full verdict for one report.
type ValidationSummary struct {
	ReportType    ReportType              `json:"report_type"`
	OverallStatus types.ValidationOutcome `json:"overall_status"`
	Boletim       string                  `json:"boletim"`
	TagPoint      string                  `json:"tag_point"`
	Checks        []CheckResult           `json:"checks"`
	PassedCount   int                     `json:"passed_count"`
	FailedCount   int                     `json:"failed_count"`
}

// ValidationService applies the hard-limit and 2-sigma historical checks to
// an extracted report. It reads history but persists nothing; storing the
// result set belongs to the caller.
type ValidationService interface {
	Validate(ctx context.Context, tx *gorm.DB, extracted *ExtractedReport, sample *types.Sample) (*ValidationSummary, error)
}

type validationService struct {
	db      *gorm.DB
	log     *logger.Logger
	history HistoryService
}

func NewValidationService(db *gorm.DB, baseLog *logger.Logger, history HistoryService) ValidationService {
	serviceLog := baseLog.With("service", "ValidationService")
	return &validationService{db: db, log: serviceLog, history: history}
}

// bandParam is one parameter queued for a 2-sigma band check.
type bandParam struct {
	name  string
	value float64
	unit  string
}

func (vs *validationService) Validate(ctx context.Context, tx *gorm.DB, extracted *ExtractedReport, sample *types.Sample) (*ValidationSummary, error) {
	if extracted == nil {
		return nil, fmt.Errorf("nothing extracted")
	}
	summary := &ValidationSummary{
		ReportType:    extracted.ReportType,
		OverallStatus: types.OutcomeApproved,
		Boletim:       extracted.Boletim,
		TagPoint:      extracted.TagPoint,
	}

	var hardChecks []CheckResult
	var band []bandParam

	switch extracted.ReportType {
	case ReportTypePVT:
		if extracted.Density != nil {
			band = append(band, bandParam{"density", *extracted.Density, UnitDensity})
		}
		if extracted.RS != nil {
			band = append(band, bandParam{"rs", *extracted.RS, UnitRS})
		}
		if extracted.FE != nil {
			band = append(band, bandParam{"fe", *extracted.FE, UnitFE})
		}
	case ReportTypeCRO:
		if extracted.O2 != nil {
			hardChecks = append(hardChecks, checkO2Limit(*extracted.O2))
		}
		if extracted.DensityAbsOp != nil {
			band = append(band, bandParam{"density_abs_op", *extracted.DensityAbsOp, UnitDensity})
		}
		if extracted.DensityAbsStd != nil {
			band = append(band, bandParam{"density_abs_std", *extracted.DensityAbsStd, UnitDensity})
		}
	default:
		return nil, fmt.Errorf("unknown report type %q", extracted.ReportType)
	}

	// Fetch history windows concurrently; check order stays deterministic.
	histories := make([][]HistoryEntry, len(band))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range band {
		i, p := i, p
		g.Go(func() error {
			h, err := vs.history.ParameterHistory(gctx, tx, sample.SamplePointID, p.name, sample.ID, HistorySize)
			if err != nil {
				return err
			}
			histories[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Checks = append(summary.Checks, hardChecks...)
	for i, p := range band {
		summary.Checks = append(summary.Checks, checkTwoSigma(p.name, p.value, p.unit, histories[i]))
	}

	for _, c := range summary.Checks {
		switch c.Status {
		case types.CheckPass:
			summary.PassedCount++
		case types.CheckFail:
			summary.FailedCount++
			summary.OverallStatus = types.OutcomeReproved
		}
	}

	vs.log.Info("Report validated",
		"sample_id", sample.SampleID,
		"report_type", summary.ReportType,
		"overall_status", summary.OverallStatus,
		"passed", summary.PassedCount,
		"failed", summary.FailedCount,
	)
	return summary, nil
}

// checkTwoSigma tests whether value falls inside mean ± 2σ of the historical
// window. Sparse history is padded with the current value up to HistorySize,
// which bootstraps a baseline: the first reading at a new point always
// passes (σ = 0) and the band only tightens as genuine history accumulates.
// Product owners accepted that this soft start cannot flag an implausible
// first reading.
func checkTwoSigma(parameter string, value float64, unit string, history []HistoryEntry) CheckResult {
	histValues := make([]float64, 0, HistorySize)
	histDates := make([]string, 0, HistorySize)
	for _, h := range history {
		histValues = append(histValues, h.Value)
		histDates = append(histDates, h.Date)
	}

	bootstrapped := len(histValues) < HistorySize
	for len(histValues) < HistorySize {
		histValues = append(histValues, value)
		histDates = append(histDates, "bootstrap")
	}

	var sum float64
	for _, v := range histValues {
		sum += v
	}
	mean := sum / float64(len(histValues))

	var sqDev float64
	for _, v := range histValues {
		sqDev += (v - mean) * (v - mean)
	}
	variance := sqDev / float64(len(histValues)-1)
	std := math.Sqrt(variance)

	lower := mean - SigmaMultiplier*std
	upper := mean + SigmaMultiplier*std
	within := lower <= value && value <= upper

	detailSuffix := ""
	if bootstrapped {
		detailSuffix = " (bootstrapped baseline)"
	}
	var detail string
	if within {
		detail = fmt.Sprintf("Within 2σ range [%.4f - %.4f] (μ=%.4f, σ=%.4f)%s", lower, upper, mean, std, detailSuffix)
	} else {
		detail = fmt.Sprintf("Outside 2σ range [%.4f - %.4f] (μ=%.4f, σ=%.4f)%s", lower, upper, mean, std, detailSuffix)
	}

	status := types.CheckPass
	if !within {
		status = types.CheckFail
	}
	return CheckResult{
		Parameter:     parameter,
		Value:         value,
		Unit:          unit,
		Status:        status,
		Detail:        detail,
		HistoryMean:   &mean,
		HistoryStd:    &std,
		LowerBound:    &lower,
		UpperBound:    &upper,
		HistoryValues: histValues,
		HistoryDates:  histDates,
	}
}

// checkO2Limit applies the fixed oxygen ceiling; no history is consulted.
func checkO2Limit(value float64) CheckResult {
	if value > O2Limit {
		return CheckResult{
			Parameter: "o2",
			Value:     value,
			Unit:      UnitO2,
			Status:    types.CheckFail,
			Detail:    fmt.Sprintf("O₂ = %g%% exceeds limit of %g%%", value, O2Limit),
		}
	}
	return CheckResult{
		Parameter: "o2",
		Value:     value,
		Unit:      UnitO2,
		Status:    types.CheckPass,
		Detail:    fmt.Sprintf("O₂ = %g%% is below %g%% limit", value, O2Limit),
	}
}
