package services

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viniciosgnr/MMT/internal/logger"
)

// SLAConfig describes the service levels agreed for one combination of
// sample classification, analysis type and processing local. Day counts are
// measured from the sampling date; FCDays counts from report emission. A nil
// day count means the milestone does not apply (offshore processing).
type SLAConfig struct {
	IntervalDays     int  `yaml:"interval_days"`
	DisembarkDays    *int `yaml:"disembark_days"`
	LabDays          *int `yaml:"lab_days"`
	ReportDays       *int `yaml:"report_days"`
	FCDays           *int `yaml:"fc_days"`
	FCIsBusinessDays bool `yaml:"fc_is_business_days"`
	NeedsValidation  bool `yaml:"needs_validation"`
}

type slaKey struct {
	Classification string
	AnalysisType   string
	Local          string
}

type slaOverride struct {
	Classification string    `yaml:"classification"`
	AnalysisType   string    `yaml:"analysis_type"`
	Local          string    `yaml:"local"`
	Config         SLAConfig `yaml:"config"`
}

// SLAService resolves the SLA configuration for a sample point and suggests
// the next collection date once a sample is approved.
type SLAService interface {
	Config(classification, analysisType, local string) SLAConfig
	NextCollectionDate(classification, analysisType, local string, samplingDate time.Time) time.Time
}

type slaService struct {
	log    *logger.Logger
	matrix map[slaKey]SLAConfig
}

// NewSLAService builds the built-in matrix and applies overrides from the
// yaml file at path, when given.
func NewSLAService(baseLog *logger.Logger, path string) (SLAService, error) {
	serviceLog := baseLog.With("service", "SLAService")
	svc := &slaService{log: serviceLog, matrix: defaultSLAMatrix()}
	if path != "" {
		if err := svc.loadOverrides(path); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func (ss *slaService) loadOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read SLA matrix file: %w", err)
	}
	var overrides []slaOverride
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("parse SLA matrix file: %w", err)
	}
	for _, o := range overrides {
		key := slaKey{o.Classification, o.AnalysisType, o.Local}
		ss.matrix[key] = o.Config
	}
	ss.log.Info("SLA matrix overrides applied", "path", path, "entries", len(overrides))
	return nil
}

func (ss *slaService) Config(classification, analysisType, local string) SLAConfig {
	if cfg, ok := ss.matrix[slaKey{classification, analysisType, local}]; ok {
		return cfg
	}
	// Safe fallback for combinations not strictly defined: the shortest
	// interval plus the standard 10/20/25/30 projection pattern.
	cfg := SLAConfig{
		IntervalDays:    30,
		ReportDays:      intPtr(25),
		FCDays:          intPtr(5),
		NeedsValidation: true,
	}
	if local == "Onshore" {
		cfg.DisembarkDays = intPtr(10)
		cfg.LabDays = intPtr(20)
	}
	return cfg
}

func (ss *slaService) NextCollectionDate(classification, analysisType, local string, samplingDate time.Time) time.Time {
	cfg := ss.Config(classification, analysisType, local)
	return samplingDate.AddDate(0, 0, cfg.IntervalDays)
}

func defaultSLAMatrix() map[slaKey]SLAConfig {
	onshore := func(interval, report, fc int, fcBusiness, needsValidation bool) SLAConfig {
		cfg := SLAConfig{
			IntervalDays:     interval,
			DisembarkDays:    intPtr(10),
			LabDays:          intPtr(20),
			ReportDays:       intPtr(report),
			FCIsBusinessDays: fcBusiness,
			NeedsValidation:  needsValidation,
		}
		if fc > 0 {
			cfg.FCDays = intPtr(fc)
		}
		return cfg
	}
	offshore := func(interval, report, fc int, fcBusiness, needsValidation bool) SLAConfig {
		cfg := SLAConfig{
			IntervalDays:     interval,
			ReportDays:       intPtr(report),
			FCIsBusinessDays: fcBusiness,
			NeedsValidation:  needsValidation,
		}
		if fc > 0 {
			cfg.FCDays = intPtr(fc)
		}
		return cfg
	}
	return map[slaKey]SLAConfig{
		{"Fiscal", "Chromatography", "Onshore"}:       onshore(30, 25, 3, true, true),
		{"Fiscal", "Chromatography", "Offshore"}:      offshore(30, 25, 3, true, true),
		{"Apropriation", "Chromatography", "Onshore"}: onshore(90, 25, 3, true, true),
		{"Apropriation", "Chromatography", "Offshore"}: offshore(90, 25, 3, true, true),
		{"Operational", "Chromatography", "Onshore"}:  onshore(180, 45, 10, true, true),
		{"Operational", "Chromatography", "Offshore"}: offshore(180, 45, 10, true, true),
		{"Apropriation", "PVT", "Onshore"}:            onshore(90, 25, 0, false, true),
		{"Apropriation", "PVT", "Offshore"}:           offshore(90, 25, 0, false, true),
		{"Fiscal", "Enxofre", "Onshore"}:              onshore(365, 25, 0, false, false),
		{"Fiscal", "Enxofre", "Offshore"}:             offshore(365, 25, 0, false, false),
		{"Fiscal", "Viscosity", "Onshore"}:            onshore(365, 45, 0, false, false),
		{"Fiscal", "Viscosity", "Offshore"}:           offshore(365, 45, 0, false, false),
		{"Custody Transfer", "Viscosity", "Onshore"}:  onshore(365, 45, 0, false, false),
		{"Custody Transfer", "Viscosity", "Offshore"}: offshore(365, 45, 0, false, false),
	}
}

func intPtr(v int) *int { return &v }
