package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/viniciosgnr/MMT/internal/logger"
)

// ReportType distinguishes the two GT Química lab-report layouts.
type ReportType string

const (
	ReportTypePVT ReportType = "PVT"
	ReportTypeCRO ReportType = "CRO"
)

// Units as they appear on the printed reports.
const (
	UnitDensity = "kg/m³"
	UnitRS      = "m³ STD gás/STD óleo morto"
	UnitFE      = "-"
	UnitO2      = "%"
)

// ErrUnknownReportType is returned when neither the document content nor the
// filename identifies the report as PVT or CRO. This is the only fatal
// extraction outcome; missing individual fields are not errors.
var ErrUnknownReportType = errors.New("unable to determine report type")

// ExtractedReport holds whatever could be read from a lab report. Numeric
// fields are nil when absent from the text. RawText is kept for audit only.
type ExtractedReport struct {
	ReportType   ReportType `json:"report_type"`
	Boletim      string     `json:"boletim"`
	TagPoint     string     `json:"tag_point"`
	SamplingDate string     `json:"sampling_date"`

	// PVT fields
	Density *float64 `json:"density,omitempty"`
	RS      *float64 `json:"rs,omitempty"`
	FE      *float64 `json:"fe,omitempty"`

	// CRO fields
	O2            *float64 `json:"o2,omitempty"`
	DensityAbsStd *float64 `json:"density_abs_std,omitempty"`
	DensityAbsOp  *float64 `json:"density_abs_op,omitempty"`

	RawText string `json:"-"`
}

type ReportExtractor interface {
	Extract(documentBytes []byte, filenameHint string) (*ExtractedReport, error)
}

type reportExtractor struct {
	log *logger.Logger
}

func NewReportExtractor(baseLog *logger.Logger) ReportExtractor {
	return &reportExtractor{log: baseLog.With("service", "ReportExtractor")}
}

var (
	pvtMarkerRe  = regexp.MustCompile(`RGO ou RS|Fator de Encolhimento|FE\n|Massa específica`)
	croMarkerRe  = regexp.MustCompile(`(?i)Cromatografia|Composição.*Gás|Concentração\s+Molar`)
	pvtPrefixRe  = regexp.MustCompile(`PVT\s`)
	croPrefixRe  = regexp.MustCompile(`CRO\s`)
	tagPointRe   = regexp.MustCompile(`(\d{3}-AP-\d{4}\s*/\s*P-\d+(?:\s*\([^)]+\))?)`)
	boletimRe    = regexp.MustCompile(`Boletim de Resultado de Análise N°\n(.+)`)
	boletimKind  = regexp.MustCompile(`^(PVT|CRO)\s`)
	boletimAnyRe = regexp.MustCompile(`((PVT|CRO)\s+\S+/\d{2}-\d+)`)
	dateFPSORe   = regexp.MustCompile(`FPSO\s+.*?\n(\d{2}/\d{2}/\d{4})`)
	dateRecebRe  = regexp.MustCompile(`Data de Receb.*?\n.*?(\d{2}/\d{2}/\d{4})`)

	densityRe    = regexp.MustCompile(`Massa específica absoluta.*?\n([\d,]+)`)
	rsRe         = regexp.MustCompile(`RGO ou RS\n([\d,]+)`)
	feRe         = regexp.MustCompile(`\bFE\n([\d,]+)`)
	o2Re         = regexp.MustCompile(`O2\nOxigênio\n\w+\n([\d,]+)`)
	densityAbsRe = regexp.MustCompile(`Densidade Absoluta\n\w+\n([\d,]+)\nkg/m`)
)

const (
	stdSectionMarker = "Propriedades do Gás (Condição Padrão)"
	opSectionMarker  = "Propriedades do Gás (Condição Operação"
	contamMarker     = "Contaminantes"
)

// Extract converts the document to text, detects the report kind (content
// markers first, filename hint as fallback) and pulls the kind's fields from
// their positional anchors. Values use comma decimal separators.
func (e *reportExtractor) Extract(documentBytes []byte, filenameHint string) (*ExtractedReport, error) {
	text := string(documentBytes)

	kind := detectReportType(text)
	if kind == "" && filenameHint != "" {
		upper := strings.ToUpper(filenameHint)
		if strings.Contains(upper, "PVT") {
			kind = ReportTypePVT
		} else if strings.Contains(upper, "CRO") {
			kind = ReportTypeCRO
		}
	}

	switch kind {
	case ReportTypePVT:
		return e.extractPVT(text), nil
	case ReportTypeCRO:
		return e.extractCRO(text), nil
	}
	e.log.Warn("Report type undetectable", "filename", filenameHint)
	return nil, ErrUnknownReportType
}

func detectReportType(text string) ReportType {
	if pvtMarkerRe.MatchString(text) {
		return ReportTypePVT
	}
	if croMarkerRe.MatchString(text) {
		return ReportTypeCRO
	}
	// Fallback: boletim number prefix anywhere in the text.
	if pvtPrefixRe.MatchString(text) {
		return ReportTypePVT
	}
	if croPrefixRe.MatchString(text) {
		return ReportTypeCRO
	}
	return ""
}

func (e *reportExtractor) extractPVT(text string) *ExtractedReport {
	result := &ExtractedReport{
		ReportType:   ReportTypePVT,
		Boletim:      extractBoletim(text),
		TagPoint:     extractTagPoint(text),
		SamplingDate: extractSamplingDate(text),
		RawText:      text,
	}
	result.Density = parseBRFloat(firstGroup(densityRe, text))
	result.RS = parseBRFloat(firstGroup(rsRe, text))
	result.FE = parseBRFloat(firstGroup(feRe, text))
	return result
}

func (e *reportExtractor) extractCRO(text string) *ExtractedReport {
	result := &ExtractedReport{
		ReportType:   ReportTypeCRO,
		Boletim:      extractBoletim(text),
		TagPoint:     extractTagPoint(text),
		SamplingDate: extractSamplingDate(text),
		RawText:      text,
	}
	result.O2 = parseBRFloat(firstGroup(o2Re, text))

	// Absolute density appears once under the standard-condition section and
	// once under the operating-condition section; split the text on the
	// section headers and anchor within each slice.
	var stdSection, opSection string
	stdIdx := strings.Index(text, stdSectionMarker)
	opIdx := strings.Index(text, opSectionMarker)
	if stdIdx >= 0 && opIdx > stdIdx {
		stdSection = text[stdIdx:opIdx]
		opSection = text[opIdx:]
		if contamIdx := strings.Index(opSection, contamMarker); contamIdx >= 0 {
			opSection = opSection[:contamIdx]
		}
	} else if stdIdx >= 0 {
		stdSection = text[stdIdx:]
	}

	result.DensityAbsStd = parseBRFloat(firstGroup(densityAbsRe, stdSection))
	result.DensityAbsOp = parseBRFloat(firstGroup(densityAbsRe, opSection))
	return result
}

// extractTagPoint pulls the sampling tag/point, e.g. "662-AP-2233 / P-02".
func extractTagPoint(text string) string {
	return strings.TrimSpace(firstGroup(tagPointRe, text))
}

// extractBoletim pulls the boletim number, e.g. "PVT Sepetiba/26-16901".
func extractBoletim(text string) string {
	if m := boletimRe.FindStringSubmatch(text); m != nil {
		value := strings.TrimSpace(m[1])
		// The next line can leak into the capture; keep only values that
		// actually start with the report kind.
		if boletimKind.MatchString(value) {
			return value
		}
	}
	return strings.TrimSpace(firstGroup(boletimAnyRe, text))
}

// extractSamplingDate pulls the collection date, which sits right under the
// FPSO name in the report layout.
func extractSamplingDate(text string) string {
	if d := firstGroup(dateFPSORe, text); d != "" {
		return d
	}
	return firstGroup(dateRecebRe, text)
}

func firstGroup(re *regexp.Regexp, text string) string {
	if text == "" {
		return ""
	}
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// parseBRFloat parses a Brazilian-format number (comma decimal separator).
func parseBRFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}
