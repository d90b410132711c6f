package vitals

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Severity string

const (
	SeverityNone  Severity = ""
	SeverityOK    Severity = "ok"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Color returns the indicator color used by the form for s.
func (s Severity) Color() string {
	switch s {
	case SeverityOK:
		return "#10b981"
	case SeverityWarn:
		return "#f59e0b"
	case SeverityError:
		return "#ef4444"
	default:
		return ""
	}
}

// Status values produced by Annotate.
const (
	StatusInvalid      = "invalid"
	StatusLow          = "low"
	StatusNormal       = "normal"
	StatusElevated     = "elevated"
	StatusHigh         = "high"
	StatusUnderweight  = "underweight"
	StatusOverweight   = "overweight"
	StatusObese        = "obese"
	StatusLowRisk      = "low-risk"
	StatusModerateRisk = "moderate-risk"
	StatusHighRisk     = "high-risk"
)

// Annotation is the indicator shown next to a single form field.
// An empty Status means nothing has been entered yet.
type Annotation struct {
	Field    string   `json:"field"`
	Status   string   `json:"status,omitempty"`
	Message  string   `json:"message,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Color    string   `json:"color,omitempty"`
}

// Entered reports whether the annotation carries a classification.
func (a Annotation) Entered() bool {
	return a.Status != ""
}

// Blocking reports whether the value prevents submission.
func (a Annotation) Blocking() bool {
	return a.Status == StatusInvalid
}

type band struct {
	upper    float64 // inclusive unless below is set
	below    bool
	status   string
	message  string
	severity Severity
}

// thresholds is the canonical per-field sub-classification table. Bands are
// checked in order; the last band catches everything above.
var thresholds = map[string][]band{
	Glucose: {
		{upper: 70, below: true, status: StatusLow, message: "Low glucose level", severity: SeverityWarn},
		{upper: 100, status: StatusNormal, message: "Normal glucose level", severity: SeverityOK},
		{upper: 140, status: StatusElevated, message: "Elevated glucose level", severity: SeverityWarn},
		{upper: math.Inf(1), status: StatusHigh, message: "High glucose level", severity: SeverityError},
	},
	BMI: {
		{upper: 18.5, below: true, status: StatusUnderweight, message: "Underweight", severity: SeverityWarn},
		{upper: 24.9, status: StatusNormal, message: "Normal weight", severity: SeverityOK},
		{upper: 29.9, status: StatusOverweight, message: "Overweight", severity: SeverityWarn},
		{upper: math.Inf(1), status: StatusObese, message: "Obese", severity: SeverityError},
	},
	BloodPressure: {
		{upper: 80, status: StatusNormal, message: "Normal blood pressure", severity: SeverityOK},
		{upper: 90, status: StatusElevated, message: "Elevated blood pressure", severity: SeverityWarn},
		{upper: math.Inf(1), status: StatusHigh, message: "High blood pressure", severity: SeverityError},
	},
	Age: {
		{upper: 30, below: true, status: StatusLowRisk, message: "Lower diabetes risk age", severity: SeverityOK},
		{upper: 45, below: true, status: StatusModerateRisk, message: "Moderate diabetes risk age", severity: SeverityWarn},
		{upper: math.Inf(1), status: StatusHighRisk, message: "Higher diabetes risk age", severity: SeverityError},
	},
}

// Annotate classifies the raw value typed into field.
func Annotate(field, raw string) Annotation {
	name := normalizeName(field)
	ann := Annotation{Field: name}

	v, ok := parseValue(raw)
	if !ok {
		return ann
	}

	f, known := Lookup(name)
	if !known {
		return withSeverity(ann, StatusNormal, "Valid value", SeverityOK)
	}
	if !f.Range.Contains(v) {
		return withSeverity(ann, StatusInvalid, rangeMessage(f.Range), SeverityError)
	}
	return Classify(f.Name, v)
}

// Classify applies the threshold table to an in-range value.
func Classify(field string, v float64) Annotation {
	name := normalizeName(field)
	ann := Annotation{Field: name}
	for _, b := range thresholds[name] {
		if (b.below && v < b.upper) || (!b.below && v <= b.upper) {
			return withSeverity(ann, b.status, b.message, b.severity)
		}
	}
	return withSeverity(ann, StatusNormal, "Valid value", SeverityOK)
}

func withSeverity(a Annotation, status, message string, s Severity) Annotation {
	a.Status = status
	a.Message = message
	a.Severity = s
	a.Color = s.Color()
	return a
}

func rangeMessage(r Range) string {
	return fmt.Sprintf("Value must be between %s and %s", FormatNumber(r.Min), FormatNumber(r.Max))
}

// parseValue treats empty, non-numeric and NaN input as not entered.
func parseValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
