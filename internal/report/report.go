// Package report builds the health report for the latest assessment and the
// downloadable exports of a history.
package report

import (
	"strings"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

type PatientSummary struct {
	Age           float64 `json:"age"`
	BMI           float64 `json:"bmi"`
	BMICategory   string  `json:"bmi_category"`
	GlucoseLevel  float64 `json:"glucose_level"`
	GlucoseStatus string  `json:"glucose_status"`
	BloodPressure float64 `json:"blood_pressure"`
	BPStatus      string  `json:"bp_status"`
}

type RiskAssessment struct {
	Prediction      string  `json:"prediction"`
	Probability     string  `json:"probability"`
	RiskLevel       string  `json:"risk_level"`
	RiskCategory    string  `json:"risk_category"`
	MedicalPriority string  `json:"medical_priority"`
	Confidence      float64 `json:"confidence"`
	ConfidenceLevel string  `json:"confidence_level"`
}

type HealthMetrics struct {
	InsulinLevel       float64 `json:"insulin_level"`
	SkinThickness      float64 `json:"skin_thickness"`
	Pregnancies        float64 `json:"pregnancies"`
	FamilyHistoryScore float64 `json:"family_history_score"`
}

// HealthReport is the structured report of a single assessment.
type HealthReport struct {
	RecordID        string                  `json:"record_id"`
	PatientSummary  PatientSummary          `json:"patient_summary"`
	RiskAssessment  RiskAssessment          `json:"risk_assessment"`
	HealthMetrics   HealthMetrics           `json:"health_metrics"`
	RiskFactors     []assessment.RiskFactor `json:"risk_factors"`
	Recommendations []string                `json:"recommendations"`
	NextSteps       []string                `json:"next_steps"`
	LifestyleAdvice []string                `json:"lifestyle_advice"`
}

// Generate builds the report for rec.
func Generate(rec assessment.Record) HealthReport {
	in := rec.Inputs
	confidence, level := assessment.Confidence(rec.Probability)
	factors := assessment.RiskFactors(in)
	if factors == nil {
		factors = []assessment.RiskFactor{}
	}

	return HealthReport{
		RecordID: rec.ID,
		PatientSummary: PatientSummary{
			Age:           in.Get(vitals.Age),
			BMI:           in.Get(vitals.BMI),
			BMICategory:   Category(vitals.BMI, in.Get(vitals.BMI)),
			GlucoseLevel:  in.Get(vitals.Glucose),
			GlucoseStatus: Category(vitals.Glucose, in.Get(vitals.Glucose)),
			BloodPressure: in.Get(vitals.BloodPressure),
			BPStatus:      Category(vitals.BloodPressure, in.Get(vitals.BloodPressure)),
		},
		RiskAssessment: RiskAssessment{
			Prediction:      Outcome(rec),
			Probability:     assessment.FormatPercent(rec.Probability),
			RiskLevel:       rec.RiskLevel(),
			RiskCategory:    assessment.RiskCategory(rec.Probability),
			MedicalPriority: assessment.MedicalPriority(rec.Prediction, rec.Probability),
			Confidence:      confidence,
			ConfidenceLevel: level,
		},
		HealthMetrics: HealthMetrics{
			InsulinLevel:       in.Get(vitals.Insulin),
			SkinThickness:      in.Get(vitals.SkinThickness),
			Pregnancies:        in.Get(vitals.Pregnancies),
			FamilyHistoryScore: in.Get(vitals.DPF),
		},
		RiskFactors:     factors,
		Recommendations: assessment.Recommendations(rec),
		NextSteps:       assessment.NextSteps(rec.Prediction, rec.Probability),
		LifestyleAdvice: assessment.LifestyleAdvice(in),
	}
}

// Outcome is the binary label used in reports and exports.
func Outcome(rec assessment.Record) string {
	if rec.Positive() {
		return "High Risk"
	}
	return "Low Risk"
}

// Category is the title-cased band of v, e.g. "Overweight".
func Category(field string, v float64) string {
	status := vitals.Classify(field, v).Status
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}
