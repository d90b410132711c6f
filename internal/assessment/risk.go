package assessment

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Skufu/glucocheck/internal/vitals"
)

// RiskLevel maps a prediction and its probability (a fraction in [0,1]) to
// the headline label shown on the result card.
func RiskLevel(probability float64, positive bool) string {
	pct := probability * 100
	if positive {
		switch {
		case pct > 80:
			return "High Risk"
		case pct > 60:
			return "Moderate Risk"
		default:
			return "Low-Moderate Risk"
		}
	}
	switch {
	case pct > 80:
		return "Very Low Risk"
	case pct > 60:
		return "Low Risk"
	default:
		return "Minimal Risk"
	}
}

// RiskCategory buckets the raw probability regardless of polarity.
func RiskCategory(probability float64) string {
	switch {
	case probability < 0.2:
		return "Very Low Risk"
	case probability < 0.4:
		return "Low Risk"
	case probability < 0.6:
		return "Moderate Risk"
	case probability < 0.8:
		return "High Risk"
	default:
		return "Very High Risk"
	}
}

func MedicalPriority(prediction int, probability float64) string {
	if prediction == 1 {
		switch {
		case probability > 0.8:
			return "URGENT - Immediate medical consultation required"
		case probability > 0.6:
			return "HIGH - Schedule appointment within 1-2 weeks"
		default:
			return "MEDIUM - Schedule appointment within 1 month"
		}
	}
	if probability > 0.4 {
		return "LOW - Annual check-up recommended"
	}
	return "ROUTINE - Continue healthy lifestyle"
}

// Confidence is the distance of probability from the decision boundary,
// scaled to [0,1], with its coarse level.
func Confidence(probability float64) (float64, string) {
	c := math.Abs(probability-0.5) * 2
	switch {
	case c > 0.6:
		return c, "High"
	case c > 0.3:
		return c, "Medium"
	default:
		return c, "Low"
	}
}

// FormatPercent renders a fraction as a one-decimal percentage, e.g. "85.0%".
func FormatPercent(probability float64) string {
	return decimal.NewFromFloat(probability).Shift(2).StringFixed(1) + "%"
}

// RiskFactor is one input that contributes to the assessed risk.
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Value       float64 `json:"value"`
	Level       string  `json:"level"`
	Description string  `json:"description"`
}

// RiskFactors lists the inputs classified above their normal band, using
// the same threshold table as the form indicators.
func RiskFactors(in vitals.Inputs) []RiskFactor {
	var out []RiskFactor
	add := func(field, factor, high, moderate string) {
		if !isAbove(in, field) {
			return
		}
		v := in.Get(field)
		f := RiskFactor{Factor: factor, Value: v, Level: "moderate", Description: moderate}
		if vitals.Classify(field, v).Severity == vitals.SeverityError {
			f.Level = "high"
			f.Description = high
		}
		out = append(out, f)
	}

	add(vitals.Glucose, "Blood Glucose",
		"Elevated blood glucose levels increase diabetes risk",
		"Slightly elevated blood glucose levels")
	add(vitals.BMI, "BMI",
		"Obesity significantly increases diabetes risk",
		"Overweight increases diabetes risk")
	add(vitals.BloodPressure, "Blood Pressure",
		"High blood pressure is linked to diabetes",
		"Elevated blood pressure")
	if age := in.Get(vitals.Age); vitals.Classify(vitals.Age, age).Status == vitals.StatusHighRisk {
		out = append(out, RiskFactor{Factor: "Age", Value: age, Level: "moderate", Description: "Age increases diabetes risk"})
	}
	return out
}

const maxRecommendations = 8

// Recommendations returns personalised advice, most specific first.
func Recommendations(r Record) []string {
	var recs []string
	if r.Positive() {
		recs = append(recs,
			"Consult with a healthcare professional immediately",
			"Schedule comprehensive diabetes screening tests",
			"Begin monitoring blood glucose levels daily",
		)
	}
	if isAbove(r.Inputs, vitals.BMI) {
		recs = append(recs,
			"Focus on weight management through diet and exercise",
			"Consider consulting a nutritionist",
			"Aim for 150 minutes of moderate exercise weekly",
		)
	}
	if isAbove(r.Inputs, vitals.Glucose) {
		recs = append(recs,
			"Adopt a low-glycemic diet",
			"Limit refined sugars and processed foods",
			"Monitor blood sugar levels regularly",
		)
	}
	recs = append(recs,
		"Maintain a balanced diet rich in vegetables and whole grains",
		"Stay hydrated with plenty of water",
		"Get adequate sleep (7-9 hours per night)",
		"Manage stress through relaxation techniques",
		"Schedule regular health check-ups",
	)
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func NextSteps(prediction int, probability float64) []string {
	if prediction == 1 {
		if probability > 0.8 {
			return []string{
				"Schedule immediate appointment with healthcare provider",
				"Request comprehensive diabetes screening",
				"Begin daily blood glucose monitoring",
				"Review current medications with doctor",
			}
		}
		return []string{
			"Schedule appointment within 1-2 weeks",
			"Start tracking blood glucose levels",
			"Begin dietary modifications",
			"Increase physical activity",
		}
	}
	return []string{
		"Continue current healthy lifestyle",
		"Schedule annual health check-up",
		"Monitor weight and BMI regularly",
		"Maintain balanced diet and exercise routine",
	}
}

const maxLifestyleAdvice = 6

func LifestyleAdvice(in vitals.Inputs) []string {
	var advice []string
	switch vitals.Classify(vitals.BMI, in.Get(vitals.BMI)).Status {
	case vitals.StatusObese:
		advice = append(advice, "Focus on weight loss through calorie reduction and increased activity")
	case vitals.StatusOverweight:
		advice = append(advice, "Work towards gradual weight loss to reach healthy BMI range")
	}
	switch vitals.Classify(vitals.Glucose, in.Get(vitals.Glucose)).Status {
	case vitals.StatusHigh:
		advice = append(advice, "Strictly limit refined sugars and processed carbohydrates")
	case vitals.StatusElevated:
		advice = append(advice, "Reduce sugar intake and choose complex carbohydrates")
	}
	if vitals.Classify(vitals.BloodPressure, in.Get(vitals.BloodPressure)).Status == vitals.StatusHigh {
		advice = append(advice, "Reduce sodium intake and manage stress levels")
	}
	if vitals.Classify(vitals.Age, in.Get(vitals.Age)).Status == vitals.StatusHighRisk {
		advice = append(advice, "Increase frequency of health monitoring due to age-related risk")
	}
	advice = append(advice,
		"Aim for 150 minutes of moderate exercise weekly",
		"Include strength training exercises 2-3 times per week",
		"Stay hydrated with 8-10 glasses of water daily",
		"Get 7-9 hours of quality sleep nightly",
	)
	if len(advice) > maxLifestyleAdvice {
		advice = advice[:maxLifestyleAdvice]
	}
	return advice
}

// HealthRecommendations is the short advice list on the result card.
func HealthRecommendations(positive bool) []string {
	if positive {
		return []string{
			"Consult with a healthcare professional for proper diagnosis",
			"Consider regular blood sugar monitoring",
			"Adopt a balanced, low-sugar diet",
			"Incorporate regular physical activity",
			"Monitor your weight and BMI",
			"Stay hydrated and get adequate sleep",
			"Schedule regular medical check-ups",
		}
	}
	return []string{
		"Maintain your current healthy lifestyle",
		"Continue regular exercise routine",
		"Keep eating a balanced diet",
		"Stay within healthy weight range",
		"Schedule annual health screenings",
		"Monitor stress levels and manage effectively",
		"Stay informed about diabetes prevention",
	}
}

// isAbove reports whether field is classified past its normal band.
func isAbove(in vitals.Inputs, field string) bool {
	switch vitals.Classify(field, in.Get(field)).Status {
	case vitals.StatusElevated, vitals.StatusHigh, vitals.StatusOverweight, vitals.StatusObese:
		return true
	}
	return false
}
