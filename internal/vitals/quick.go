package vitals

import (
	"errors"
	"fmt"
	"math"
)

// QuickResult is the outcome of the standalone glucose/BMI checkers.
type QuickResult struct {
	Field          string   `json:"field"`
	Value          float64  `json:"value"`
	Display        string   `json:"display"`
	Result         string   `json:"result"`
	Severity       Severity `json:"severity"`
	Color          string   `json:"color"`
	Recommendation string   `json:"recommendation"`
}

var quickText = map[string]map[string][2]string{
	Glucose: {
		StatusLow:      {"Low - Hypoglycemia", "Consume fast-acting carbs immediately. Contact healthcare provider."},
		StatusNormal:   {"Normal", "Excellent! Maintain current lifestyle."},
		StatusElevated: {"Elevated - Pre-diabetes range", "Consider lifestyle changes. Monitor regularly."},
		StatusHigh:     {"High - Diabetes range", "Seek immediate medical attention. This may indicate diabetes."},
	},
	BMI: {
		StatusUnderweight: {"Underweight", "Consider gaining weight through healthy eating and exercise."},
		StatusNormal:      {"Normal weight", "Great! Maintain current weight through healthy lifestyle."},
		StatusOverweight:  {"Overweight", "Consider weight loss through diet and exercise."},
		StatusObese:       {"Obese", "Weight loss is important. Consult healthcare provider for guidance."},
	},
}

// QuickCheck classifies a single glucose or BMI reading outside the form.
func QuickCheck(field string, v float64) (QuickResult, error) {
	name := normalizeName(field)
	text, ok := quickText[name]
	if !ok {
		return QuickResult{}, fmt.Errorf("quick check not available for %q", field)
	}
	if math.IsNaN(v) || v <= 0 {
		return QuickResult{}, fmt.Errorf("please enter a valid %s value", name)
	}

	ann := Classify(name, v)
	display := FormatNumber(v) + " mg/dL"
	if name == BMI {
		display = fmt.Sprintf("%.1f", v)
	}
	t := text[ann.Status]
	return QuickResult{
		Field:          name,
		Value:          v,
		Display:        display,
		Result:         t[0],
		Severity:       ann.Severity,
		Color:          ann.Color,
		Recommendation: t[1],
	}, nil
}

// BMIResult is the output of the BMI calculator.
type BMIResult struct {
	BMI        float64  `json:"bmi"`
	Category   string   `json:"category"`
	Status     string   `json:"status"`
	Severity   Severity `json:"severity"`
	Color      string   `json:"color"`
	InFormBand bool     `json:"in_form_range"`
}

var ErrInvalidBodyMeasure = errors.New("please enter valid height and weight values")

// CalculateBMI derives BMI from height in centimetres and weight in kilograms,
// rounded to one decimal the way the calculator displays it.
func CalculateBMI(heightCm, weightKg float64) (BMIResult, error) {
	if math.IsNaN(heightCm) || math.IsNaN(weightKg) || heightCm <= 0 || weightKg <= 0 {
		return BMIResult{}, ErrInvalidBodyMeasure
	}
	m := heightCm / 100
	bmi := math.Round(weightKg/(m*m)*10) / 10

	ann := Classify(BMI, bmi)
	f, _ := Lookup(BMI)
	return BMIResult{
		BMI:        bmi,
		Category:   ann.Message,
		Status:     ann.Status,
		Severity:   ann.Severity,
		Color:      ann.Color,
		InFormBand: f.Range.Contains(bmi),
	}, nil
}
