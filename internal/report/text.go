package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

// EmptyHistoryText is exported when there is nothing to report on.
const EmptyHistoryText = "No prediction history available."

// TextFilename names a text export created at now.
func TextFilename(now time.Time) string {
	return fmt.Sprintf("diabetes_assessment_report_%s.txt", now.Format("20060102_150405"))
}

// Text renders the plain-text report of a most-recent-first history.
func Text(history []assessment.Record, now time.Time) string {
	if len(history) == 0 {
		return EmptyHistoryText
	}
	latest := history[0]
	in := latest.Inputs

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	heading := func(title string, rule int) {
		line("%s", title)
		line("%s", strings.Repeat("-", rule))
	}

	line("%s", strings.Repeat("=", 60))
	line("DIABETES RISK ASSESSMENT REPORT")
	line("%s", strings.Repeat("=", 60))
	line("Generated: %s", now.Format("January 02, 2006 at 03:04 PM"))
	line("Total Assessments: %d", len(history))
	line("")

	heading("LATEST ASSESSMENT RESULTS", 30)
	line("Date: %s", latest.Timestamp.Format("January 02, 2006"))
	line("Risk Level: %s", strings.ToUpper(Outcome(latest)))
	line("Probability: %s", assessment.FormatPercent(latest.Probability))
	line("Risk Category: %s", assessment.RiskCategory(latest.Probability))
	line("")

	num := func(field string) string { return vitals.FormatNumber(in.Get(field)) }
	heading("HEALTH PARAMETERS", 20)
	line("Age: %s years", num(vitals.Age))
	line("BMI: %s (%s)", num(vitals.BMI), Category(vitals.BMI, in.Get(vitals.BMI)))
	line("Glucose: %s mg/dL (%s)", num(vitals.Glucose), Category(vitals.Glucose, in.Get(vitals.Glucose)))
	line("Blood Pressure: %s mmHg (%s)", num(vitals.BloodPressure), Category(vitals.BloodPressure, in.Get(vitals.BloodPressure)))
	line("Insulin: %s μU/mL", num(vitals.Insulin))
	line("Pregnancies: %s", num(vitals.Pregnancies))
	line("Skin Thickness: %s mm", num(vitals.SkinThickness))
	line("Family History Score: %s", num(vitals.DPF))
	line("")

	heading("RECOMMENDATIONS", 15)
	for i, rec := range assessment.Recommendations(latest) {
		line("%d. %s", i+1, rec)
	}
	line("")

	if len(history) > 1 {
		s := assessment.Summarize(history)
		heading("TREND ANALYSIS", 15)
		line("Average Risk Probability: %s", s.AverageRisk)
		line("Average BMI: %.1f", s.AverageBMI)
		line("Average Glucose: %.1f mg/dL", s.AverageGlucose)
		line("Risk Trend: %s", s.Trend)
		line("")
	}

	heading("IMPORTANT DISCLAIMER", 19)
	line("This report is for educational purposes only and should not be used")
	line("for medical diagnosis. Please consult healthcare professionals for")
	line("proper medical advice and diabetes screening.")
	line("")
	b.WriteString("In case of emergency, call 911 immediately.")
	return b.String()
}
