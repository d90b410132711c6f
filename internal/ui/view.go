package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

type FieldView struct {
	Name       string            `json:"name"`
	Label      string            `json:"label"`
	Unit       string            `json:"unit,omitempty"`
	Min        float64           `json:"min"`
	Max        float64           `json:"max"`
	Value      string            `json:"value"`
	Annotation vitals.Annotation `json:"annotation"`
}

// StepView is the visible page of the multi-step form.
type StepView struct {
	Step       int         `json:"step"`
	TotalSteps int         `json:"total_steps"`
	Fields     []FieldView `json:"fields"`
	ShowPrev   bool        `json:"show_prev"`
	ShowNext   bool        `json:"show_next"`
	ShowSubmit bool        `json:"show_submit"`
	CanSubmit  bool        `json:"can_submit"`
}

func RenderStep(s State) StepView {
	v := StepView{
		Step:       s.Step,
		TotalSteps: vitals.TotalSteps,
		ShowPrev:   s.Step > 1,
		ShowNext:   s.Step < vitals.TotalSteps,
		ShowSubmit: s.Step == vitals.TotalSteps,
		CanSubmit:  vitals.Valid(s.Form),
	}
	for _, name := range vitals.StepFields(s.Step) {
		f, _ := vitals.Lookup(name)
		ann, ok := s.Annotations[name]
		if !ok {
			ann = vitals.Annotation{Field: name}
		}
		v.Fields = append(v.Fields, FieldView{
			Name:       f.Name,
			Label:      f.Label,
			Unit:       f.Unit,
			Min:        f.Range.Min,
			Max:        f.Range.Max,
			Value:      s.Form[name],
			Annotation: ann,
		})
	}
	return v
}

// ResultView is the result card for one assessment.
type ResultView struct {
	RecordID        string                  `json:"record_id"`
	Positive        bool                    `json:"positive"`
	Title           string                  `json:"title"`
	RiskLevel       string                  `json:"risk_level"`
	Probability     string                  `json:"probability"`
	Confidence      string                  `json:"confidence"`
	ConfidenceLevel string                  `json:"confidence_level"`
	RiskFactors     []assessment.RiskFactor `json:"risk_factors,omitempty"`
	Recommendations []string                `json:"recommendations"`
}

func RenderRecord(rec assessment.Record) ResultView {
	confidence, level := assessment.Confidence(rec.Probability)
	title := "Low Diabetes Risk"
	if rec.Positive() {
		title = "Diabetes Risk Detected"
	}
	return ResultView{
		RecordID:        rec.ID,
		Positive:        rec.Positive(),
		Title:           title,
		RiskLevel:       rec.RiskLevel(),
		Probability:     assessment.FormatPercent(rec.Probability),
		Confidence:      assessment.FormatPercent(confidence),
		ConfidenceLevel: level,
		RiskFactors:     assessment.RiskFactors(rec.Inputs),
		Recommendations: assessment.HealthRecommendations(rec.Positive()),
	}
}

// HistoryItem is one row of the history list.
type HistoryItem struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Positive    bool    `json:"positive"`
	RiskLevel   string  `json:"risk_level"`
	Probability string  `json:"probability"`
	Glucose     float64 `json:"glucose"`
	BMI         float64 `json:"bmi"`
	Age         float64 `json:"age"`
}

// HistoryView is the history section: summary stats plus the list.
type HistoryView struct {
	Stats assessment.Stats `json:"stats"`
	Items []HistoryItem    `json:"items"`
	Empty bool             `json:"empty"`
}

func RenderHistory(history []assessment.Record, loc *time.Location) HistoryView {
	if loc == nil {
		loc = time.UTC
	}
	v := HistoryView{
		Stats: assessment.Summarize(history),
		Items: make([]HistoryItem, 0, len(history)),
		Empty: len(history) == 0,
	}
	for _, rec := range history {
		ts := rec.Timestamp.In(loc)
		v.Items = append(v.Items, HistoryItem{
			ID:          rec.ID,
			Date:        ts.Format("Jan 2, 2006"),
			Time:        ts.Format("3:04 PM"),
			Positive:    rec.Positive(),
			RiskLevel:   rec.RiskLevel(),
			Probability: assessment.FormatPercent(rec.Probability),
			Glucose:     rec.Inputs.Get(vitals.Glucose),
			BMI:         rec.Inputs.Get(vitals.BMI),
			Age:         rec.Inputs.Get(vitals.Age),
		})
	}
	return v
}

// AnnotationLine is the one-line terminal form of an annotation.
func AnnotationLine(a vitals.Annotation) string {
	if !a.Entered() {
		return fmt.Sprintf("%s: not entered", a.Field)
	}
	return fmt.Sprintf("%s: %s [%s]", a.Field, a.Message, a.Status)
}

// WriteResult prints a result card for terminals.
func WriteResult(w io.Writer, r ResultView) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", r.Title, r.RiskLevel)
	fmt.Fprintf(&b, "Risk probability:  %s\n", r.Probability)
	fmt.Fprintf(&b, "Confidence:        %s (%s)\n", r.ConfidenceLevel, r.Confidence)
	if len(r.RiskFactors) > 0 {
		b.WriteString("\nRisk factors:\n")
		for _, f := range r.RiskFactors {
			fmt.Fprintf(&b, "  - %s %s (%s): %s\n", f.Factor, vitals.FormatNumber(f.Value), f.Level, f.Description)
		}
	}
	b.WriteString("\nRecommendations:\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHistory prints the history view as an aligned table.
func WriteHistory(w io.Writer, v HistoryView) error {
	if v.Empty {
		_, err := io.WriteString(w, "No assessment history yet.\n")
		return err
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Date", "Time", "Risk", "Probability", "Glucose", "BMI", "Age"})
	for _, it := range v.Items {
		t.AppendRow(table.Row{
			it.Date, it.Time, it.RiskLevel, it.Probability,
			vitals.FormatNumber(it.Glucose), vitals.FormatNumber(it.BMI), vitals.FormatNumber(it.Age),
		})
	}
	if _, err := io.WriteString(w, t.Render()+"\n"); err != nil {
		return err
	}
	s := v.Stats
	_, err := fmt.Fprintf(w, "\n%d assessments, %d high risk, average risk %s", s.Total, s.HighRiskCount, s.AverageRisk)
	if err == nil && s.Trend != "" {
		_, err = fmt.Fprintf(w, ", trend %s", s.Trend)
	}
	if err == nil {
		_, err = io.WriteString(w, "\n")
	}
	return err
}
