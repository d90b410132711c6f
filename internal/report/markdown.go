package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

// Markdown renders the report of a most-recent-first history as Markdown.
func Markdown(history []assessment.Record, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Diabetes Risk Assessment Report\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n\n", now.Format("January 02, 2006 at 03:04 PM"))
	if len(history) == 0 {
		b.WriteString(EmptyHistoryText + "\n")
		return b.String()
	}

	latest := history[0]
	r := Generate(latest)

	b.WriteString("## Latest assessment\n\n")
	fmt.Fprintf(&b, "- **Date:** %s\n", latest.Timestamp.Format("January 02, 2006"))
	fmt.Fprintf(&b, "- **Result:** %s (%s)\n", r.RiskAssessment.RiskLevel, r.RiskAssessment.Probability)
	fmt.Fprintf(&b, "- **Risk category:** %s\n", r.RiskAssessment.RiskCategory)
	fmt.Fprintf(&b, "- **Priority:** %s\n", r.RiskAssessment.MedicalPriority)
	fmt.Fprintf(&b, "- **Confidence:** %s\n\n", r.RiskAssessment.ConfidenceLevel)

	b.WriteString("## Health parameters\n\n| Parameter | Value | Status |\n|---|---|---|\n")
	for _, f := range vitals.Fields() {
		v := latest.Inputs.Get(f.Name)
		value := vitals.FormatNumber(v)
		if f.Unit != "" {
			value += " " + f.Unit
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", f.Label, value, vitals.Classify(f.Name, v).Message)
	}
	b.WriteString("\n")

	if len(r.RiskFactors) > 0 {
		b.WriteString("## Risk factors\n\n")
		for _, f := range r.RiskFactors {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", f.Factor, f.Level, f.Description)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Recommendations", r.Recommendations, true)
	writeList(&b, "Next steps", r.NextSteps, false)
	writeList(&b, "Lifestyle advice", r.LifestyleAdvice, false)

	if len(history) > 1 {
		s := assessment.Summarize(history)
		b.WriteString("## Trend analysis\n\n")
		fmt.Fprintf(&b, "- Assessments: %d (%d high risk)\n", s.Total, s.HighRiskCount)
		fmt.Fprintf(&b, "- Average risk probability: %s\n", s.AverageRisk)
		fmt.Fprintf(&b, "- Average BMI: %.1f\n", s.AverageBMI)
		fmt.Fprintf(&b, "- Average glucose: %.1f mg/dL\n", s.AverageGlucose)
		fmt.Fprintf(&b, "- Risk trend: %s\n\n", s.Trend)
	}

	b.WriteString("> This report is for educational purposes only and should not be used for medical diagnosis.\n")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string, numbered bool) {
	fmt.Fprintf(b, "## %s\n\n", title)
	for i, item := range items {
		if numbered {
			fmt.Fprintf(b, "%d. %s\n", i+1, item)
		} else {
			fmt.Fprintf(b, "- %s\n", item)
		}
	}
	b.WriteString("\n")
}

// RenderMarkdown converts Markdown to an HTML fragment.
func RenderMarkdown(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// HTML renders the full report page: the Markdown report followed by the
// probability trend chart when there are at least two assessments.
func HTML(history []assessment.Record, now time.Time) (string, error) {
	body := string(RenderMarkdown(Markdown(history, now)))
	article := `<article class="report">` + body + `</article>`

	if len(history) < 2 {
		return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Diabetes Risk Assessment Report</title></head><body>" +
			article + "</body></html>", nil
	}

	page, err := renderChartPage(history)
	if err != nil {
		return "", fmt.Errorf("render trend chart: %w", err)
	}
	if i := strings.Index(page, "<body>"); i >= 0 {
		i += len("<body>")
		return page[:i] + article + page[i:], nil
	}
	return page + article, nil
}
