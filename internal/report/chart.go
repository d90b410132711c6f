package report

import (
	"bytes"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/shopspring/decimal"

	"github.com/Skufu/glucocheck/internal/assessment"
)

// TrendChart plots the risk probability of a most-recent-first history in
// chronological order.
func TrendChart(history []assessment.Record) *charts.Line {
	xAxis := make([]string, 0, len(history))
	probs := make([]opts.LineData, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i]
		xAxis = append(xAxis, rec.Timestamp.Format("Jan 02 15:04"))
		probs = append(probs, opts.LineData{Value: roundPercent(rec.Probability)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Risk probability"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Min: 0, Max: 100}),
	)
	line.SetXAxis(xAxis).
		AddSeries("Probability", probs).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(true)}),
			charts.WithMarkLineNameTypeItemOpts(opts.MarkLineNameTypeItem{Name: "Average", Type: "average"}),
		)
	return line
}

// RenderTrendChart writes the chart as a standalone HTML page.
func RenderTrendChart(w io.Writer, history []assessment.Record) error {
	return TrendChart(history).Render(w)
}

func renderChartPage(history []assessment.Record) (string, error) {
	var buf bytes.Buffer
	if err := RenderTrendChart(&buf, history); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func roundPercent(p float64) float64 {
	v, _ := decimal.NewFromFloat(p).Shift(2).Round(1).Float64()
	return v
}
