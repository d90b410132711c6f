package assessment

import (
	"github.com/montanaflynn/stats"

	"github.com/Skufu/glucocheck/internal/vitals"
)

// Trend directions between the two most recent assessments.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Stats summarises a most-recent-first history.
type Stats struct {
	Total              int     `json:"total_assessments"`
	HighRiskCount      int     `json:"high_risk_count"`
	AverageProbability float64 `json:"average_probability"`
	AverageRisk        string  `json:"average_risk"`
	AverageBMI         float64 `json:"average_bmi"`
	AverageGlucose     float64 `json:"average_glucose"`
	Trend              string  `json:"trend,omitempty"`
}

func Summarize(history []Record) Stats {
	s := Stats{Total: len(history), AverageRisk: FormatPercent(0)}
	if len(history) == 0 {
		return s
	}

	probs := make(stats.Float64Data, 0, len(history))
	bmis := make(stats.Float64Data, 0, len(history))
	glucose := make(stats.Float64Data, 0, len(history))
	for _, r := range history {
		if r.Positive() {
			s.HighRiskCount++
		}
		probs = append(probs, r.Probability)
		bmis = append(bmis, r.Inputs.Get(vitals.BMI))
		glucose = append(glucose, r.Inputs.Get(vitals.Glucose))
	}

	// Mean only fails on empty input, which is ruled out above.
	s.AverageProbability, _ = probs.Mean()
	s.AverageBMI, _ = bmis.Mean()
	s.AverageGlucose, _ = glucose.Mean()
	s.AverageRisk = FormatPercent(s.AverageProbability)

	if len(history) >= 2 {
		s.Trend = trend(history[0].Probability, history[1].Probability)
	}
	return s
}

func trend(recent, previous float64) string {
	switch {
	case recent > previous:
		return TrendIncreasing
	case recent < previous:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
