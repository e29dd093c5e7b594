package report

import (
	"math"

	"imagecert/types"

	"github.com/montanaflynn/stats"
)

// Summarize counts outcomes and aggregates each metric over the evaluated
// cases. Errored cases and undefined scores do not contribute to aggregates.
func Summarize(cases []types.CaseResult, metricOrder []string) types.Summary {
	summary := types.Summary{
		Total:   len(cases),
		Metrics: make(map[string]types.MetricSummary, len(metricOrder)),
	}

	values := make(map[string][]float64, len(metricOrder))
	for i := range cases {
		c := &cases[i]
		switch {
		case c.Failed():
			summary.Errored++
			continue
		case c.Pass:
			summary.Passed++
		default:
			summary.Failed++
		}
		for _, name := range metricOrder {
			if score, ok := c.Metrics[name]; ok && score.IsDefined() {
				values[name] = append(values[name], float64(score))
			}
		}
	}

	for _, name := range metricOrder {
		summary.Metrics[name] = aggregate(values[name])
	}
	return summary
}

func aggregate(data []float64) types.MetricSummary {
	undefined := types.Score(math.NaN())
	if len(data) == 0 {
		return types.MetricSummary{Mean: undefined, Median: undefined, Min: undefined, Max: undefined}
	}

	mean, err := stats.Mean(data)
	if err != nil {
		mean = math.NaN()
	}
	median, err := stats.Median(data)
	if err != nil {
		median = math.NaN()
	}
	min, err := stats.Min(data)
	if err != nil {
		min = math.NaN()
	}
	max, err := stats.Max(data)
	if err != nil {
		max = math.NaN()
	}

	return types.MetricSummary{
		Mean:   types.Score(mean),
		Median: types.Score(median),
		Min:    types.Score(min),
		Max:    types.Score(max),
	}
}
