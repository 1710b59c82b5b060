// report/summary.go
package report

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/gewnthar/flightstats/analysis"
)

// Summary condenses a table into a few headline numbers over its non-empty buckets.
type Summary struct {
	Dimension         analysis.Dimension `json:"dimension"`
	Buckets           int                `json:"buckets"` // buckets with at least one delay sample
	Flights           uint64             `json:"flights"`
	MedianMeanArrival float64            `json:"median_mean_arrival"`
	P90MeanArrival    float64            `json:"p90_mean_arrival"`
	WorstMeanArrival  float64            `json:"worst_mean_arrival"`
	WorstBucket       string             `json:"worst_bucket"`
	MaxCancellation   float64            `json:"max_cancellation_rate_pct"`
}

// Summarize computes the summary of t. A table without samples gives a zero summary.
func Summarize(t *analysis.Table) (Summary, error) {
	s := Summary{Dimension: t.Dimension}
	var means, rates stats.Float64Data
	worst := -1
	for i, r := range t.Rows {
		s.Flights += r.TotalCount
		rates = append(rates, r.CancellationRatePct)
		if r.SampleCount == 0 {
			continue
		}
		s.Buckets++
		means = append(means, r.MeanArrival)
		if worst < 0 || r.MeanArrival > t.Rows[worst].MeanArrival {
			worst = i
		}
	}
	if worst < 0 {
		return s, nil
	}

	var err error
	if s.MedianMeanArrival, err = means.Median(); err != nil {
		return s, fmt.Errorf("median of %s means: %w", t.Dimension, err)
	}
	if s.P90MeanArrival, err = means.Percentile(90); err != nil {
		if !errors.Is(err, stats.ErrBounds) {
			return s, fmt.Errorf("90th percentile of %s means: %w", t.Dimension, err)
		}
		s.P90MeanArrival = 0
	}
	if s.MaxCancellation, err = rates.Max(); err != nil {
		return s, fmt.Errorf("max cancellation rate of %s: %w", t.Dimension, err)
	}

	w := t.Rows[worst]
	s.WorstMeanArrival = w.MeanArrival
	s.WorstBucket = w.Label
	if w.Year != 0 {
		s.WorstBucket = fmt.Sprintf("%s (%d)", w.Label, w.Year)
	}
	return s, nil
}
