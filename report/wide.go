// report/wide.go
package report

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/gewnthar/flightstats/analysis"
)

// Wide lays a table out with one line per bucket key. Tables split per year get arrival delay
// columns mean-YYYY, std-YYYY and count-YYYY for each year; other tables keep their statistics
// as plain columns.
func Wide(t *analysis.Table) dataframe.DataFrame {
	keys := t.Dimension.Keys()
	bucketKeys := make([]int, keys)
	labels := make([]string, keys)
	for k := 0; k < keys; k++ {
		bucketKeys[k] = k
		labels[k] = t.Dimension.Label(k)
	}
	cols := []series.Series{
		series.New(bucketKeys, series.Int, "bucket_key"),
		series.New(labels, series.String, "label"),
	}

	if !t.Dimension.ByYear() {
		meanArr := make([]float64, keys)
		meanDep := make([]float64, keys)
		stdArr := make([]float64, keys)
		stdDep := make([]float64, keys)
		rate := make([]float64, keys)
		samples := make([]int, keys)
		totals := make([]int, keys)
		for _, r := range t.Rows {
			if r.Key < 0 || r.Key >= keys {
				continue
			}
			meanArr[r.Key], meanDep[r.Key] = r.MeanArrival, r.MeanDeparture
			stdArr[r.Key], stdDep[r.Key] = r.StdArrival, r.StdDeparture
			rate[r.Key] = r.CancellationRatePct
			samples[r.Key], totals[r.Key] = int(r.SampleCount), int(r.TotalCount)
		}
		cols = append(cols,
			series.New(meanArr, series.Float, "mean_arrival"),
			series.New(meanDep, series.Float, "mean_departure"),
			series.New(stdArr, series.Float, "std_arrival"),
			series.New(stdDep, series.Float, "std_departure"),
			series.New(rate, series.Float, "cancellation_rate_pct"),
			series.New(samples, series.Int, "sample_count"),
			series.New(totals, series.Int, "total_count"),
		)
		return dataframe.New(cols...)
	}

	for _, year := range t.Years() {
		means := make([]float64, keys)
		stds := make([]float64, keys)
		counts := make([]int, keys)
		for k := 0; k < keys; k++ {
			if r, ok := t.Lookup(k, year); ok {
				means[k], stds[k], counts[k] = r.MeanArrival, r.StdArrival, int(r.SampleCount)
			}
		}
		cols = append(cols,
			series.New(means, series.Float, fmt.Sprintf("mean-%d", year)),
			series.New(stds, series.Float, fmt.Sprintf("std-%d", year)),
			series.New(counts, series.Int, fmt.Sprintf("count-%d", year)),
		)
	}
	return dataframe.New(cols...)
}

// WriteWideCSV writes Wide(t) as CSV.
func WriteWideCSV(w io.Writer, t *analysis.Table) error {
	df := Wide(t)
	if df.Err != nil {
		return fmt.Errorf("failed to build wide %s table: %w", t.Dimension, df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write wide %s table: %w", t.Dimension, err)
	}
	return nil
}
