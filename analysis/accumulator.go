// analysis/accumulator.go
package analysis

import (
	"math"

	"github.com/gewnthar/flightstats/models"
)

// Accumulator holds the running sums for one bucket. The zero value is the empty bucket, and
// Combine is field-wise addition, so partial accumulators can be merged in any order.
type Accumulator struct {
	Count          uint64 // non-cancelled flights with delays
	TotalCount     uint64 // every flight folded, cancelled included
	CancelledCount uint64

	SumArr  float64
	SumArr2 float64
	SumDep  float64
	SumDep2 float64
}

// Zero returns the empty accumulator.
func Zero() Accumulator { return Accumulator{} }

// Fold adds one flight. A cancelled flight only counts towards the totals. A non-cancelled
// flight without both delays is ignored.
func (a Accumulator) Fold(f models.Flight) Accumulator {
	if f.Cancelled {
		a.TotalCount++
		a.CancelledCount++
		return a
	}
	if !f.ArrDelay.Valid || !f.DepDelay.Valid {
		return a
	}
	arr, dep := float64(f.ArrDelay.Int), float64(f.DepDelay.Int)
	a.Count++
	a.TotalCount++
	a.SumArr += arr
	a.SumArr2 += arr * arr
	a.SumDep += dep
	a.SumDep2 += dep * dep
	return a
}

// Combine merges two accumulators.
func Combine(a, b Accumulator) Accumulator {
	return Accumulator{
		Count:          a.Count + b.Count,
		TotalCount:     a.TotalCount + b.TotalCount,
		CancelledCount: a.CancelledCount + b.CancelledCount,
		SumArr:         a.SumArr + b.SumArr,
		SumArr2:        a.SumArr2 + b.SumArr2,
		SumDep:         a.SumDep + b.SumDep,
		SumDep2:        a.SumDep2 + b.SumDep2,
	}
}

// Stats is a finalized bucket.
type Stats struct {
	MeanArrival         float64 `json:"mean_arrival" csv:"mean_arrival"`
	MeanDeparture       float64 `json:"mean_departure" csv:"mean_departure"`
	StdArrival          float64 `json:"std_arrival" csv:"std_arrival"`
	StdDeparture        float64 `json:"std_departure" csv:"std_departure"`
	CancellationRatePct float64 `json:"cancellation_rate_pct" csv:"cancellation_rate_pct"`
	SampleCount         uint64  `json:"sample_count" csv:"sample_count"`
	TotalCount          uint64  `json:"total_count" csv:"total_count"`
}

// Finalize turns the sums into means, population standard deviations and a cancellation rate.
// The rate is only reported for buckets with more than one flight; a single cancelled flight
// would otherwise show as 100%.
func (a Accumulator) Finalize() Stats {
	s := Stats{SampleCount: a.Count, TotalCount: a.TotalCount}
	if a.Count > 0 {
		s.MeanArrival, s.StdArrival = meanStd(a.SumArr, a.SumArr2, a.Count)
		s.MeanDeparture, s.StdDeparture = meanStd(a.SumDep, a.SumDep2, a.Count)
	}
	if a.TotalCount > 1 {
		s.CancellationRatePct = float64(a.CancelledCount) / float64(a.TotalCount) * 100
	}
	return s
}

// meanStd clamps the variance at zero; rounding can push E[x²]-E[x]² slightly negative.
func meanStd(sum, sum2 float64, n uint64) (mean, std float64) {
	count := float64(n)
	mean = sum / count
	variance := sum2/count - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}
