// analysis/filter.go
package analysis

import (
	"iter"

	"github.com/gewnthar/flightstats/models"
)

// Predicate decides whether a flight is usable for a kind of statistic.
type Predicate func(models.Flight) bool

var (
	// DelayStats keeps flights usable for delay and cancellation statistics.
	DelayStats Predicate = models.Flight.ValidForDelayStats
	// AgeStats keeps flights that also carry a plane age.
	AgeStats Predicate = models.Flight.ValidForAgeStats
)

// Select lazily yields the flights of seq that satisfy pred. Cancelled flights are dropped unless
// includeCancelled is set. Breaking out of the returned sequence stops seq as well.
func Select(seq iter.Seq[models.Flight], pred Predicate, includeCancelled bool) iter.Seq[models.Flight] {
	return func(yield func(models.Flight) bool) {
		for f := range seq {
			if !pred(f) {
				continue
			}
			if f.Cancelled && !includeCancelled {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// Limit yields at most n flights from seq. n <= 0 yields nothing.
func Limit(seq iter.Seq[models.Flight], n int) iter.Seq[models.Flight] {
	return func(yield func(models.Flight) bool) {
		if n <= 0 {
			return
		}
		seen := 0
		for f := range seq {
			if !yield(f) {
				return
			}
			seen++
			if seen >= n {
				return
			}
		}
	}
}

// InWindow yields the flights whose date falls inside w.
func InWindow(seq iter.Seq[models.Flight], w Window) iter.Seq[models.Flight] {
	return func(yield func(models.Flight) bool) {
		for f := range seq {
			if !w.Contains(f) {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}
