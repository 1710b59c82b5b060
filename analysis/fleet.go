// analysis/fleet.go
package analysis

import (
	"iter"
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/gewnthar/flightstats/models"
)

// TailYear identifies an airframe within a flight year.
type TailYear struct {
	TailNum string
	Year    int
}

// FleetAgeIndex maps an airframe and year to the plane's age that year.
type FleetAgeIndex map[TailYear]int

// PerYearAverageAge maps a flight year to the mean age of the distinct planes flown that year.
type PerYearAverageAge map[int]float64

// BuildFleetAgeIndex reads every age-valid, non-cancelled flight once. The first age seen for a
// (tail, year) pair is kept; each distinct disagreeing age is reported once.
func BuildFleetAgeIndex(seq iter.Seq[models.Flight]) (FleetAgeIndex, []*FleetAgeConflictError) {
	idx := make(FleetAgeIndex)
	var conflicts []*FleetAgeConflictError
	type conflictKey struct {
		key  TailYear
		seen int
	}
	reported := make(map[conflictKey]struct{})

	for f := range Select(seq, AgeStats, false) {
		if f.TailNum == "" {
			continue
		}
		key := TailYear{TailNum: f.TailNum, Year: f.Year.Int}
		age := f.PlaneAge.Int
		kept, ok := idx[key]
		if !ok {
			idx[key] = age
			continue
		}
		if kept == age {
			continue
		}
		ck := conflictKey{key: key, seen: age}
		if _, done := reported[ck]; done {
			continue
		}
		reported[ck] = struct{}{}
		conflicts = append(conflicts, &FleetAgeConflictError{TailNum: key.TailNum, Year: key.Year, Kept: kept, Seen: age})
	}
	return idx, conflicts
}

// agesByYear groups ages per year, sorted so that the float mean is deterministic.
func (idx FleetAgeIndex) agesByYear() map[int][]float64 {
	byYear := make(map[int][]float64)
	for key, age := range idx {
		byYear[key.Year] = append(byYear[key.Year], float64(age))
	}
	for _, ages := range byYear {
		slices.Sort(ages)
	}
	return byYear
}

// AveragePerYear averages over distinct tail numbers, not over flights.
func (idx FleetAgeIndex) AveragePerYear() PerYearAverageAge {
	avg := make(PerYearAverageAge)
	for year, ages := range idx.agesByYear() {
		avg[year] = stat.Mean(ages, nil)
	}
	return avg
}

// Years returns the indexed years in ascending order.
func (idx FleetAgeIndex) Years() []int {
	years := make(map[int]struct{})
	for key := range idx {
		years[key.Year] = struct{}{}
	}
	return slices.Sorted(maps.Keys(years))
}

// TailCount is the number of distinct planes flown in year.
func (idx FleetAgeIndex) TailCount(year int) int {
	n := 0
	for key := range idx {
		if key.Year == year {
			n++
		}
	}
	return n
}

// Table renders the per-year averages with their tail counts, ordered by year.
func (idx FleetAgeIndex) Table() []models.FleetYearAge {
	byYear := idx.agesByYear()
	out := make([]models.FleetYearAge, 0, len(byYear))
	for _, year := range slices.Sorted(maps.Keys(byYear)) {
		ages := byYear[year]
		out = append(out, models.FleetYearAge{Year: year, AverageAge: stat.Mean(ages, nil), TailCount: len(ages)})
	}
	return out
}

// Years returns the years with an average, ascending.
func (avg PerYearAverageAge) Years() []int {
	return slices.Sorted(maps.Keys(avg))
}
