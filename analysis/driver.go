// analysis/driver.go
package analysis

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/gewnthar/flightstats/models"
)

// Row is one finalized bucket of a table.
type Row struct {
	Key   int    `json:"bucket_key"`
	Label string `json:"label"`
	Year  int    `json:"year,omitempty"`
	Stats
}

// Table is the result of aggregating one dimension over a window.
type Table struct {
	Dimension Dimension `json:"dimension"`
	Window    Window    `json:"window"`
	Rows      []Row     `json:"rows"`
	Excluded  int       `json:"excluded"` // flights dropped because they could not be classified
}

// Lookup finds the row for key in year (0 for dimensions not split per year).
func (t *Table) Lookup(key, year int) (Row, bool) {
	for _, r := range t.Rows {
		if r.Key == key && r.Year == year {
			return r, true
		}
	}
	return Row{}, false
}

// Years lists the years present in the table, ascending. It is empty for tables not split per year.
func (t *Table) Years() []int {
	seen := make(map[int]struct{})
	for _, r := range t.Rows {
		if r.Year != 0 {
			seen[r.Year] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Driver aggregates flights from a Fetcher.
type Driver struct {
	Fetcher  Fetcher
	Averages PerYearAverageAge // required by DimAboveAverage only

	// SinglePass folds delays and cancellations from one fetch instead of two.
	SinglePass bool
}

// NewDriver returns a two-pass driver.
func NewDriver(fetcher Fetcher, averages PerYearAverageAge) *Driver {
	return &Driver{Fetcher: fetcher, Averages: averages}
}

// KeyFunc returns the bucket assignment for dim.
func (d *Driver) KeyFunc(dim Dimension) KeyFunc {
	return func(f models.Flight) (BucketKey, bool, error) {
		switch dim {
		case DimHour:
			h, ok := HourOfDay(f)
			return BucketKey{Key: h}, ok, nil
		case DimWeekday:
			wd, ok := DayOfWeek(f)
			return BucketKey{Key: wd}, ok, nil
		case DimSeason:
			date, ok := f.Date()
			if !ok {
				return BucketKey{}, false, nil
			}
			return BucketKey{Key: int(SeasonOf(date))}, true, nil
		case DimAgeGroup:
			if !f.PlaneAge.Valid || !f.Year.Valid {
				return BucketKey{}, false, nil
			}
			return BucketKey{Year: f.Year.Int, Key: AgeGroup(f.PlaneAge.Int)}, true, nil
		case DimAboveAverage:
			if !f.PlaneAge.Valid || !f.Year.Valid {
				return BucketKey{}, false, nil
			}
			above, err := AboveFleetAverage(f, d.Averages)
			if err != nil {
				return BucketKey{}, false, err
			}
			key := 0
			if above {
				key = 1
			}
			return BucketKey{Year: f.Year.Int, Key: key}, true, nil
		}
		return BucketKey{}, false, nil
	}
}

func predicateFor(dim Dimension) Predicate {
	if dim.ByYear() {
		return AgeStats
	}
	return DelayStats
}

func (d *Driver) check(dim Dimension, w Window) error {
	if dim >= dimensionCount {
		return fmt.Errorf("invalid dimension %d", uint8(dim))
	}
	if required := dim.MinDays(); required > 0 && !w.IsZero() && w.Days() < required {
		return &InsufficientRangeError{Dimension: dim, Days: w.Days(), Required: required}
	}
	if dim == DimAboveAverage && len(d.Averages) == 0 {
		return ErrFleetAveragesRequired
	}
	return nil
}

// Aggregate builds the table for dim over w. The first pass leaves cancelled flights out and
// supplies the delay sums; the second includes them and supplies the total and cancelled counts.
func (d *Driver) Aggregate(ctx context.Context, dim Dimension, w Window) (*Table, error) {
	if err := d.check(dim, w); err != nil {
		return nil, err
	}
	if d.Fetcher == nil {
		return nil, errors.New("driver has no fetcher")
	}
	keyFn := d.KeyFunc(dim)
	pred := predicateFor(dim)

	if d.SinglePass {
		p, err := d.pass(ctx, w, pred, true, keyFn)
		if err != nil {
			return nil, err
		}
		return buildTable(dim, w, p), nil
	}

	delays, err := d.pass(ctx, w, pred, false, keyFn)
	if err != nil {
		return nil, fmt.Errorf("delay pass: %w", err)
	}
	counts, err := d.pass(ctx, w, pred, true, keyFn)
	if err != nil {
		return nil, fmt.Errorf("cancellation pass: %w", err)
	}
	return buildTable(dim, w, mergePasses(delays, counts)), nil
}

// AggregateShards folds each shard concurrently in a single pass and combines the results.
func (d *Driver) AggregateShards(ctx context.Context, dim Dimension, w Window, shards []iter.Seq[models.Flight], parallelism int) (*Table, error) {
	if err := d.check(dim, w); err != nil {
		return nil, err
	}
	pred := predicateFor(dim)
	filtered := make([]iter.Seq[models.Flight], len(shards))
	for i, shard := range shards {
		filtered[i] = Select(InWindow(shard, w), pred, true)
	}
	p, err := ReduceShards(ctx, filtered, d.KeyFunc(dim), parallelism)
	if err != nil {
		return nil, err
	}
	return buildTable(dim, w, p), nil
}

func (d *Driver) pass(ctx context.Context, w Window, pred Predicate, includeCancelled bool, keyFn KeyFunc) (*Partial, error) {
	seq, errFn := d.Fetcher.Flights(ctx, w)
	p := FoldAll(Select(InWindow(seq, w), pred, includeCancelled), keyFn)
	if err := errFn(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// mergePasses takes the delay sums from the first pass and the totals from the second. If the
// source changed between passes the totals are raised so Count never exceeds TotalCount.
func mergePasses(delays, counts *Partial) *Partial {
	out := NewPartial()
	out.Excluded = counts.Excluded
	for key, acc := range delays.Cells {
		out.Cells[key] = acc
	}
	for key, c := range counts.Cells {
		acc := out.Cells[key]
		acc.TotalCount = c.TotalCount
		acc.CancelledCount = c.CancelledCount
		out.Cells[key] = acc
	}
	for key, acc := range out.Cells {
		if acc.TotalCount < acc.Count+acc.CancelledCount {
			acc.TotalCount = acc.Count + acc.CancelledCount
			out.Cells[key] = acc
		}
	}
	return out
}

// buildTable lists every key of the dimension, per year for the age dimensions, with empty
// buckets finalized to zeros.
func buildTable(dim Dimension, w Window, p *Partial) *Table {
	t := &Table{Dimension: dim, Window: w, Rows: []Row{}, Excluded: p.Excluded}
	years := []int{0}
	if dim.ByYear() {
		seen := make(map[int]struct{})
		for key := range p.Cells {
			seen[key.Year] = struct{}{}
		}
		years = slices.Sorted(maps.Keys(seen))
	}
	for _, year := range years {
		for key := 0; key < dim.Keys(); key++ {
			acc := p.Cells[BucketKey{Year: year, Key: key}]
			t.Rows = append(t.Rows, Row{Key: key, Label: dim.Label(key), Year: year, Stats: acc.Finalize()})
		}
	}
	return t
}
