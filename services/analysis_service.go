// services/analysis_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/config"
	"github.com/gewnthar/flightstats/models"
	"github.com/gewnthar/flightstats/scraper"
)

// AnalysisService runs the aggregation driver over a flight source.
type AnalysisService struct {
	fetcher     analysis.Fetcher
	parallelism int
	singlePass  bool
}

// NewAnalysisService reads flights from fetcher. The fetcher must be safe for concurrent use
// when parallelism is above one.
func NewAnalysisService(fetcher analysis.Fetcher, cfg config.AnalysisConfig) *AnalysisService {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	return &AnalysisService{fetcher: fetcher, parallelism: parallelism, singlePass: cfg.SinglePass}
}

// ParseDimensions parses dimension names. No names means every dimension.
func ParseDimensions(names []string) ([]analysis.Dimension, error) {
	if len(names) == 0 {
		return analysis.AllDimensions(), nil
	}
	dims := make([]analysis.Dimension, 0, len(names))
	seen := make(map[analysis.Dimension]bool)
	for _, name := range names {
		d, err := analysis.ParseDimension(name)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			dims = append(dims, d)
		}
	}
	return dims, nil
}

// Report collects the tables of one run. A dimension appears either in Tables or in Errors.
type Report struct {
	RunID    uuid.UUID
	Window   analysis.Window
	Tables   map[analysis.Dimension]*analysis.Table
	Errors   map[analysis.Dimension]error
	Fleet    *FleetSummary
	Duration time.Duration
}

// OrderedTables returns the tables in dimension order.
func (r *Report) OrderedTables() []*analysis.Table {
	var out []*analysis.Table
	for _, d := range analysis.AllDimensions() {
		if t, ok := r.Tables[d]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *AnalysisService) driver(averages analysis.PerYearAverageAge) *analysis.Driver {
	d := analysis.NewDriver(s.fetcher, averages)
	d.SinglePass = s.singlePass
	return d
}

// Run aggregates a single dimension, building fleet averages from the full record set first when
// the dimension needs them.
func (s *AnalysisService) Run(ctx context.Context, dim analysis.Dimension, w analysis.Window) (*analysis.Table, error) {
	var averages analysis.PerYearAverageAge
	if dim == analysis.DimAboveAverage {
		fleet, err := s.fleetAverages(ctx)
		if err != nil {
			return nil, err
		}
		averages = fleet.Averages
	}
	table, err := s.driver(averages).Aggregate(ctx, dim, w)
	if err != nil {
		return nil, fmt.Errorf("%s aggregation over %s: %w", dim, w, err)
	}
	return table, nil
}

// RunAll aggregates every requested dimension, at most parallelism at a time. A failing
// dimension is recorded in the report and does not stop the others. The error is only set when
// ctx ends the run.
func (s *AnalysisService) RunAll(ctx context.Context, w analysis.Window, dims []analysis.Dimension) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:  uuid.New(),
		Window: w,
		Tables: make(map[analysis.Dimension]*analysis.Table),
		Errors: make(map[analysis.Dimension]error),
	}
	log.Printf("Service: Analysis run %s over %s for %d dimensions.", report.RunID, w, len(dims))

	var averages analysis.PerYearAverageAge
	if slices.Contains(dims, analysis.DimAboveAverage) {
		fleet, err := s.fleetAverages(ctx)
		if err != nil {
			log.Printf("ERROR Service: run %s: fleet ages: %v", report.RunID, err)
		} else {
			report.Fleet = fleet
			averages = fleet.Averages
		}
	}

	driver := s.driver(averages)
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for _, dim := range dims {
		g.Go(func() error {
			table, err := driver.Aggregate(ctx, dim, w)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors[dim] = err
				logDimensionError(report.RunID, dim, err)
				return nil
			}
			report.Tables[dim] = table
			if table.Excluded > 0 {
				log.Printf("WARN Service: run %s: %s excluded %d flights with no fleet average.", report.RunID, dim, table.Excluded)
			}
			return nil
		})
	}
	g.Wait()

	report.Duration = time.Since(started)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	log.Printf("Service: Analysis run %s finished in %s: %d tables, %d failed.",
		report.RunID, report.Duration.Round(time.Millisecond), len(report.Tables), len(report.Errors))
	return report, nil
}

func logDimensionError(runID uuid.UUID, dim analysis.Dimension, err error) {
	var short *analysis.InsufficientRangeError
	if errors.As(err, &short) {
		log.Printf("WARN Service: run %s: skipping %s: %v", runID, dim, err)
		return
	}
	log.Printf("ERROR Service: run %s: %s failed: %v", runID, dim, err)
}

// RunFiles aggregates dim straight from local flight files, one shard per file, without a
// store. Plane ages come from planeYears. Fleet averages cover every flight in the files, not
// only those inside w.
func (s *AnalysisService) RunFiles(ctx context.Context, dim analysis.Dimension, w analysis.Window, paths []string, planeYears map[string]int) (*analysis.Table, error) {
	parsers := make([]*scraper.FlightParser, len(paths))
	shards := make([]iter.Seq[models.Flight], len(paths))
	for i, path := range paths {
		parsers[i] = scraper.NewFlightParser(planeYears)
		shards[i] = parsers[i].File(path)
	}
	checkParsers := func() error {
		for i, p := range parsers {
			if err := p.Err(); err != nil {
				return fmt.Errorf("failed to read %s: %w", paths[i], err)
			}
		}
		return nil
	}

	var averages analysis.PerYearAverageAge
	if dim == analysis.DimAboveAverage {
		fleet := buildFleet(concat(shards))
		if err := checkParsers(); err != nil {
			return nil, err
		}
		averages = fleet.Averages
	}

	table, err := s.driver(averages).AggregateShards(ctx, dim, w, shards, s.parallelism)
	if err != nil {
		return nil, fmt.Errorf("%s aggregation over %d files: %w", dim, len(paths), err)
	}
	if err := checkParsers(); err != nil {
		return nil, err
	}
	return table, nil
}

func concat(seqs []iter.Seq[models.Flight]) iter.Seq[models.Flight] {
	return func(yield func(models.Flight) bool) {
		for _, seq := range seqs {
			for f := range seq {
				if !yield(f) {
					return
				}
			}
		}
	}
}
