// services/fleet_service.go
package services

import (
	"context"
	"fmt"
	"iter"
	"log"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/models"
)

// maxLoggedConflicts caps the per-run conflict warnings; the full list stays in the summary.
const maxLoggedConflicts = 10

// FleetSummary is the fleet-age index of one analysis run.
type FleetSummary struct {
	Averages  analysis.PerYearAverageAge        `json:"-"`
	Years     []models.FleetYearAge             `json:"years"`
	Conflicts []*analysis.FleetAgeConflictError `json:"-"`
}

// ConflictCount is reported in API responses instead of the conflicts themselves.
func (f *FleetSummary) ConflictCount() int {
	return len(f.Conflicts)
}

// buildFleet reads seq once and summarizes plane ages per year.
func buildFleet(seq iter.Seq[models.Flight]) *FleetSummary {
	idx, conflicts := analysis.BuildFleetAgeIndex(seq)
	summary := &FleetSummary{
		Averages:  idx.AveragePerYear(),
		Years:     idx.Table(),
		Conflicts: conflicts,
	}
	for i, c := range conflicts {
		if i == maxLoggedConflicts {
			log.Printf("WARN Service: %d more plane age conflicts not shown.", len(conflicts)-maxLoggedConflicts)
			break
		}
		log.Printf("WARN Service: %v", c)
	}
	return summary
}

// fleetAverages builds the fleet-age summary over every stored flight. The above_average
// dimension compares against these, whatever window the aggregation uses.
func (s *AnalysisService) fleetAverages(ctx context.Context) (*FleetSummary, error) {
	return s.Fleet(ctx, analysis.Window{})
}

// Fleet builds the fleet-age summary for the window.
func (s *AnalysisService) Fleet(ctx context.Context, w analysis.Window) (*FleetSummary, error) {
	seq, errFn := s.fetcher.Flights(ctx, w)
	summary := buildFleet(analysis.InWindow(seq, w))
	if err := errFn(); err != nil {
		return nil, fmt.Errorf("failed to read flights for fleet ages: %w", err)
	}
	log.Printf("Service: Fleet ages computed for %d years over %s (%d conflicts).", len(summary.Years), w, len(summary.Conflicts))
	return summary, nil
}
