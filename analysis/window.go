// analysis/window.go
package analysis

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/gewnthar/flightstats/models"
)

// Window is the half-open day range [Start, End). Only the dates matter; times of day are
// dropped. The zero Window is unbounded.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow rejects windows that end before they start.
func NewWindow(start, end time.Time) (Window, error) {
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s is before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return Window{Start: start, End: end}, nil
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Days is the number of whole days between Start and End, never negative.
func (w Window) Days() int {
	days := int(w.End.Sub(w.Start) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

func (w Window) firstDay() time.Time {
	y, m, d := w.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether the flight's date is one of the window's days.
func (w Window) Contains(f models.Flight) bool {
	if w.IsZero() {
		return true
	}
	date, ok := f.Date()
	if !ok {
		return false
	}
	first := w.firstDay()
	return !date.Before(first) && date.Before(first.AddDate(0, 0, w.Days()))
}

// YearRange returns the calendar years the window touches. ok is false for the zero window.
func (w Window) YearRange() (from, to int, ok bool) {
	if w.IsZero() {
		return 0, 0, false
	}
	last := w.firstDay()
	if days := w.Days(); days > 0 {
		last = last.AddDate(0, 0, days-1)
	}
	return w.Start.Year(), last.Year(), true
}

func (w Window) String() string {
	if w.IsZero() {
		return "[all)"
	}
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
}

// Fetcher supplies flights for a window. The returned sequence may be ranged over more than once
// per call only if the implementation says so; the driver calls Flights once per pass. The error
// function reports why the sequence ended early and must be called after ranging.
// Implementations may return flights outside the window; callers filter.
type Fetcher interface {
	Flights(ctx context.Context, w Window) (iter.Seq[models.Flight], func() error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, w Window) (iter.Seq[models.Flight], func() error)

func (fn FetchFunc) Flights(ctx context.Context, w Window) (iter.Seq[models.Flight], func() error) {
	return fn(ctx, w)
}

// SliceFetcher serves flights held in memory.
type SliceFetcher []models.Flight

func (s SliceFetcher) Flights(_ context.Context, _ Window) (iter.Seq[models.Flight], func() error) {
	return slices.Values(s), func() error { return nil }
}
