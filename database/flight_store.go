// database/flight_store.go
package database

import (
	"context"
	"fmt"
	"iter"
	"log"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/models"
)

const flightColumns = `start_year, start_month, start_day_month, start_day_week, start_hour,
	cancelled, arr_delay, dep_delay, tailnum, plane_age`

// SaveFlights replaces every flight loaded from sourceFile with the flights of seq.
// Flights missing a date or time field cannot be stored and are skipped. When seqErr is not
// nil it is checked once seq is drained, and a failure rolls the whole load back.
// It returns the number of rows stored and skipped.
func (s *Store) SaveFlights(ctx context.Context, seq iter.Seq[models.Flight], seqErr func() error, sourceFile string) (stored, skipped int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction for flights: %w", err)
	}
	defer tx.Rollback()

	// Step 1: Delete existing flights for this sourceFile.
	_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM flight_by_time WHERE source_file = ?"), sourceFile)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete old flights for source %s: %w", sourceFile, err)
	}
	log.Printf("Database: Cleared existing flights for source: %s", sourceFile)

	// Step 2: Insert new flights
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO flight_by_time (`+flightColumns+`, source_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare flight insert statement: %w", err)
	}
	defer stmt.Close()

	for f := range seq {
		if !f.HasTemporalFields() {
			skipped++
			continue
		}
		_, err := stmt.ExecContext(ctx,
			f.Year, f.Month, f.DayOfMonth, f.DayOfWeek, f.Hour,
			f.Cancelled, f.ArrDelay, f.DepDelay, f.TailNum, f.PlaneAge,
			sourceFile,
		)
		if err != nil {
			log.Printf("ERROR Database: saving flight %+v: %v", f, err)
			return 0, 0, fmt.Errorf("failed to insert flight %d-%s-%s from %s: %w", f.Year.Int, f.Month, f.DayOfMonth, sourceFile, err)
		}
		stored++
	}
	if seqErr != nil {
		if err := seqErr(); err != nil {
			return 0, 0, fmt.Errorf("failed to read flights for source %s: %w", sourceFile, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction for flights: %w", err)
	}

	log.Printf("Database: Successfully saved %d flights from source: %s (%d skipped)", stored, sourceFile, skipped)
	return stored, skipped, nil
}

// Flights streams the flights of the years the window touches, ordered by date. Rows are read
// as the caller ranges; breaking out of the loop closes them. The error function reports query
// and scan failures once ranging is done.
func (s *Store) Flights(ctx context.Context, w analysis.Window) (iter.Seq[models.Flight], func() error) {
	query := "SELECT " + flightColumns + " FROM flight_by_time"
	var args []interface{}
	if from, to, ok := w.YearRange(); ok {
		query += " WHERE start_year >= ? AND start_year <= ?"
		args = append(args, from, to)
	}
	query = s.db.Rebind(query + " ORDER BY start_year, start_month, start_day_month, start_hour")

	var iterErr error
	seq := func(yield func(models.Flight) bool) {
		iterErr = nil
		rows, err := s.db.QueryxContext(ctx, query, args...)
		if err != nil {
			iterErr = fmt.Errorf("failed to query flights for %s: %w", w, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var f models.Flight
			if err := rows.StructScan(&f); err != nil {
				iterErr = fmt.Errorf("failed to scan flight row: %w", err)
				return
			}
			if !yield(f) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			iterErr = fmt.Errorf("error iterating flight rows: %w", err)
		}
	}
	return seq, func() error { return iterErr }
}

// FlightYears lists the years with stored flights.
func (s *Store) FlightYears(ctx context.Context) ([]int, error) {
	var years []int
	err := s.db.SelectContext(ctx, &years, "SELECT DISTINCT start_year FROM flight_by_time ORDER BY start_year")
	if err != nil {
		return nil, fmt.Errorf("failed to query flight years: %w", err)
	}
	return years, nil
}

// CountFlights counts stored flights, optionally for one source file.
func (s *Store) CountFlights(ctx context.Context, sourceFile string) (int, error) {
	var n int
	var err error
	if sourceFile == "" {
		err = s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM flight_by_time")
	} else {
		err = s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM flight_by_time WHERE source_file = ?"), sourceFile)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count flights: %w", err)
	}
	return n, nil
}
