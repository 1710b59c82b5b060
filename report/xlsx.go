// report/xlsx.go
package report

import (
	"fmt"
	"log"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/models"
)

const summarySheet = "summary"

// Bundle is everything one analysis run exports.
type Bundle struct {
	RunID    string
	Window   analysis.Window
	Tables   []*analysis.Table
	Fleet    []models.FleetYearAge
	Failures map[string]string // dimension name to error message
}

var longHeader = []string{
	"bucket_key", "label", "year", "mean_arrival", "mean_departure", "std_arrival", "std_departure",
	"cancellation_rate_pct", "sample_count", "total_count",
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func headerRow(header []string) []interface{} {
	out := make([]interface{}, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}

// WriteWorkbook saves the bundle as an XLSX file: a summary sheet, one sheet per table and a
// fleet sheet when fleet ages were computed.
func WriteWorkbook(path string, b Bundle) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, b); err != nil {
		return err
	}

	for _, t := range b.Tables {
		sheet := t.Dimension.String()
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		if err := setRow(f, sheet, 1, headerRow(longHeader)...); err != nil {
			return err
		}
		for i, r := range t.Rows {
			var year interface{}
			if r.Year != 0 {
				year = r.Year
			}
			err := setRow(f, sheet, i+2, r.Key, r.Label, year,
				r.MeanArrival, r.MeanDeparture, r.StdArrival, r.StdDeparture,
				r.CancellationRatePct, r.SampleCount, r.TotalCount)
			if err != nil {
				return err
			}
		}
	}

	if len(b.Fleet) > 0 {
		const sheet = "fleet_age"
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		if err := setRow(f, sheet, 1, "year", "average_age", "tail_count"); err != nil {
			return err
		}
		for i, y := range b.Fleet {
			if err := setRow(f, sheet, i+2, y.Year, y.AverageAge, y.TailCount); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	log.Printf("Report: Workbook saved to %s (%d tables).", path, len(b.Tables))
	return nil
}

func writeSummarySheet(f *excelize.File, b Bundle) error {
	rows := [][]interface{}{
		{"run_id", b.RunID},
		{"window", b.Window.String()},
		{},
		{"dimension", "buckets", "flights", "median_mean_arrival", "p90_mean_arrival", "worst_bucket", "worst_mean_arrival", "max_cancellation_rate_pct", "excluded"},
	}
	for _, t := range b.Tables {
		s, err := Summarize(t)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			t.Dimension.String(), s.Buckets, s.Flights, s.MedianMeanArrival, s.P90MeanArrival,
			s.WorstBucket, s.WorstMeanArrival, s.MaxCancellation, t.Excluded,
		})
	}
	if len(b.Failures) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"failed dimension", "error"})
		names := make([]string, 0, len(b.Failures))
		for name := range b.Failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, []interface{}{name, b.Failures[name]})
		}
	}
	for i, values := range rows {
		if err := setRow(f, summarySheet, i+1, values...); err != nil {
			return err
		}
	}
	return nil
}
