// report/csv.go
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/models"
)

// csvRow is one line of the long table layout: one bucket per line.
type csvRow struct {
	Dimension string `csv:"dimension"`
	Key       int    `csv:"bucket_key"`
	Label     string `csv:"label"`
	Year      int    `csv:"year,omitempty"`
	analysis.Stats
}

func longRows(t *analysis.Table) []csvRow {
	rows := make([]csvRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, csvRow{Dimension: t.Dimension.String(), Key: r.Key, Label: r.Label, Year: r.Year, Stats: r.Stats})
	}
	return rows
}

// WriteTableCSV writes the table in the long layout with a header line.
func WriteTableCSV(w io.Writer, t *analysis.Table) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	// An empty table still gets its header.
	if err := enc.EncodeHeader(csvRow{}); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.Dimension, err)
	}
	for _, row := range longRows(t) {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", t.Dimension, row.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFleetCSV writes the per-year fleet age table.
func WriteFleetCSV(w io.Writer, years []models.FleetYearAge) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(models.FleetYearAge{}); err != nil {
		return fmt.Errorf("failed to write fleet header: %w", err)
	}
	for _, y := range years {
		if err := enc.Encode(y); err != nil {
			return fmt.Errorf("failed to write fleet row for %d: %w", y.Year, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
