// scraper/csv_parser.go
package scraper

import (
	"compress/bzip2"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/gewnthar/flightstats/models"
	"github.com/gewnthar/flightstats/utils"
)

// flightRow holds the columns of a yearly flight file that the analysis uses. Other columns are
// ignored by the decoder.
type flightRow struct {
	Year       models.NullInt `csv:"Year"`
	Month      models.NullInt `csv:"Month"`
	DayofMonth models.NullInt `csv:"DayofMonth"`
	DayOfWeek  models.NullInt `csv:"DayOfWeek"`
	CRSDepTime string         `csv:"CRSDepTime"` // hhmm, leading zeros dropped
	ArrDelay   models.NullInt `csv:"ArrDelay"`
	DepDelay   models.NullInt `csv:"DepDelay"`
	Cancelled  models.NullInt `csv:"Cancelled"`
	TailNum    string         `csv:"TailNum"`
}

// scheduledHour reads the hour out of an hhmm time whose leading zeros were dropped ("530" is 05:30).
// Minutes-only values such as "45" fall in hour 0. Padding a single zero instead would read "045"
// as hour 4, which is not a departure time.
func scheduledHour(hhmm string) models.NullInt {
	hhmm = strings.TrimSpace(hhmm)
	v, err := strconv.Atoi(hhmm)
	if err != nil || v < 0 {
		return models.NA
	}
	return models.Int(v / 100)
}

func (r flightRow) flight(planeYears map[string]int) (models.Flight, bool) {
	if !r.Cancelled.Valid {
		return models.Flight{}, false
	}
	f := models.Flight{
		Year:       r.Year,
		Month:      r.Month,
		DayOfMonth: r.DayofMonth,
		DayOfWeek:  r.DayOfWeek,
		Hour:       scheduledHour(r.CRSDepTime),
		ArrDelay:   r.ArrDelay,
		DepDelay:   r.DepDelay,
		Cancelled:  r.Cancelled.Int == 1,
		TailNum:    utils.NormalizeTailNumber(r.TailNum),
	}
	if f.Cancelled {
		f.ArrDelay, f.DepDelay = models.NA, models.NA
	}
	if f.TailNum != "" && f.Year.Valid {
		if built, ok := planeYears[f.TailNum]; ok {
			f.PlaneAge = models.Plane{TailNum: f.TailNum, ManufactureYear: built}.AgeIn(f.Year.Int)
		}
	}
	return f, f.ValidForDelayStats()
}

// FlightParser decodes yearly flight files. Rows that cannot feed delay statistics are counted
// and dropped. A parser is meant for one file at a time.
type FlightParser struct {
	PlaneYears map[string]int // tail number to manufacture year, may be nil

	Rows    int // rows read
	Skipped int // rows dropped
	err     error
}

// NewFlightParser returns a parser that derives plane ages from planeYears.
func NewFlightParser(planeYears map[string]int) *FlightParser {
	return &FlightParser{PlaneYears: planeYears}
}

// Err reports the error that ended the last sequence early, if any.
func (p *FlightParser) Err() error {
	return p.err
}

// reset clears the counters so each pass over a sequence reports only its own rows.
func (p *FlightParser) reset() {
	p.Rows, p.Skipped, p.err = 0, 0, nil
}

// Parse streams flights decoded from r.
func (p *FlightParser) Parse(r io.Reader) iter.Seq[models.Flight] {
	return func(yield func(models.Flight) bool) {
		p.reset()
		p.decode(r, yield)
	}
}

// File streams flights from a local file, decompressing .bz2 files. The file is opened when
// ranging starts and closed when it stops.
func (p *FlightParser) File(path string) iter.Seq[models.Flight] {
	return func(yield func(models.Flight) bool) {
		p.reset()
		rc, err := OpenDataFile(path)
		if err != nil {
			p.err = err
			return
		}
		defer rc.Close()
		p.decode(rc, yield)
		if p.err == nil {
			log.Printf("Scraper: Parsed %s: %d rows, %d skipped", path, p.Rows, p.Skipped)
		}
	}
}

func (p *FlightParser) decode(r io.Reader, yield func(models.Flight) bool) {
	cr := csv.NewReader(r)

	// csvutil assumes the first line is a header and maps columns by the `csv:"..."` tags.
	decoder, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		p.err = fmt.Errorf("failed to create CSV decoder for flights: %w", err)
		return
	}

	for {
		var row flightRow
		err := decoder.Decode(&row)
		if errors.Is(err, io.EOF) {
			return
		}
		p.Rows++
		if err != nil {
			if isFieldCountError(err) {
				p.Skipped++
				continue
			}
			p.err = fmt.Errorf("failed to decode flight CSV line %d: %w", p.Rows+1, err)
			return
		}
		f, ok := row.flight(p.PlaneYears)
		if !ok {
			p.Skipped++
			continue
		}
		if !yield(f) {
			return
		}
	}
}

func isFieldCountError(err error) bool {
	return errors.Is(err, csv.ErrFieldCount) || errors.Is(err, csvutil.ErrFieldCount)
}

// planeRow is one line of plane-data.csv. Registry lines without details only carry a tail number.
type planeRow struct {
	TailNum      string `csv:"tailnum"`
	Manufacturer string `csv:"manufacturer"`
	Model        string `csv:"model"`
	Year         string `csv:"year"`
}

// ParsePlaneDataCsv reads the plane registry. Lines without a usable year ("None", "0" or
// blank) are skipped. When a tail number repeats, the last line wins.
func ParsePlaneDataCsv(reader io.Reader) ([]models.Plane, int, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	decoder, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create CSV decoder for plane data: %w", err)
	}

	byTail := make(map[string]models.Plane)
	skipped := 0
	for {
		var row planeRow
		err := decoder.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isFieldCountError(err) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("failed to decode plane data CSV: %w", err)
		}
		tail := utils.NormalizeTailNumber(row.TailNum)
		year, err := strconv.Atoi(strings.TrimSpace(row.Year))
		if tail == "" || err != nil || year <= 0 {
			skipped++
			continue
		}
		byTail[tail] = models.Plane{
			TailNum:         tail,
			ManufactureYear: year,
			Manufacturer:    strings.TrimSpace(row.Manufacturer),
			Model:           strings.TrimSpace(row.Model),
		}
	}

	planes := make([]models.Plane, 0, len(byTail))
	for _, tail := range slices.Sorted(maps.Keys(byTail)) {
		planes = append(planes, byTail[tail])
	}
	log.Printf("Scraper: Successfully parsed %d planes from CSV (%d skipped).", len(planes), skipped)
	return planes, skipped, nil
}

// PlaneYears indexes planes by tail number.
func PlaneYears(planes []models.Plane) map[string]int {
	years := make(map[string]int, len(planes))
	for _, p := range planes {
		years[p.TailNum] = p.ManufactureYear
	}
	return years
}

// OpenDataFile opens a local data file, transparently decompressing .bz2.
func OpenDataFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", path, err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".bz2") {
		return f, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{bzip2.NewReader(f), f}, nil
}
