// analysis/buckets.go
package analysis

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gewnthar/flightstats/models"
)

var titleCaser = cases.Title(language.English)

// Season is a meteorological-ish quarter of the year.
type Season uint8

const (
	Winter Season = iota
	Spring
	Summer
	Autumn
	seasonCount
)

var seasonNames = [seasonCount]string{"winter", "spring", "summer", "autumn"}

func (s Season) String() string {
	if s >= seasonCount {
		return fmt.Sprintf("season(%d)", uint8(s))
	}
	return seasonNames[s]
}

// ParseSeason accepts the lower-case names returned by String.
func ParseSeason(s string) (Season, error) {
	for i, name := range seasonNames {
		if strings.EqualFold(name, s) {
			return Season(i), nil
		}
	}
	return 0, fmt.Errorf("unknown season %q", s)
}

// monthDay orders calendar days inside a year as month*100+day.
type monthDay int

func toMonthDay(m time.Month, d int) monthDay { return monthDay(int(m)*100 + d) }

type seasonRule struct {
	season   Season
	from, to monthDay
}

// contains treats a rule whose start is after its end as wrapping over new year.
func (r seasonRule) contains(md monthDay) bool {
	if r.from > r.to {
		return md >= r.from || md <= r.to
	}
	return md >= r.from && md <= r.to
}

// Rules are checked in order and the first match wins, so Mar 19 is Winter.
var seasonRules = [seasonCount]seasonRule{
	{Winter, toMonthDay(time.December, 21), toMonthDay(time.March, 19)},
	{Spring, toMonthDay(time.March, 19), toMonthDay(time.June, 19)},
	{Summer, toMonthDay(time.June, 20), toMonthDay(time.September, 21)},
	{Autumn, toMonthDay(time.September, 22), toMonthDay(time.December, 20)},
}

// SeasonOf classifies a calendar date. Only month and day are used.
func SeasonOf(date time.Time) Season {
	md := toMonthDay(date.Month(), date.Day())
	for _, r := range seasonRules {
		if r.contains(md) {
			return r.season
		}
	}
	// The rules cover every day of the year.
	return Winter
}

// HourOfDay returns the scheduled departure hour, 0..23.
func HourOfDay(f models.Flight) (int, bool) {
	if !f.Hour.Valid || f.Hour.Int < 0 || f.Hour.Int > 23 {
		return 0, false
	}
	return f.Hour.Int, true
}

// DayOfWeek maps the stored 1..7 (Monday=1) weekday onto 0..6 (Monday=0).
func DayOfWeek(f models.Flight) (int, bool) {
	if !f.DayOfWeek.Valid || f.DayOfWeek.Int < 1 || f.DayOfWeek.Int > 7 {
		return 0, false
	}
	return f.DayOfWeek.Int - 1, true
}

// AgeGroup bins a plane age into five-year groups: (-inf,5], (5,10], ... (20,25], (25,inf).
func AgeGroup(age int) int {
	for i, upper := range ageGroupUpper {
		if age <= upper {
			return i
		}
	}
	return len(ageGroupUpper)
}

var ageGroupUpper = [...]int{5, 10, 15, 20, 25}

// AboveFleetAverage reports whether the plane is older than the fleet average for the flight's
// year. Flights without an age or year get ErrNoPlaneAge; callers filter them out first.
func AboveFleetAverage(f models.Flight, avg PerYearAverageAge) (bool, error) {
	if !f.PlaneAge.Valid || !f.Year.Valid {
		return false, ErrNoPlaneAge
	}
	mean, ok := avg[f.Year.Int]
	if !ok {
		return false, &MissingYearError{Year: f.Year.Int}
	}
	return float64(f.PlaneAge.Int) > mean, nil
}

// Dimension is a way of bucketing flights.
type Dimension uint8

const (
	DimHour Dimension = iota
	DimWeekday
	DimSeason
	DimAgeGroup
	DimAboveAverage
	dimensionCount
)

var dimensionNames = [dimensionCount]string{"hour", "weekday", "season", "age_group", "above_average"}

var dimensionKeys = [dimensionCount]int{24, 7, int(seasonCount), len(ageGroupUpper) + 1, 2}

func (d Dimension) String() string {
	if d >= dimensionCount {
		return fmt.Sprintf("dimension(%d)", uint8(d))
	}
	return dimensionNames[d]
}

// ParseDimension accepts the names returned by String.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range dimensionNames {
		if name == s {
			return Dimension(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// AllDimensions lists every dimension in declaration order.
func AllDimensions() []Dimension {
	out := make([]Dimension, 0, dimensionCount)
	for d := Dimension(0); d < dimensionCount; d++ {
		out = append(out, d)
	}
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (d Dimension) MarshalText() ([]byte, error) {
	if d >= dimensionCount {
		return nil, fmt.Errorf("invalid dimension %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dimension) UnmarshalText(text []byte) error {
	parsed, err := ParseDimension(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Keys is the number of bucket keys, 0..Keys()-1.
func (d Dimension) Keys() int {
	if d >= dimensionCount {
		return 0
	}
	return dimensionKeys[d]
}

// ByYear reports whether buckets are split per flight year. Plane ages only mean something
// within a year, so the age dimensions are.
func (d Dimension) ByYear() bool {
	return d == DimAgeGroup || d == DimAboveAverage
}

// MinDays is the shortest window the dimension accepts.
func (d Dimension) MinDays() int {
	if d == DimWeekday {
		return 7
	}
	return 0
}

// Label renders a bucket key for tables.
func (d Dimension) Label(key int) string {
	switch d {
	case DimHour:
		return fmt.Sprintf("%02d:00", key)
	case DimWeekday:
		// time.Weekday starts on Sunday, keys start on Monday.
		return time.Weekday((key + 1) % 7).String()
	case DimSeason:
		return titleCaser.String(Season(key).String())
	case DimAgeGroup:
		if key >= len(ageGroupUpper) {
			return fmt.Sprintf("over %d years", ageGroupUpper[len(ageGroupUpper)-1])
		}
		if key == 0 {
			return fmt.Sprintf("up to %d years", ageGroupUpper[0])
		}
		return fmt.Sprintf("%d-%d years", ageGroupUpper[key-1]+1, ageGroupUpper[key])
	case DimAboveAverage:
		if key == 1 {
			return "above fleet average"
		}
		return "at or below fleet average"
	}
	return fmt.Sprintf("%d", key)
}
