// utils/dates.go
package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the YYYY-MM-DD format used on the command line and in query strings.
const DateLayout = "2006-01-02"

// ParseDateRange parses optional start and end dates, falling back to the defaults for empty
// values. The end must not be before the start.
func ParseDateRange(start, end string, defStart, defEnd time.Time) (time.Time, time.Time, error) {
	from, err := parseOr(start, defStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	to, err := parseOr(end, defEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", to.Format(DateLayout), from.Format(DateLayout))
	}
	return from, to, nil
}

func parseOr(s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return time.Parse(DateLayout, s)
}
