// analysis/errors.go
package analysis

import (
	"errors"
	"fmt"
)

// ErrFleetAveragesRequired is returned when the above_average dimension runs without per-year
// fleet averages.
var ErrFleetAveragesRequired = errors.New("fleet average ages are required for the above_average dimension")

// ErrNoPlaneAge is returned when a flight has no plane age or year to compare with the fleet.
var ErrNoPlaneAge = errors.New("flight has no plane age or year")

// InsufficientRangeError means the window is too short for the dimension to cover every key.
type InsufficientRangeError struct {
	Dimension Dimension
	Days      int
	Required  int
}

func (e *InsufficientRangeError) Error() string {
	return fmt.Sprintf("%s aggregation needs at least %d days between start and end, got %d", e.Dimension, e.Required, e.Days)
}

// MissingYearError means a flight year has no fleet average age.
type MissingYearError struct {
	Year int
}

func (e *MissingYearError) Error() string {
	return fmt.Sprintf("no fleet average age for year %d", e.Year)
}

// FleetAgeConflictError reports a tail number seen with two different ages in the same year.
// The first age seen is kept.
type FleetAgeConflictError struct {
	TailNum string
	Year    int
	Kept    int
	Seen    int
}

func (e *FleetAgeConflictError) Error() string {
	return fmt.Sprintf("conflicting plane age for %s in %d: kept %d, saw %d", e.TailNum, e.Year, e.Kept, e.Seen)
}
