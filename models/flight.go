// models/flight.go
package models

import "time"

// Flight is one scheduled flight leg. It is a value type; copies are cheap and nothing mutates it
// after ingest.
type Flight struct {
	Year       NullInt `db:"start_year" json:"year"`
	Month      NullInt `db:"start_month" json:"month"`
	DayOfMonth NullInt `db:"start_day_month" json:"day_of_month"`
	DayOfWeek  NullInt `db:"start_day_week" json:"day_of_week"` // 1..7, Monday=1
	Hour       NullInt `db:"start_hour" json:"hour"`            // scheduled departure hour
	ArrDelay   NullInt `db:"arr_delay" json:"arr_delay"`        // minutes, negative when early
	DepDelay   NullInt `db:"dep_delay" json:"dep_delay"`
	Cancelled  bool    `db:"cancelled" json:"cancelled"`
	TailNum    string  `db:"tailnum" json:"tailnum,omitempty"`
	PlaneAge   NullInt `db:"plane_age" json:"plane_age"` // years, known only with a tail number and year
}

// HasTemporalFields reports whether every date and time field is present.
func (f Flight) HasTemporalFields() bool {
	return f.Year.Valid && f.Month.Valid && f.DayOfMonth.Valid && f.DayOfWeek.Valid && f.Hour.Valid
}

// ValidForDelayStats reports whether the flight can feed delay and cancellation statistics.
// A flight that was not cancelled must carry both delays.
func (f Flight) ValidForDelayStats() bool {
	if !f.HasTemporalFields() {
		return false
	}
	if f.Cancelled {
		return true
	}
	return f.ArrDelay.Valid && f.DepDelay.Valid
}

// ValidForAgeStats additionally requires a known plane age.
func (f Flight) ValidForAgeStats() bool {
	return f.ValidForDelayStats() && f.PlaneAge.Valid
}

// Date returns the calendar date of the flight in UTC. ok is false when a date field is missing
// or the fields do not form a real date (e.g. February 30).
func (f Flight) Date() (date time.Time, ok bool) {
	if !f.Year.Valid || !f.Month.Valid || !f.DayOfMonth.Valid {
		return time.Time{}, false
	}
	if f.Month.Int < 1 || f.Month.Int > 12 || f.DayOfMonth.Int < 1 {
		return time.Time{}, false
	}
	date = time.Date(f.Year.Int, time.Month(f.Month.Int), f.DayOfMonth.Int, 0, 0, 0, 0, time.UTC)
	if date.Day() != f.DayOfMonth.Int {
		return time.Time{}, false
	}
	return date, true
}
