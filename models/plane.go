// models/plane.go
package models

// Plane is one row of the plane registry: the manufacture year of an airframe by tail number.
type Plane struct {
	TailNum         string `db:"tailnum" json:"tailnum"`
	ManufactureYear int    `db:"manufacture_year" json:"manufacture_year"`
	Manufacturer    string `db:"manufacturer" json:"manufacturer,omitempty"`
	Model           string `db:"model" json:"model,omitempty"`
}

// AgeIn returns the plane's age in the given flight year. Planes registered after the flight
// year have no meaningful age.
func (p Plane) AgeIn(year int) NullInt {
	age := year - p.ManufactureYear
	if age < 0 {
		return NA
	}
	return Int(age)
}

// FleetYearAge is one row of the per-year fleet age table.
type FleetYearAge struct {
	Year       int     `json:"year" csv:"year"`
	AverageAge float64 `json:"average_age" csv:"average_age"`
	TailCount  int     `json:"tail_count" csv:"tail_count"`
}
