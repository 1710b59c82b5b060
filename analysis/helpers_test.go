package analysis

import (
	"time"

	"github.com/gewnthar/flightstats/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// onTime builds a non-cancelled flight on date at hour with the given delays.
func onTime(date time.Time, hour, arr, dep int) models.Flight {
	return models.Flight{
		Year:       models.Int(date.Year()),
		Month:      models.Int(int(date.Month())),
		DayOfMonth: models.Int(date.Day()),
		DayOfWeek:  models.Int((int(date.Weekday())+6)%7 + 1),
		Hour:       models.Int(hour),
		ArrDelay:   models.Int(arr),
		DepDelay:   models.Int(dep),
	}
}

func cancelled(date time.Time, hour int) models.Flight {
	f := onTime(date, hour, 0, 0)
	f.ArrDelay, f.DepDelay = models.NA, models.NA
	f.Cancelled = true
	return f
}

func withPlane(f models.Flight, tail string, age int) models.Flight {
	f.TailNum = tail
	f.PlaneAge = models.Int(age)
	return f
}
