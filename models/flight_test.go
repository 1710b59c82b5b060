package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFlight() Flight {
	return Flight{
		Year: Int(2007), Month: Int(1), DayOfMonth: Int(15), DayOfWeek: Int(1), Hour: Int(5),
		ArrDelay: Int(10), DepDelay: Int(5),
	}
}

func TestNullIntUnmarshalCSV(t *testing.T) {
	tests := []struct {
		in   string
		want NullInt
	}{
		{"42", Int(42)},
		{"-7", Int(-7)},
		{" 3 ", Int(3)},
		{"NA", NA},
		{"", NA},
		{"abc", NA},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n NullInt
			require.NoError(t, n.UnmarshalCSV([]byte(tt.in)))
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestNullIntScanAndValue(t *testing.T) {
	var n NullInt
	require.NoError(t, n.Scan(int64(12)))
	assert.Equal(t, Int(12), n)

	require.NoError(t, n.Scan(nil))
	assert.False(t, n.Valid)

	require.NoError(t, n.Scan([]byte("9")))
	assert.Equal(t, Int(9), n)

	assert.Error(t, n.Scan(3.5))

	v, err := NA.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Int(4).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestNullIntJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A NullInt `json:"a"`
		B NullInt `json:"b"`
	}{A: Int(1), B: NA})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":null}`, string(b))

	var n NullInt
	require.NoError(t, json.Unmarshal([]byte("null"), &n))
	assert.False(t, n.Valid)
	require.NoError(t, json.Unmarshal([]byte("17"), &n))
	assert.Equal(t, Int(17), n)
}

func TestFlightValidity(t *testing.T) {
	f := validFlight()
	assert.True(t, f.ValidForDelayStats())
	assert.False(t, f.ValidForAgeStats())

	f.PlaneAge = Int(8)
	assert.True(t, f.ValidForAgeStats())

	noHour := validFlight()
	noHour.Hour = NA
	assert.False(t, noHour.ValidForDelayStats())

	noDelay := validFlight()
	noDelay.ArrDelay = NA
	assert.False(t, noDelay.ValidForDelayStats())

	cancelled := validFlight()
	cancelled.Cancelled = true
	cancelled.ArrDelay, cancelled.DepDelay = NA, NA
	assert.True(t, cancelled.ValidForDelayStats())
}

func TestFlightDate(t *testing.T) {
	d, ok := validFlight().Date()
	require.True(t, ok)
	assert.Equal(t, "2007-01-15", d.Format("2006-01-02"))

	bad := validFlight()
	bad.Month, bad.DayOfMonth = Int(2), Int(30)
	_, ok = bad.Date()
	assert.False(t, ok)

	bad.Month = NA
	_, ok = bad.Date()
	assert.False(t, ok)
}

func TestPlaneAgeIn(t *testing.T) {
	p := Plane{TailNum: "N123", ManufactureYear: 1998}
	assert.Equal(t, Int(9), p.AgeIn(2007))
	assert.Equal(t, Int(0), p.AgeIn(1998))
	assert.False(t, p.AgeIn(1990).Valid)
}
