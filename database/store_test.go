package database

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/config"
	"github.com/gewnthar/flightstats/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func flight(y, m, d, hour, arr, dep int) models.Flight {
	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return models.Flight{
		Year: models.Int(y), Month: models.Int(m), DayOfMonth: models.Int(d),
		DayOfWeek: models.Int((int(date.Weekday())+6)%7 + 1), Hour: models.Int(hour),
		ArrDelay: models.Int(arr), DepDelay: models.Int(dep),
	}
}

func TestDSN(t *testing.T) {
	dsn, err := DSN(config.DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "h", Port: "3306", DBName: "db"})
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(h:3306)/db?parseTime=true", dsn)

	dsn, err = DSN(config.DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "h", Port: "5432", DBName: "db"})
	require.NoError(t, err)
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=db sslmode=disable", dsn)

	dsn, err = DSN(config.DatabaseConfig{Driver: "sqlite3"})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", dsn)

	dsn, err = DSN(config.DatabaseConfig{Driver: "mysql", DSN: "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", dsn)

	_, err = DSN(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestSaveAndStreamFlights(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := flight(2007, 1, 2, 6, 0, 0)
	c.Cancelled = true
	c.ArrDelay, c.DepDelay = models.NA, models.NA
	aged := flight(2007, 1, 3, 7, -4, 2)
	aged.TailNum = "N657AW"
	aged.PlaneAge = models.Int(8)
	noHour := flight(2007, 1, 4, 7, 1, 1)
	noHour.Hour = models.NA

	flights := []models.Flight{flight(2007, 1, 1, 5, 10, 5), c, aged, noHour, flight(2008, 6, 1, 5, 1, 1)}
	stored, skipped, err := s.SaveFlights(ctx, slices.Values(flights), nil, "2007.csv")
	require.NoError(t, err)
	assert.Equal(t, 4, stored)
	assert.Equal(t, 1, skipped)

	// Reloading the same source replaces its rows.
	stored, _, err = s.SaveFlights(ctx, slices.Values(flights[:3]), nil, "2007.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, stored)
	n, err := s.CountFlights(ctx, "2007.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, _, err = s.SaveFlights(ctx, slices.Values(flights[4:]), nil, "2008.csv")
	require.NoError(t, err)

	years, err := s.FlightYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2007, 2008}, years)

	w, err := analysis.NewWindow(time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2007, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	seq, errFn := s.Flights(ctx, w)
	got := slices.Collect(seq)
	require.NoError(t, errFn())
	assert.Equal(t, flights[:3], got)

	seq, errFn = s.Flights(ctx, analysis.Window{})
	assert.Len(t, slices.Collect(seq), 4)
	require.NoError(t, errFn())
}

func TestFlightsEarlyBreak(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	var flights []models.Flight
	for d := 1; d <= 20; d++ {
		flights = append(flights, flight(2007, 3, d, 9, d, d))
	}
	_, _, err := s.SaveFlights(ctx, slices.Values(flights), nil, "2007.csv")
	require.NoError(t, err)

	seq, errFn := s.Flights(ctx, analysis.Window{})
	for range seq {
		break
	}
	require.NoError(t, errFn())

	// The single sqlite connection must be free again.
	n, err := s.CountFlights(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestSaveFlightsRollsBackOnReadError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, _, err := s.SaveFlights(ctx, slices.Values([]models.Flight{flight(2007, 1, 1, 5, 1, 1)}), nil, "2007.csv")
	require.NoError(t, err)

	readErr := errors.New("truncated bz2 stream")
	_, _, err = s.SaveFlights(ctx, slices.Values([]models.Flight{flight(2007, 1, 2, 5, 1, 1), flight(2007, 1, 3, 5, 1, 1)}),
		func() error { return readErr }, "2007.csv")
	assert.ErrorIs(t, err, readErr)

	n, err := s.CountFlights(ctx, "2007.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "previous load must survive a failed reload")
}

func TestStoreAsFetcher(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := flight(2007, 1, 1, 5, 0, 0)
	c.Cancelled = true
	c.ArrDelay, c.DepDelay = models.NA, models.NA
	flights := []models.Flight{flight(2007, 1, 1, 5, 10, 5), flight(2007, 1, 1, 5, 20, 15), c}
	_, _, err := s.SaveFlights(ctx, slices.Values(flights), nil, "2007.csv")
	require.NoError(t, err)

	table, err := analysis.NewDriver(s, nil).Aggregate(ctx, analysis.DimHour, analysis.Window{})
	require.NoError(t, err)
	row, ok := table.Lookup(5, 0)
	require.True(t, ok)
	assert.Equal(t, 15.0, row.MeanArrival)
	assert.Equal(t, 10.0, row.MeanDeparture)
	assert.InDelta(t, 33.333, row.CancellationRatePct, 1e-3)
}

func TestPlanes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePlanes(ctx, nil))
	planes := []models.Plane{
		{TailNum: "N10156", ManufactureYear: 2004, Manufacturer: "EMBRAER", Model: "EMB-145XR"},
		{TailNum: "N102UW", ManufactureYear: 1998},
	}
	require.NoError(t, s.SavePlanes(ctx, planes))
	require.NoError(t, s.SavePlanes(ctx, planes))

	got, err := s.Planes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Plane{planes[0], planes[1]}, got)

	years, err := s.PlaneYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"N10156": 2004, "N102UW": 1998}, years)
}

func TestDataSourceVersions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	loaded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	v := models.DataSourceVersion{SourceName: models.FlightSourceName(2007), SourceFileURL: "http://example.test/2007.csv.bz2", LastDownloadedFilename: "2007.csv.bz2", RowCount: 10, SkippedCount: 1, LoadedAt: loaded}
	require.NoError(t, s.LogDataSourceVersion(ctx, v))
	v.RowCount = 12
	require.NoError(t, s.LogDataSourceVersion(ctx, v))

	versions, err := s.DataSourceVersions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "flights-2007", versions[0].SourceName)
	assert.Equal(t, 12, versions[0].RowCount)
	assert.True(t, loaded.Equal(versions[0].LoadedAt))
}
