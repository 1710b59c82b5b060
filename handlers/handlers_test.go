package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/config"
	"github.com/gewnthar/flightstats/models"
	"github.com/gewnthar/flightstats/report"
	"github.com/gewnthar/flightstats/services"
)

type fakeIngester struct {
	year   int
	req    models.IngestRequest
	planes string
	err    error
}

func (f *fakeIngester) LoadYear(_ context.Context, year int, req models.IngestRequest) (models.IngestResponse, error) {
	f.year, f.req = year, req
	if f.err != nil {
		return models.IngestResponse{}, f.err
	}
	return models.IngestResponse{Source: models.FlightSourceName(year), Stored: 10, Skipped: 2}, nil
}

func (f *fakeIngester) LoadPlanes(_ context.Context, localPath string) (models.IngestResponse, error) {
	f.planes = localPath
	return models.IngestResponse{Source: models.PlaneSourceName, Stored: 3}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func flight(y, m, d, hour, arr, dep int) models.Flight {
	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return models.Flight{
		Year: models.Int(y), Month: models.Int(m), DayOfMonth: models.Int(d),
		DayOfWeek: models.Int((int(date.Weekday())+6)%7 + 1), Hour: models.Int(hour),
		ArrDelay: models.Int(arr), DepDelay: models.Int(dep),
	}
}

func newTestAPI(db Pinger) (*API, *fakeIngester) {
	c := flight(2007, 1, 1, 5, 0, 0)
	c.Cancelled = true
	c.ArrDelay, c.DepDelay = models.NA, models.NA
	old := flight(2007, 1, 2, 7, 30, 20)
	old.TailNum, old.PlaneAge = "N351", models.Int(12)
	young := flight(2007, 1, 2, 7, 10, 0)
	young.TailNum, young.PlaneAge = "N685", models.Int(2)
	flights := analysis.SliceFetcher{flight(2007, 1, 1, 5, 10, 5), flight(2007, 1, 1, 5, 20, 15), c, old, young}

	ingester := &fakeIngester{}
	svc := services.NewAnalysisService(flights, config.AnalysisConfig{Parallelism: 2})
	return NewAPI(svc, ingester, db), ingester
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthHandler(t *testing.T) {
	api, _ := newTestAPI(pinger{})
	rec := do(t, api.Router(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	api, _ = newTestAPI(pinger{err: errors.New("dial tcp: connection refused")})
	rec = do(t, api.Router(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatsHandler(t *testing.T) {
	api, _ := newTestAPI(nil)
	h := api.Router()

	rec := do(t, h, http.MethodGet, "/api/stats/hour", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		analysis.Table
		Summary report.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, analysis.DimHour, res.Dimension)
	require.Len(t, res.Rows, 24)
	five := res.Rows[5]
	assert.Equal(t, "05:00", five.Label)
	assert.Equal(t, 15.0, five.MeanArrival)
	assert.Equal(t, 10.0, five.MeanDeparture)
	assert.InDelta(t, 33.333, five.CancellationRatePct, 1e-3)
	assert.Equal(t, 2, res.Summary.Buckets)
	assert.Equal(t, "07:00", res.Summary.WorstBucket)

	rec = do(t, h, http.MethodGet, "/api/stats/hour?start=2007-01-02&end=2007-01-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Zero(t, res.Rows[5].TotalCount)
	assert.Equal(t, uint64(2), res.Rows[7].TotalCount)
}

func TestStatsHandlerErrors(t *testing.T) {
	api, _ := newTestAPI(nil)
	h := api.Router()

	rec := do(t, h, http.MethodGet, "/api/stats/airline", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "unknown dimension")

	rec = do(t, h, http.MethodGet, "/api/stats/weekday?start=2007-01-01&end=2007-01-03", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/stats/hour?start=01/02/2007&end=2007-01-03", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/stats/hour?start=2007-01-03&end=2007-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/stats/hour?start=2007-01-03", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A configured default fills the missing bound.
	api.DefaultWindow = analysis.Window{Start: time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec = do(t, api.Router(), http.MethodGet, "/api/stats/hour?start=2007-01-02", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/stats/hour", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAllStatsHandler(t *testing.T) {
	api, _ := newTestAPI(nil)
	h := api.Router()

	rec := do(t, h, http.MethodGet, "/api/stats?start=2007-01-01&end=2007-01-03&dimension=hour,weekday,above_average", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		RunID  string            `json:"run_id"`
		Tables []analysis.Table  `json:"tables"`
		Errors map[string]string `json:"errors"`
		Fleet  struct {
			Years []models.FleetYearAge `json:"years"`
		} `json:"fleet"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Tables, 2)
	assert.Equal(t, analysis.DimHour, res.Tables[0].Dimension)
	assert.Equal(t, analysis.DimAboveAverage, res.Tables[1].Dimension)
	assert.Contains(t, res.Errors["weekday"], "7")
	assert.Equal(t, []models.FleetYearAge{{Year: 2007, AverageAge: 7, TailCount: 2}}, res.Fleet.Years)

	rec = do(t, h, http.MethodGet, "/api/stats?dimension=hour,airline", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFleetAverageAgeHandler(t *testing.T) {
	api, _ := newTestAPI(nil)
	rec := do(t, api.Router(), http.MethodGet, "/api/fleet/average-age", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"window":{"start":"0001-01-01T00:00:00Z","end":"0001-01-01T00:00:00Z"},"years":[{"year":2007,"average_age":7,"tail_count":2}],"conflicts":0}`, rec.Body.String())
}

func TestIngestYearHandler(t *testing.T) {
	api, ingester := newTestAPI(nil)
	h := api.Router()

	rec := do(t, h, http.MethodPost, "/api/admin/ingest/2007", `{"local_path":"data/2007.csv.bz2","limit":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2007, ingester.year)
	assert.Equal(t, models.IngestRequest{LocalPath: "data/2007.csv.bz2", Limit: 100}, ingester.req)
	assert.JSONEq(t, `{"source":"flights-2007","stored":10,"skipped":2}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/admin/ingest/2008", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.IngestRequest{}, ingester.req)

	rec = do(t, h, http.MethodPost, "/api/admin/ingest/two-thousand", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/admin/ingest/2007", `{"limit":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/admin/ingest/2007", `{"limit":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ingester.err = errors.New("no flight file for 2007")
	rec = do(t, h, http.MethodPost, "/api/admin/ingest/2007", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "no flight file for 2007")
}

func TestLoadPlanesHandler(t *testing.T) {
	api, ingester := newTestAPI(nil)
	h := api.Router()

	rec := do(t, h, http.MethodPost, "/api/admin/planes", `{"local_path":"data/plane-data.csv"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data/plane-data.csv", ingester.planes)

	rec = do(t, h, http.MethodPost, "/api/admin/planes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ingester.planes)
}
