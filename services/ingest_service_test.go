package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightstats/config"
	"github.com/gewnthar/flightstats/models"
)

type fakeStore struct {
	flights    []models.Flight
	sourceFile string
	planes     []models.Plane
	versions   []models.DataSourceVersion
	logErr     error
}

func (s *fakeStore) SaveFlights(_ context.Context, seq iter.Seq[models.Flight], seqErr func() error, sourceFile string) (int, int, error) {
	var flights []models.Flight
	for f := range seq {
		flights = append(flights, f)
	}
	if seqErr != nil {
		if err := seqErr(); err != nil {
			return 0, 0, err
		}
	}
	s.flights, s.sourceFile = flights, sourceFile
	return len(flights), 0, nil
}

func (s *fakeStore) SavePlanes(_ context.Context, planes []models.Plane) error {
	s.planes = planes
	return nil
}

func (s *fakeStore) PlaneYears(context.Context) (map[string]int, error) {
	years := make(map[string]int)
	for _, p := range s.planes {
		years[p.TailNum] = p.ManufactureYear
	}
	return years, nil
}

func (s *fakeStore) LogDataSourceVersion(_ context.Context, v models.DataSourceVersion) error {
	if s.logErr != nil {
		return s.logErr
	}
	s.versions = append(s.versions, v)
	return nil
}

const yearCSV = filesHeader + `2007,1,1,1,905,10,5,0,N351
2007,1,1,1,930,20,15,0,N685
2007,1,1,1,950,NA,NA,1,N351
2007,1,2,2,NA,1,1,0,N351
`

const planeCSV = `tailnum,type,manufacturer,issue_date,model,status,aircraft_type,engine_type,year
N351,Corporation,BOEING,01/02/1999,737-3H4,Valid,Fixed Wing Multi-Engine,Turbo-Fan,1999
N685,Corporation,BOEING,01/02/2005,737-7H4,Valid,Fixed Wing Multi-Engine,Turbo-Fan,2005
N999,Corporation,BOEING,,737-7H4,Valid,Fixed Wing Multi-Engine,Turbo-Fan,None
`

func testServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.html":
			fmt.Fprint(w, `<ul><li><a href="/files/2007.csv">2007.csv</a></li><li><a href="/files/plane-data.csv">planes</a></li></ul>`)
		case "/files/2007.csv":
			downloads.Add(1)
			fmt.Fprint(w, yearCSV)
		case "/files/plane-data.csv":
			downloads.Add(1)
			fmt.Fprint(w, planeCSV)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &downloads
}

func testConfig(srvURL, dir string) *config.Config {
	return &config.Config{
		DataSources: config.DataSourcesConfig{
			IndexURL:        srvURL + "/index.html",
			PlaneDataURL:    srvURL + "/files/plane-data.csv",
			LinkSelector:    "a[href]",
			DownloadTimeout: 5 * time.Second,
		},
		LocalPaths: config.LocalPathsConfig{
			DataDir:   dir,
			PlaneData: filepath.Join(dir, "plane-data.csv"),
		},
	}
}

func TestLoadPlanesDownloadsOnce(t *testing.T) {
	srv, downloads := testServer(t)
	dir := t.TempDir()
	store := &fakeStore{}
	svc := NewIngestService(store, testConfig(srv.URL, dir))
	loaded := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return loaded }
	ctx := context.Background()

	res, err := svc.LoadPlanes(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.IngestResponse{Source: models.PlaneSourceName, Stored: 2, Skipped: 1}, res)
	assert.Len(t, store.planes, 2)

	require.Len(t, store.versions, 1)
	v := store.versions[0]
	assert.Equal(t, srv.URL+"/files/plane-data.csv", v.SourceFileURL)
	assert.Equal(t, "plane-data.csv", v.LastDownloadedFilename)
	assert.Len(t, v.DataHash, 64)
	assert.Equal(t, loaded, v.LoadedAt)

	// The cached copy is used the second time.
	_, err = svc.LoadPlanes(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), downloads.Load())
	assert.Empty(t, store.versions[1].SourceFileURL)
}

func TestLoadPlanesMissingSource(t *testing.T) {
	cfg := testConfig("", t.TempDir())
	cfg.DataSources.PlaneDataURL = ""
	svc := NewIngestService(&fakeStore{}, cfg)

	_, err := svc.LoadPlanes(context.Background(), "")
	assert.Error(t, err)
}

func TestLoadYearFromIndex(t *testing.T) {
	srv, downloads := testServer(t)
	dir := t.TempDir()
	store := &fakeStore{}
	svc := NewIngestService(store, testConfig(srv.URL, dir))
	ctx := context.Background()

	_, err := svc.LoadPlanes(ctx, "")
	require.NoError(t, err)

	res, err := svc.LoadYear(ctx, 2007, models.IngestRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.IngestResponse{Source: "flights-2007", Stored: 3, Skipped: 1}, res)
	assert.Equal(t, "2007.csv", store.sourceFile)
	assert.FileExists(t, filepath.Join(dir, "2007.csv"))

	require.Len(t, store.flights, 3)
	assert.Equal(t, models.Int(8), store.flights[0].PlaneAge)
	assert.Equal(t, models.Int(2), store.flights[1].PlaneAge)
	assert.True(t, store.flights[2].Cancelled)

	last := store.versions[len(store.versions)-1]
	assert.Equal(t, "flights-2007", last.SourceName)
	assert.Equal(t, 3, last.RowCount)
	assert.Equal(t, 1, last.SkippedCount)

	_, err = svc.LoadYear(ctx, 2007, models.IngestRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, store.flights, 1)
	assert.Equal(t, int32(2), downloads.Load())

	_, err = svc.LoadYear(ctx, 1999, models.IngestRequest{})
	assert.Error(t, err)
}

func TestLoadYearLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flights.csv")
	require.NoError(t, os.WriteFile(path, []byte(yearCSV), 0o644))
	store := &fakeStore{logErr: errors.New("table is locked")}
	svc := NewIngestService(store, testConfig("", dir))

	res, err := svc.LoadYear(context.Background(), 2007, models.IngestRequest{LocalPath: path})
	require.NoError(t, err, "a failed version log does not fail the load")
	assert.Equal(t, 3, res.Stored)
	assert.Equal(t, "flights.csv", store.sourceFile)
	assert.False(t, store.flights[0].PlaneAge.Valid)

	_, err = svc.LoadYear(context.Background(), 2007, models.IngestRequest{LocalPath: filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
}
