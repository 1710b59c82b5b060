// handlers/router.go
package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/models"
	"github.com/gewnthar/flightstats/services"
)

// Analyzer is the part of the analysis service the API serves.
type Analyzer interface {
	Run(ctx context.Context, dim analysis.Dimension, w analysis.Window) (*analysis.Table, error)
	RunAll(ctx context.Context, w analysis.Window, dims []analysis.Dimension) (*services.Report, error)
	Fleet(ctx context.Context, w analysis.Window) (*services.FleetSummary, error)
}

// Ingester loads data files into the store.
type Ingester interface {
	LoadYear(ctx context.Context, year int, req models.IngestRequest) (models.IngestResponse, error)
	LoadPlanes(ctx context.Context, localPath string) (models.IngestResponse, error)
}

// Pinger checks the store connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// API holds the services behind the HTTP handlers.
type API struct {
	analyzer Analyzer
	ingester Ingester
	db       Pinger

	// DefaultWindow is used when a request gives no dates. The zero window covers everything.
	DefaultWindow analysis.Window
}

func NewAPI(analyzer Analyzer, ingester Ingester, db Pinger) *API {
	return &API{analyzer: analyzer, ingester: ingester, db: db}
}

// Router wires every route.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", a.HealthHandler)

	r.Get("/api/stats", a.AllStatsHandler)
	r.Get("/api/stats/{dimension}", a.StatsHandler)
	r.Get("/api/fleet/average-age", a.FleetAverageAgeHandler)

	r.Post("/api/admin/ingest/{year}", a.IngestYearHandler)
	r.Post("/api/admin/planes", a.LoadPlanesHandler)
	return r
}

// HealthHandler reports whether the store answers.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.Ping(r.Context()); err != nil {
			log.Printf("ERROR Handler: Health check failed: DB ping error: %v", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "database connection error"})
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "flightstats is healthy"})
}
