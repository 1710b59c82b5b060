// handlers/stats_handler.go
package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/report"
	"github.com/gewnthar/flightstats/services"
	"github.com/gewnthar/flightstats/utils"
)

// windowFromQuery reads ?start=YYYY-MM-DD&end=YYYY-MM-DD. Without either the default window is
// used; a single bound is filled from the default.
func (a *API) windowFromQuery(r *http.Request) (analysis.Window, error) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" && end == "" {
		return a.DefaultWindow, nil
	}
	if (start == "" && a.DefaultWindow.Start.IsZero()) || (end == "" && a.DefaultWindow.End.IsZero()) {
		return analysis.Window{}, errors.New("both 'start' and 'end' are required (YYYY-MM-DD)")
	}
	from, to, err := utils.ParseDateRange(start, end, a.DefaultWindow.Start, a.DefaultWindow.End)
	if err != nil {
		return analysis.Window{}, err
	}
	return analysis.NewWindow(from, to)
}

// statusFor maps aggregation errors to HTTP status codes.
func statusFor(err error) int {
	var short *analysis.InsufficientRangeError
	switch {
	case errors.As(err, &short), errors.Is(err, analysis.ErrFleetAveragesRequired):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type statsResponse struct {
	*analysis.Table
	Summary report.Summary `json:"summary"`
}

// StatsHandler handles GET /api/stats/{dimension}?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	dim, err := analysis.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	win, err := a.windowFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("Handler: Received stats request for %s over %s", dim, win)
	table, err := a.analyzer.Run(r.Context(), dim, win)
	if err != nil {
		respondWithError(w, statusFor(err), fmt.Sprintf("Failed to compute %s statistics: %v", dim, err))
		return
	}
	summary, err := report.Summarize(table)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, statsResponse{Table: table, Summary: summary})
}

type allStatsResponse struct {
	RunID  string                 `json:"run_id"`
	Window analysis.Window        `json:"window"`
	Tables []*analysis.Table      `json:"tables"`
	Errors map[string]string      `json:"errors"`
	Fleet  *services.FleetSummary `json:"fleet,omitempty"`
}

// AllStatsHandler handles GET /api/stats?start&end[&dimension=hour,season]. Dimensions that
// fail are listed under "errors" and the rest are still returned.
func (a *API) AllStatsHandler(w http.ResponseWriter, r *http.Request) {
	var names []string
	if q := r.URL.Query().Get("dimension"); q != "" {
		names = strings.Split(q, ",")
	}
	dims, err := services.ParseDimensions(names)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	win, err := a.windowFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := a.analyzer.RunAll(r.Context(), win, dims)
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, fmt.Sprintf("Analysis run interrupted: %v", err))
		return
	}
	res := allStatsResponse{
		RunID:  rep.RunID.String(),
		Window: rep.Window,
		Tables: rep.OrderedTables(),
		Errors: make(map[string]string, len(rep.Errors)),
		Fleet:  rep.Fleet,
	}
	if res.Tables == nil {
		res.Tables = []*analysis.Table{}
	}
	for dim, err := range rep.Errors {
		res.Errors[dim.String()] = err.Error()
	}
	respondWithJSON(w, http.StatusOK, res)
}
