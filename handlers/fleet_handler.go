// handlers/fleet_handler.go
package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/models"
)

type fleetResponse struct {
	Window    analysis.Window       `json:"window"`
	Years     []models.FleetYearAge `json:"years"`
	Conflicts int                   `json:"conflicts"` // planes reported with more than one age in a year
}

// FleetAverageAgeHandler handles GET /api/fleet/average-age?start&end.
func (a *API) FleetAverageAgeHandler(w http.ResponseWriter, r *http.Request) {
	win, err := a.windowFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("Handler: Received fleet age request over %s", win)
	fleet, err := a.analyzer.Fleet(r.Context(), win)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to compute fleet ages: %v", err))
		return
	}
	years := fleet.Years
	if years == nil {
		years = []models.FleetYearAge{}
	}
	respondWithJSON(w, http.StatusOK, fleetResponse{Window: win, Years: years, Conflicts: fleet.ConflictCount()})
}
