// handlers/admin_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gewnthar/flightstats/models"
)

// decodeOptionalBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeOptionalBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// IngestYearHandler handles POST /api/admin/ingest/{year} with an optional
// {"local_path": "...", "limit": N} body.
func (a *API) IngestYearHandler(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 2100 {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid year '%s'", chi.URLParam(r, "year")))
		return
	}
	var req models.IngestRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Limit < 0 {
		respondWithError(w, http.StatusBadRequest, "'limit' must not be negative")
		return
	}

	log.Printf("Handler: Received ingest request for %d", year)
	res, err := a.ingester.LoadYear(r.Context(), year, req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to ingest %d: %v", year, err))
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// LoadPlanesHandler handles POST /api/admin/planes with an optional {"local_path": "..."} body.
func (a *API) LoadPlanesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PlanesRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := a.ingester.LoadPlanes(r.Context(), req.LocalPath)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load plane data: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
