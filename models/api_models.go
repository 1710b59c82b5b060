// models/api_models.go
package models

// IngestRequest is the optional JSON body for POST /api/admin/ingest/{year}.
// An empty body downloads the year's file from the dataset index.
type IngestRequest struct {
	LocalPath string `json:"local_path,omitempty"` // e.g., "data/2007.csv.bz2"
	Limit     int    `json:"limit,omitempty"`      // sample the first N rows, 0 = all
}

// PlanesRequest is the optional JSON body for POST /api/admin/planes.
type PlanesRequest struct {
	LocalPath string `json:"local_path,omitempty"`
}

// IngestResponse reports how many rows were stored and skipped.
type IngestResponse struct {
	Source  string `json:"source"`
	Stored  int    `json:"stored"`
	Skipped int    `json:"skipped"`
}
