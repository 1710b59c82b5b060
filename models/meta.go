// models/meta.go
package models

import (
	"strconv"
	"time"
)

// DataSourceVersion tracks which file was last loaded for a data source and how it went.
type DataSourceVersion struct {
	SourceName             string    `db:"source_name" json:"source_name"` // e.g., "flights-2007", "plane-data"
	SourceFileURL          string    `db:"source_file_url" json:"source_file_url"`
	LastDownloadedFilename string    `db:"last_downloaded_filename" json:"last_downloaded_filename,omitempty"`
	RowCount               int       `db:"row_count" json:"row_count"`
	SkippedCount           int       `db:"skipped_count" json:"skipped_count"`
	DataHash               string    `db:"data_hash" json:"data_hash,omitempty"` // SHA256 of the downloaded file
	LoadedAt               time.Time `db:"loaded_at" json:"loaded_at"`
}

// Dataset is a yearly flight file advertised on the dataset index page.
type Dataset struct {
	Year     int    `json:"year"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// FlightSourceName is the data_source_versions key for a yearly flight file.
func FlightSourceName(year int) string {
	return "flights-" + strconv.Itoa(year)
}

// PlaneSourceName is the data_source_versions key for the plane registry.
const PlaneSourceName = "plane-data"
