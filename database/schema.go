// database/schema.go
package database

import (
	"context"
	"fmt"
)

// schema uses only column types that mysql, postgres and sqlite all accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS flight_by_time (
		start_year INTEGER NOT NULL,
		start_month INTEGER NOT NULL,
		start_day_month INTEGER NOT NULL,
		start_day_week INTEGER NOT NULL,
		start_hour INTEGER NOT NULL,
		cancelled BOOLEAN NOT NULL,
		arr_delay INTEGER NULL,
		dep_delay INTEGER NULL,
		tailnum VARCHAR(16) NOT NULL DEFAULT '',
		plane_age INTEGER NULL,
		source_file VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS planes (
		tailnum VARCHAR(16) NOT NULL PRIMARY KEY,
		manufacture_year INTEGER NOT NULL,
		manufacturer VARCHAR(128) NOT NULL DEFAULT '',
		model VARCHAR(64) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS data_source_versions (
		source_name VARCHAR(64) NOT NULL PRIMARY KEY,
		source_file_url VARCHAR(512) NOT NULL DEFAULT '',
		last_downloaded_filename VARCHAR(255) NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		skipped_count INTEGER NOT NULL DEFAULT 0,
		data_hash VARCHAR(64) NOT NULL DEFAULT '',
		loaded_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
