// database/datasource_store.go
package database

import (
	"context"
	"fmt"
	"log"

	"github.com/gewnthar/flightstats/models"
)

// LogDataSourceVersion records the latest load of a data source, replacing the previous record.
func (s *Store) LogDataSourceVersion(ctx context.Context, v models.DataSourceVersion) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for data source version: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM data_source_versions WHERE source_name = ?"), v.SourceName); err != nil {
		return fmt.Errorf("failed to clear data source version for %s: %w", v.SourceName, err)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO data_source_versions (
			source_name, source_file_url, last_downloaded_filename,
			row_count, skipped_count, data_hash, loaded_at
		) VALUES (
			:source_name, :source_file_url, :last_downloaded_filename,
			:row_count, :skipped_count, :data_hash, :loaded_at
		)
	`, v)
	if err != nil {
		log.Printf("ERROR Database: Failed to log data source version for '%s': %v", v.SourceName, err)
		return fmt.Errorf("failed to log data source version for %s: %w", v.SourceName, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit data source version for %s: %w", v.SourceName, err)
	}

	log.Printf("Database: Successfully logged data source version for '%s'. Rows: %d, Skipped: %d",
		v.SourceName, v.RowCount, v.SkippedCount)
	return nil
}

// DataSourceVersions returns every logged data source ordered by name.
func (s *Store) DataSourceVersions(ctx context.Context) ([]models.DataSourceVersion, error) {
	var versions []models.DataSourceVersion
	err := s.db.SelectContext(ctx, &versions, `
		SELECT source_name, source_file_url, last_downloaded_filename,
		       row_count, skipped_count, data_hash, loaded_at
		FROM data_source_versions
		ORDER BY source_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query data_source_versions: %w", err)
	}
	return versions, nil
}
