// database/plane_store.go
package database

import (
	"context"
	"fmt"
	"log"

	"github.com/gewnthar/flightstats/models"
)

// SavePlanes replaces the plane registry.
func (s *Store) SavePlanes(ctx context.Context, planes []models.Plane) error {
	if len(planes) == 0 {
		log.Println("Database: No planes provided to save.")
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for planes: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM planes"); err != nil {
		return fmt.Errorf("failed to delete old planes: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO planes (tailnum, manufacture_year, manufacturer, model)
		VALUES (:tailnum, :manufacture_year, :manufacturer, :model)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare plane insert statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range planes {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			log.Printf("ERROR Database: saving plane %+v: %v", p, err)
			return fmt.Errorf("failed to insert plane '%s': %w", p.TailNum, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction for planes: %w", err)
	}

	log.Printf("Database: Successfully saved %d planes", len(planes))
	return nil
}

// Planes returns the registry ordered by tail number.
func (s *Store) Planes(ctx context.Context) ([]models.Plane, error) {
	var planes []models.Plane
	err := s.db.SelectContext(ctx, &planes, `
		SELECT tailnum, manufacture_year, manufacturer, model
		FROM planes
		ORDER BY tailnum
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query planes: %w", err)
	}
	return planes, nil
}

// PlaneYears maps tail numbers to manufacture years.
func (s *Store) PlaneYears(ctx context.Context) (map[string]int, error) {
	planes, err := s.Planes(ctx)
	if err != nil {
		return nil, err
	}
	years := make(map[string]int, len(planes))
	for _, p := range planes {
		years[p.TailNum] = p.ManufactureYear
	}
	return years, nil
}
