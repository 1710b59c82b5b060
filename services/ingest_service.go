// services/ingest_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/config"
	"github.com/gewnthar/flightstats/models"
	"github.com/gewnthar/flightstats/scraper"
)

// IngestStore is what the ingest service needs from the record store.
type IngestStore interface {
	SaveFlights(ctx context.Context, seq iter.Seq[models.Flight], seqErr func() error, sourceFile string) (stored, skipped int, err error)
	SavePlanes(ctx context.Context, planes []models.Plane) error
	PlaneYears(ctx context.Context) (map[string]int, error)
	LogDataSourceVersion(ctx context.Context, v models.DataSourceVersion) error
}

// IngestService downloads, parses and stores the yearly flight files and the plane registry.
type IngestService struct {
	store      IngestStore
	downloader *scraper.Downloader
	sources    config.DataSourcesConfig
	paths      config.LocalPathsConfig
	now        func() time.Time
}

// NewIngestService wires the service to a store and the configured data sources.
func NewIngestService(store IngestStore, cfg *config.Config) *IngestService {
	return &IngestService{
		store:      store,
		downloader: scraper.NewDownloader(cfg.DataSources.DownloadTimeout),
		sources:    cfg.DataSources,
		paths:      cfg.LocalPaths,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Discover lists the yearly flight files on the configured index page.
func (s *IngestService) Discover(ctx context.Context) ([]models.Dataset, error) {
	if s.sources.IndexURL == "" {
		return nil, fmt.Errorf("dataset index URL is not configured")
	}
	return s.downloader.DiscoverDatasets(ctx, s.sources.IndexURL, s.sources.LinkSelector)
}

// LoadPlanes loads the plane registry from localPath, or from the configured path, downloading
// it first when it is not on disk yet.
func (s *IngestService) LoadPlanes(ctx context.Context, localPath string) (models.IngestResponse, error) {
	log.Println("Service: Loading plane registry...")
	sourceURL := ""
	hash := ""
	if localPath == "" {
		localPath = s.paths.PlaneData
		if !fileExists(localPath) {
			if s.sources.PlaneDataURL == "" {
				return models.IngestResponse{}, fmt.Errorf("plane data not found at %s and no plane_data_url is configured", localPath)
			}
			var err error
			sourceURL = s.sources.PlaneDataURL
			hash, err = s.downloader.DownloadFile(ctx, sourceURL, localPath)
			if err != nil {
				return models.IngestResponse{}, fmt.Errorf("failed to download plane data: %w", err)
			}
		}
	}

	rc, err := scraper.OpenDataFile(localPath)
	if err != nil {
		return models.IngestResponse{}, err
	}
	defer rc.Close()

	planes, skipped, err := scraper.ParsePlaneDataCsv(rc)
	if err != nil {
		return models.IngestResponse{}, fmt.Errorf("failed to parse plane data %s: %w", localPath, err)
	}
	if err := s.store.SavePlanes(ctx, planes); err != nil {
		return models.IngestResponse{}, fmt.Errorf("failed to save planes: %w", err)
	}

	s.logVersion(ctx, models.DataSourceVersion{
		SourceName:             models.PlaneSourceName,
		SourceFileURL:          sourceURL,
		LastDownloadedFilename: filepath.Base(localPath),
		RowCount:               len(planes),
		SkippedCount:           skipped,
		DataHash:               hash,
	})
	log.Printf("Service: Plane registry loaded: %d planes, %d skipped.", len(planes), skipped)
	return models.IngestResponse{Source: models.PlaneSourceName, Stored: len(planes), Skipped: skipped}, nil
}

// LoadYear stores the flights of one year. With req.LocalPath empty the file is looked up on the
// dataset index and downloaded into the data directory unless it is already there.
// Plane ages are derived from the registry already in the store.
func (s *IngestService) LoadYear(ctx context.Context, year int, req models.IngestRequest) (models.IngestResponse, error) {
	sourceName := models.FlightSourceName(year)
	log.Printf("Service: Loading %s...", sourceName)

	path, sourceURL, hash, err := s.locateYear(ctx, year, req.LocalPath)
	if err != nil {
		return models.IngestResponse{}, err
	}

	planeYears, err := s.store.PlaneYears(ctx)
	if err != nil {
		return models.IngestResponse{}, fmt.Errorf("failed to load plane registry: %w", err)
	}
	if len(planeYears) == 0 {
		log.Printf("WARN Service: Plane registry is empty; %s flights will have no plane age.", sourceName)
	}

	parser := scraper.NewFlightParser(planeYears)
	seq := parser.File(path)
	if req.Limit > 0 {
		seq = analysis.Limit(seq, req.Limit)
	}

	stored, storeSkipped, err := s.store.SaveFlights(ctx, seq, parser.Err, filepath.Base(path))
	if err != nil {
		return models.IngestResponse{}, fmt.Errorf("failed to save %s: %w", sourceName, err)
	}
	skipped := parser.Skipped + storeSkipped

	s.logVersion(ctx, models.DataSourceVersion{
		SourceName:             sourceName,
		SourceFileURL:          sourceURL,
		LastDownloadedFilename: filepath.Base(path),
		RowCount:               stored,
		SkippedCount:           skipped,
		DataHash:               hash,
	})
	log.Printf("Service: %s loaded: %d flights stored, %d skipped.", sourceName, stored, skipped)
	return models.IngestResponse{Source: sourceName, Stored: stored, Skipped: skipped}, nil
}

func (s *IngestService) locateYear(ctx context.Context, year int, localPath string) (path, sourceURL, hash string, err error) {
	if localPath != "" {
		return localPath, "", "", nil
	}

	datasets, err := s.Discover(ctx)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to discover datasets: %w", err)
	}
	ds, ok := scraper.FindDataset(datasets, year)
	if !ok {
		return "", "", "", fmt.Errorf("no flight file for %d on %s", year, s.sources.IndexURL)
	}

	path = filepath.Join(s.paths.DataDir, ds.Filename)
	if fileExists(path) {
		log.Printf("Service: Using cached %s for %d.", path, year)
		return path, ds.URL, "", nil
	}
	hash, err = s.downloader.DownloadFile(ctx, ds.URL, path)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to download flights for %d: %w", year, err)
	}
	return path, ds.URL, hash, nil
}

// logVersion records a load; a failure here does not undo the load.
func (s *IngestService) logVersion(ctx context.Context, v models.DataSourceVersion) {
	v.LoadedAt = s.now()
	if err := s.store.LogDataSourceVersion(ctx, v); err != nil {
		log.Printf("ERROR Service: Failed to log data source version for %s: %v", v.SourceName, err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
