// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gewnthar/flightstats/analysis"
	"github.com/gewnthar/flightstats/config"
	"github.com/gewnthar/flightstats/database"
	"github.com/gewnthar/flightstats/handlers"
	"github.com/gewnthar/flightstats/models"
	"github.com/gewnthar/flightstats/report"
	"github.com/gewnthar/flightstats/scraper"
	"github.com/gewnthar/flightstats/services"
	"github.com/gewnthar/flightstats/utils"
)

func main() {
	var configPath string
	rootCmd := &cobra.Command{
		Use:           "flightstats",
		Short:         "Flight delay and cancellation statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: search the usual places)")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newIngestCmd(&configPath),
		newDatasetsCmd(&configPath),
		newAnalyzeCmd(&configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("ERROR: %v", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	log.Printf("Configuration loaded. Server port: %s, DB driver: %s, DB name: %s",
		cfg.Server.Port, cfg.Database.Driver, cfg.Database.DBName)
	return cfg, nil
}

// configuredWindow is the analysis window from the config file, unbounded unless both dates are set.
func configuredWindow(cfg config.AnalysisConfig) analysis.Window {
	if cfg.StartDate.IsZero() || cfg.EndDate.IsZero() {
		return analysis.Window{}
	}
	return analysis.Window{Start: cfg.StartDate, End: cfg.EndDate}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the statistics API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("error initializing database: %w", err)
			}
			defer store.Close()

			api := handlers.NewAPI(
				services.NewAnalysisService(store, cfg.Analysis),
				services.NewIngestService(store, cfg),
				store,
			)
			api.DefaultWindow = configuredWindow(cfg.Analysis)

			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           api.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Printf("Server starting on http://localhost%s", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error starting server: %w", err)
				}
				return nil
			case <-ctx.Done():
				log.Println("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

func newIngestCmd(configPath *string) *cobra.Command {
	var (
		years      []int
		file       string
		planes     bool
		planesFile string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the plane registry and yearly flight files into the store",
		Example: `  flightstats ingest --planes --year 2007
  flightstats ingest --year 2007 --file data/2007.csv.bz2 --limit 100000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !planes && len(years) == 0 {
				return errors.New("nothing to ingest: pass --planes and/or --year")
			}
			if file != "" && len(years) != 1 {
				return errors.New("--file needs exactly one --year")
			}
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("error initializing database: %w", err)
			}
			defer store.Close()
			svc := services.NewIngestService(store, cfg)

			if planes {
				res, err := svc.LoadPlanes(ctx, planesFile)
				if err != nil {
					return err
				}
				log.Printf("Ingested %s: %d stored, %d skipped", res.Source, res.Stored, res.Skipped)
			}
			for _, year := range years {
				res, err := svc.LoadYear(ctx, year, models.IngestRequest{LocalPath: file, Limit: limit})
				if err != nil {
					return err
				}
				log.Printf("Ingested %s: %d stored, %d skipped", res.Source, res.Stored, res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&years, "year", nil, "flight year(s) to load")
	cmd.Flags().StringVar(&file, "file", "", "local flight file instead of downloading (.csv or .csv.bz2)")
	cmd.Flags().BoolVar(&planes, "planes", false, "load the plane registry first")
	cmd.Flags().StringVar(&planesFile, "planes-file", "", "local plane-data.csv (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "load only the first N valid flights of each year")
	return cmd
}

func newDatasetsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the yearly flight files on the dataset index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			datasets, err := services.NewIngestService(nil, cfg).Discover(cmd.Context())
			if err != nil {
				return err
			}
			for _, ds := range datasets {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", ds.Year, ds.Filename, ds.URL)
			}
			return nil
		},
	}
}

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var (
		start, end string
		dimensions []string
		outDir     string
		files      []string
		planesFile string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Aggregate flight statistics and write XLSX and CSV reports",
		Example: `  flightstats analyze --start 2007-01-01 --end 2008-01-01
  flightstats analyze --dimension hour,season --file data/2006.csv.bz2 --file data/2007.csv.bz2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			def := configuredWindow(cfg.Analysis)
			w := def
			if start != "" || end != "" {
				from, to, err := utils.ParseDateRange(start, end, def.Start, def.End)
				if err != nil {
					return err
				}
				if w, err = analysis.NewWindow(from, to); err != nil {
					return err
				}
			}
			if len(dimensions) == 0 {
				dimensions = cfg.Analysis.Dimensions
			}
			dims, err := services.ParseDimensions(dimensions)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Analysis.OutputDir
			}

			var bundle report.Bundle
			if len(files) > 0 {
				bundle, err = analyzeFiles(ctx, cfg, w, dims, files, planesFile)
			} else {
				bundle, err = analyzeStore(ctx, cfg, w, dims)
			}
			if err != nil {
				return err
			}

			written, err := report.WriteDir(outDir, bundle)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if len(bundle.Failures) > 0 {
				return fmt.Errorf("%d of %d dimensions failed", len(bundle.Failures), len(dims))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default from config)")
	cmd.Flags().StringVar(&end, "end", "", "day after the last day, YYYY-MM-DD (default from config)")
	cmd.Flags().StringSliceVar(&dimensions, "dimension", nil, "dimensions to compute (default: config, else all)")
	cmd.Flags().StringVar(&outDir, "out", "", "report directory (default from config)")
	cmd.Flags().StringSliceVar(&files, "file", nil, "read flight files directly instead of the store, one shard per file")
	cmd.Flags().StringVar(&planesFile, "planes-file", "", "plane-data.csv for --file mode (default from config)")
	return cmd
}

func analyzeStore(ctx context.Context, cfg *config.Config, w analysis.Window, dims []analysis.Dimension) (report.Bundle, error) {
	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return report.Bundle{}, fmt.Errorf("error initializing database: %w", err)
	}
	defer store.Close()

	rep, err := services.NewAnalysisService(store, cfg.Analysis).RunAll(ctx, w, dims)
	if err != nil {
		return report.Bundle{}, err
	}
	bundle := report.Bundle{
		RunID:    rep.RunID.String(),
		Window:   rep.Window,
		Tables:   rep.OrderedTables(),
		Failures: make(map[string]string, len(rep.Errors)),
	}
	if rep.Fleet != nil {
		bundle.Fleet = rep.Fleet.Years
	}
	for dim, err := range rep.Errors {
		bundle.Failures[dim.String()] = err.Error()
	}
	return bundle, nil
}

func analyzeFiles(ctx context.Context, cfg *config.Config, w analysis.Window, dims []analysis.Dimension, files []string, planesFile string) (report.Bundle, error) {
	if planesFile == "" {
		planesFile = cfg.LocalPaths.PlaneData
	}
	var planeYears map[string]int
	rc, err := scraper.OpenDataFile(planesFile)
	if err != nil {
		log.Printf("WARN: no plane registry (%v); age dimensions will be empty", err)
	} else {
		planes, _, err := scraper.ParsePlaneDataCsv(rc)
		rc.Close()
		if err != nil {
			return report.Bundle{}, err
		}
		planeYears = scraper.PlaneYears(planes)
	}

	svc := services.NewAnalysisService(nil, cfg.Analysis)
	bundle := report.Bundle{
		RunID:    uuid.NewString(),
		Window:   w,
		Failures: make(map[string]string),
	}
	for _, dim := range dims {
		table, err := svc.RunFiles(ctx, dim, w, files, planeYears)
		if err != nil {
			if ctx.Err() != nil {
				return report.Bundle{}, ctx.Err()
			}
			log.Printf("ERROR: %s: %v", dim, err)
			bundle.Failures[dim.String()] = err.Error()
			continue
		}
		bundle.Tables = append(bundle.Tables, table)
	}
	return bundle, nil
}
