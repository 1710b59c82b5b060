// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateLayout is the format of dates in config files and query strings.
const DateLayout = "2006-01-02"

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres or sqlite3
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	DSN      string `yaml:"dsn"` // overrides the fields above when set
}

type DataSourcesConfig struct {
	IndexURL           string `yaml:"index_url"`      // page listing the yearly flight files
	PlaneDataURL       string `yaml:"plane_data_url"` // plane-data.csv
	LinkSelector       string `yaml:"link_selector"`  // goquery selector for dataset links
	DownloadTimeoutStr string `yaml:"download_timeout"`
	DownloadTimeout    time.Duration // Parsed duration
}

type LocalPathsConfig struct {
	DataDir   string `yaml:"data_dir"`
	PlaneData string `yaml:"plane_data"`
}

type AnalysisConfig struct {
	Start       string   `yaml:"start"`
	End         string   `yaml:"end"`
	Dimensions  []string `yaml:"dimensions"`
	Parallelism int      `yaml:"parallelism"`
	OutputDir   string   `yaml:"output_dir"`
	SinglePass  bool     `yaml:"single_pass"`

	StartDate time.Time // Parsed Start
	EndDate   time.Time // Parsed End
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	DataSources DataSourcesConfig `yaml:"data_sources"`
	LocalPaths  LocalPathsConfig  `yaml:"local_paths"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
}

// LoadConfig reads the YAML file at configPath, or the first config.yaml found in the usual
// places when configPath is empty, then applies .env and FLIGHTSTATS_* environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		potentialPaths := []string{
			"config.yaml",
			"config/config.yaml",
			"../config/config.yaml",
		}
		for _, p := range potentialPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("config.yaml not found in standard locations")
		}
		log.Printf("Loading configuration from: %s", configPath)
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Parse(file)
}

// Parse unmarshals a config document and applies environment overrides and defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"FLIGHTSTATS_PORT":        &cfg.Server.Port,
		"FLIGHTSTATS_DB_DRIVER":   &cfg.Database.Driver,
		"FLIGHTSTATS_DB_HOST":     &cfg.Database.Host,
		"FLIGHTSTATS_DB_USER":     &cfg.Database.User,
		"FLIGHTSTATS_DB_PASSWORD": &cfg.Database.Password,
		"FLIGHTSTATS_DB_NAME":     &cfg.Database.DBName,
		"FLIGHTSTATS_DB_DSN":      &cfg.Database.DSN,
		"FLIGHTSTATS_DATA_DIR":    &cfg.LocalPaths.DataDir,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
	if v := os.Getenv("FLIGHTSTATS_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.Parallelism = n
		} else {
			log.Printf("WARN Config: ignoring FLIGHTSTATS_PARALLELISM=%q: %v", v, err)
		}
	}
}

func (cfg *Config) applyDefaults() error {
	var err error

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}

	// Parse durations
	if cfg.DataSources.DownloadTimeoutStr != "" {
		cfg.DataSources.DownloadTimeout, err = time.ParseDuration(cfg.DataSources.DownloadTimeoutStr)
		if err != nil {
			return fmt.Errorf("failed to parse download_timeout: %w", err)
		}
	} else {
		cfg.DataSources.DownloadTimeout = 10 * time.Minute // Default
	}
	if cfg.DataSources.LinkSelector == "" {
		cfg.DataSources.LinkSelector = "a[href]"
	}

	if cfg.LocalPaths.DataDir == "" {
		cfg.LocalPaths.DataDir = "data"
	}
	if cfg.LocalPaths.PlaneData == "" {
		cfg.LocalPaths.PlaneData = filepath.Join(cfg.LocalPaths.DataDir, "plane-data.csv")
	}

	// Parse dates
	if cfg.Analysis.Start != "" {
		cfg.Analysis.StartDate, err = time.Parse(DateLayout, cfg.Analysis.Start)
		if err != nil {
			return fmt.Errorf("failed to parse analysis start: %w", err)
		}
	}
	if cfg.Analysis.End != "" {
		cfg.Analysis.EndDate, err = time.Parse(DateLayout, cfg.Analysis.End)
		if err != nil {
			return fmt.Errorf("failed to parse analysis end: %w", err)
		}
	}
	if !cfg.Analysis.StartDate.IsZero() && !cfg.Analysis.EndDate.IsZero() && cfg.Analysis.EndDate.Before(cfg.Analysis.StartDate) {
		return fmt.Errorf("analysis end %s is before start %s", cfg.Analysis.End, cfg.Analysis.Start)
	}
	if cfg.Analysis.Parallelism <= 0 {
		cfg.Analysis.Parallelism = runtime.NumCPU()
	}
	if cfg.Analysis.OutputDir == "" {
		cfg.Analysis.OutputDir = "reports"
	}
	return nil
}
