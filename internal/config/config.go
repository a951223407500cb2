package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Dashboard filter defaults applied when neither file nor env overrides them.
const (
	DefaultYear1 = "2010"
	DefaultYear2 = "2020"
	DefaultCity  = "Somerville"
)

// DefaultValidYears lists the census years present in the NHGIS extract.
var DefaultValidYears = []string{"1990", "2000", "2010", "2020"}

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Map       MapConfig       `yaml:"map" mapstructure:"map"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the census API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// DataConfig locates the NHGIS table and the TIGER block group shapefiles.
type DataConfig struct {
	Driver           string   `yaml:"driver" mapstructure:"driver"` // csv, postgres, sqlite
	CSVFile          string   `yaml:"csv_file" mapstructure:"csv_file"`
	DatabaseURL      string   `yaml:"database_url" mapstructure:"database_url"`
	Table            string   `yaml:"table" mapstructure:"table"`
	ShapefileDir     string   `yaml:"shapefile_dir" mapstructure:"shapefile_dir"`
	ShapefilePattern string   `yaml:"shapefile_pattern" mapstructure:"shapefile_pattern"`
	ValidYears       []string `yaml:"valid_years" mapstructure:"valid_years"`
	LoadConcurrency  int      `yaml:"load_concurrency" mapstructure:"load_concurrency"`
}

// CacheConfig configures the API response cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// APIConfig configures the dashboard's client of the census API.
type APIConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DashboardConfig holds the initial filter selection.
type DashboardConfig struct {
	Year1 string `yaml:"year1" mapstructure:"year1"`
	Year2 string `yaml:"year2" mapstructure:"year2"`
	City  string `yaml:"city" mapstructure:"city"`
}

// MapConfig holds the map center used when a town has no boundary vertices.
type MapConfig struct {
	CenterLon float64 `yaml:"center_lon" mapstructure:"center_lon"`
	CenterLat float64 `yaml:"center_lat" mapstructure:"center_lat"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MISSING_MIDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("data.driver", "csv")
	v.SetDefault("data.csv_file", "data/nhgis.csv")
	v.SetDefault("data.table", "nhgis")
	v.SetDefault("data.shapefile_dir", "data/geojsons")
	v.SetDefault("data.shapefile_pattern", "tl_2020_{fips}_bg20.shp")
	v.SetDefault("data.valid_years", DefaultValidYears)
	v.SetDefault("data.load_concurrency", 4)
	v.SetDefault("cache.max_entries", 256)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("api.timeout_secs", 60)
	v.SetDefault("dashboard.year1", DefaultYear1)
	v.SetDefault("dashboard.year2", DefaultYear2)
	v.SetDefault("dashboard.city", DefaultCity)
	v.SetDefault("map.center_lon", -71.1)
	v.SetDefault("map.center_lat", 42.35)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are "serve"
// (census API server) and "dashboard" (API client and renderers).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		switch c.Data.Driver {
		case "csv":
			if c.Data.CSVFile == "" {
				errs = append(errs, "data.csv_file is required for the csv driver")
			}
		case "postgres", "sqlite":
			if c.Data.DatabaseURL == "" {
				errs = append(errs, "data.database_url is required for the "+c.Data.Driver+" driver")
			}
			if c.Data.Table == "" {
				errs = append(errs, "data.table is required")
			}
		default:
			errs = append(errs, "data.driver must be one of csv, postgres, sqlite")
		}
		if len(c.Data.ValidYears) == 0 {
			errs = append(errs, "data.valid_years must not be empty")
		}
		if c.Data.LoadConcurrency < 1 {
			errs = append(errs, "data.load_concurrency must be >= 1")
		}
		if c.Cache.MaxEntries < 0 {
			errs = append(errs, "cache.max_entries must be >= 0")
		}
	case "dashboard":
		if c.API.BaseURL == "" {
			errs = append(errs, "api.base_url is required")
		}
		if c.Dashboard.Year1 == "" || c.Dashboard.Year2 == "" || c.Dashboard.City == "" {
			errs = append(errs, "dashboard.year1, dashboard.year2 and dashboard.city are required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
