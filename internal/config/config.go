package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Forecast ForecastConfig `yaml:"forecast" mapstructure:"forecast"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig tunes the Postgres connection pool.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxQueryCost   int      `yaml:"max_query_cost" mapstructure:"max_query_cost"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EngineConfig configures classification.
type EngineConfig struct {
	HorizonYear   int    `yaml:"horizon_year" mapstructure:"horizon_year"`
	CatalogPath   string `yaml:"catalog_path" mapstructure:"catalog_path"`
	HierarchyPath string `yaml:"hierarchy_path" mapstructure:"hierarchy_path"`
	DefaultLens   string `yaml:"default_lens" mapstructure:"default_lens"`
}

// ForecastConfig describes the published forecast vintage.
type ForecastConfig struct {
	Vintage string `yaml:"vintage" mapstructure:"vintage"`
	Source  string `yaml:"source" mapstructure:"source"`
	Status  string `yaml:"status" mapstructure:"status"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; variables already set win.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, eris.Wrap(err, "config: load .env")
		}
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REGIONIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"https://regioniq.io",
		"https://www.regioniq.io",
		"https://app.regioniq.io",
	})
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.max_query_cost", 250000)
	v.SetDefault("engine.horizon_year", 2035)
	v.SetDefault("engine.catalog_path", "")
	v.SetDefault("engine.hierarchy_path", "data/itl_to_lad.json")
	v.SetDefault("engine.default_lens", "general")
	v.SetDefault("forecast.vintage", "unreleased")
	v.SetDefault("forecast.source", "RegionIQ Forecast Engine v1")
	v.SetDefault("forecast.status", "provisional")

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
