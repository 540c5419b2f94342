package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/sitepulse.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ImportDir string `yaml:"import_dir" envconfig:"IMPORT_DIR" default:"imports"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"out"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// IngestConfig tunes the reconciliation pipeline.
type IngestConfig struct {
	// TrendWindow is the number of trend points in each comparison window.
	TrendWindow int `yaml:"trend_window" envconfig:"TREND_WINDOW" default:"30"`
	// TopEvents caps the top-events ranking length.
	TopEvents int `yaml:"top_events" envconfig:"TOP_EVENTS" default:"10"`
	// ChannelSeed seeds the channel-profile estimator. 0 means a
	// time-derived seed; tests pin it for reproducible output.
	ChannelSeed int64 `yaml:"channel_seed" envconfig:"CHANNEL_SEED" default:"0"`
}

// TelemetryConfig controls OpenTelemetry initialization.
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// Load loads configuration from environment variables and config file.
// File values fill in fields the environment left at zero.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SITEPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configFilePath returns the YAML config location, overridable via env.
func configFilePath() string {
	if p := os.Getenv("SITEPULSE_CONFIG"); p != "" {
		return p
	}
	return "sitepulse.yaml"
}

// loadFromFile overlays the YAML file onto base; keys absent from the file
// keep the base values, so defaulted fields survive a partial file.
func loadFromFile(filePath string, base Config) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
// fileConfig is the env config overlaid with the file, per loadFromFile.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Paths.ImportDir == "" {
		envConfig.Paths.ImportDir = fileConfig.Paths.ImportDir
	}
	if envConfig.Paths.OutputDir == "" {
		envConfig.Paths.OutputDir = fileConfig.Paths.OutputDir
	}
	if envConfig.Ingest.TrendWindow == 0 {
		envConfig.Ingest.TrendWindow = fileConfig.Ingest.TrendWindow
	}
	if envConfig.Ingest.TopEvents == 0 {
		envConfig.Ingest.TopEvents = fileConfig.Ingest.TopEvents
	}
	if envConfig.Ingest.ChannelSeed == 0 {
		envConfig.Ingest.ChannelSeed = fileConfig.Ingest.ChannelSeed
	}

	// Defaulted rate-limit and telemetry fields never sit at zero, so the
	// zero check cannot tell "env unset" from "env set to the default". The
	// file value wins unless the environment explicitly provides the key.
	if !envSet("SITEPULSE_SERVER_RATE_LIMIT_ENABLED") {
		envConfig.Server.RateLimit.Enabled = fileConfig.Server.RateLimit.Enabled
	}
	if !envSet("SITEPULSE_SERVER_RATE_LIMIT_RPS") {
		envConfig.Server.RateLimit.RPS = fileConfig.Server.RateLimit.RPS
	}
	if !envSet("SITEPULSE_SERVER_RATE_LIMIT_BURST") {
		envConfig.Server.RateLimit.Burst = fileConfig.Server.RateLimit.Burst
	}
	if !envSet("SITEPULSE_TELEMETRY_ENABLED") {
		envConfig.Telemetry.Enabled = fileConfig.Telemetry.Enabled
	}
	if !envSet("SITEPULSE_TELEMETRY_TRACE_EXPORTER") {
		envConfig.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}
	if !envSet("SITEPULSE_TELEMETRY_METRIC_EXPORTER") {
		envConfig.Telemetry.MetricExporter = fileConfig.Telemetry.MetricExporter
	}
	if !envSet("SITEPULSE_TELEMETRY_SAMPLE_RATIO") {
		envConfig.Telemetry.SampleRatio = fileConfig.Telemetry.SampleRatio
	}

	return envConfig
}

// envSet reports whether the environment explicitly provides the key.
func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// validate checks configuration invariants
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Ingest.TrendWindow < 1 {
		return fmt.Errorf("trend window must be at least 1, got %d", c.Ingest.TrendWindow)
	}
	if c.Ingest.TopEvents < 1 {
		return fmt.Errorf("top events cap must be at least 1, got %d", c.Ingest.TopEvents)
	}
	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}
	return nil
}
