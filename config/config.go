// Package config loads the runtime settings for a training run's logging
// layer from the environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds the settings consumed by the training logger, registry and
// visualization export.
type Config struct {
	// LogLevel is a logrus level name: debug, info, warning, error.
	LogLevel string

	// ModelDir is where run artifacts (checkpoints, archives) are written.
	ModelDir string

	// MetricWindow is the window capacity for smoothed metric trackers.
	MetricWindow int

	// LogInterval is the number of training steps between full log lines.
	LogInterval int

	// SummaryInterval is the number of steps between visualization exports.
	SummaryInterval int

	// PlotServiceURL is the base URL of the sidecar plotting service.
	PlotServiceURL string

	// PlotEnabled turns the sidecar export path on.
	PlotEnabled bool

	// ArchivePath is the metric-history archive file, relative to ModelDir
	// unless absolute. Empty disables archiving.
	ArchivePath string
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		ModelDir:        ".",
		MetricWindow:    100,
		LogInterval:     10,
		SummaryInterval: 100,
		PlotServiceURL:  "http://localhost:8080",
		PlotEnabled:     false,
		ArchivePath:     "",
	}
}

// Load reads configuration from the process environment. If path is
// non-empty the file is loaded first via godotenv; values already present in
// the environment win, matching godotenv semantics.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}

	cfg := Default()
	if v := os.Getenv("TRAINKIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TRAINKIT_MODEL_DIR"); v != "" {
		cfg.ModelDir = v
	}
	if v := os.Getenv("TRAINKIT_METRIC_WINDOW"); v != "" {
		cfg.MetricWindow = cast.ToInt(v)
	}
	if v := os.Getenv("TRAINKIT_LOG_INTERVAL"); v != "" {
		cfg.LogInterval = cast.ToInt(v)
	}
	if v := os.Getenv("TRAINKIT_SUMMARY_INTERVAL"); v != "" {
		cfg.SummaryInterval = cast.ToInt(v)
	}
	if v := os.Getenv("TRAINKIT_PLOT_URL"); v != "" {
		cfg.PlotServiceURL = v
	}
	if v := os.Getenv("TRAINKIT_PLOT_ENABLED"); v != "" {
		cfg.PlotEnabled = cast.ToBool(v)
	}
	if v := os.Getenv("TRAINKIT_ARCHIVE_PATH"); v != "" {
		cfg.ArchivePath = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the logging layer cannot run with.
func (c *Config) Validate() error {
	if c.MetricWindow <= 0 {
		return fmt.Errorf("metric window must be positive, got %d", c.MetricWindow)
	}
	if c.LogInterval <= 0 {
		return fmt.Errorf("log interval must be positive, got %d", c.LogInterval)
	}
	if c.SummaryInterval <= 0 {
		return fmt.Errorf("summary interval must be positive, got %d", c.SummaryInterval)
	}
	if c.PlotEnabled && c.PlotServiceURL == "" {
		return fmt.Errorf("plot service URL is required when plotting is enabled")
	}
	return nil
}
