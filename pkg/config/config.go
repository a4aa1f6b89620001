// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/voltworks/battery-etl/pkg/eventlog"
)

// Config is the full environment-driven configuration of the pipeline.
type Config struct {
	App      AppConfig
	Data     DataConfig
	EventLog eventlog.Config
	State    StateConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"BATTERY_LOG_LEVEL" default:"info"`
}

// DataConfig locates the CSV artifacts of each pipeline stage. Defaults
// mirror the canonical on-disk layout.
type DataConfig struct {
	RawPath       string `envconfig:"BATTERY_RAW_PATH" default:"data/nasa/nasa_samples.csv"`
	IngestedPath  string `envconfig:"BATTERY_INGESTED_PATH" default:"canonical/nasa_ingested.csv"`
	CanonicalPath string `envconfig:"BATTERY_CANONICAL_PATH" default:"canonical/samples.csv"`
	DerivedPath   string `envconfig:"BATTERY_DERIVED_PATH" default:"canonical/samples_with_vbat_sag.csv"`
	PlotPath      string `envconfig:"BATTERY_PLOT_PATH" default:"outputs/voltage_vs_time.svg"`
}

type StateConfig struct {
	ProjectionPath string `envconfig:"BATTERY_PROJECTION_STATE_PATH" default:"canonical/projections/raw_validated_state.json"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
