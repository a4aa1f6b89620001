package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "info", cfg.App.LogLevel)
	require.Equal(t, "data/nasa/nasa_samples.csv", cfg.Data.RawPath)
	require.Equal(t, "canonical/event_log.jsonl", cfg.EventLog.Path)
	require.Equal(t, "canonical/projections/raw_validated_state.json", cfg.State.ProjectionPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://etl@localhost/etl")
	t.Setenv("BATTERY_LOG_LEVEL", "debug")
	t.Setenv("BATTERY_EVENT_LOG_PATH", "/tmp/events.jsonl")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "postgres://etl@localhost/etl", cfg.EventLog.DatabaseURL)
	require.Equal(t, "debug", cfg.App.LogLevel)
	require.Equal(t, "/tmp/events.jsonl", cfg.EventLog.Path)
}
