package eventlog

import (
	"context"

	"github.com/rs/zerolog"
)

// Config selects and locates the event log backend.
type Config struct {
	// DatabaseURL, when set, selects the Postgres backend.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// Path locates the JSONL log used when Postgres is not configured or
	// not reachable.
	Path string `envconfig:"BATTERY_EVENT_LOG_PATH" default:"canonical/event_log.jsonl"`
}

// Open picks the Postgres backend when a connection string is configured
// and reachable, else falls back to the JSONL store. The fallback is logged
// as a warning rather than surfaced as an error so a missing local database
// never stops the pipeline.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err == nil {
			log.Debug().Msg("using postgres event log")
			return store, nil
		}
		log.Warn().Err(err).Str("path", cfg.Path).
			Msg("postgres event log unavailable, falling back to jsonl")
	}
	return NewJSONLStore(cfg.Path)
}
