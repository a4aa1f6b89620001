package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/voltworks/battery-etl/internal/derive"
	"github.com/voltworks/battery-etl/internal/ingest"
	"github.com/voltworks/battery-etl/internal/normalize"
	"github.com/voltworks/battery-etl/internal/visualize"
	"github.com/voltworks/battery-etl/pkg/config"
	"github.com/voltworks/battery-etl/pkg/eventlog"
	"github.com/voltworks/battery-etl/pkg/eventlog/projection"
	"github.com/voltworks/battery-etl/pkg/logger"
)

const usage = `usage: etl <command>

commands:
  ingest     copy the raw NASA export and record a RawIngested event
  consume    project RawIngested events into RawValidated events
  normalize  convert the raw export to the canonical schema
  derive     compute vbat_sag over canonical samples
  plot       render the voltage-vs-time chart
  run        all of the above, in order
`

func main() {
	log := logger.New("etl", "")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	log = logger.New("etl", cfg.App.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], cfg, log); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("pipeline step failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config, log zerolog.Logger) error {
	switch command {
	case "ingest":
		return runIngest(ctx, cfg, log)
	case "consume":
		return runConsume(ctx, cfg, log)
	case "normalize":
		rows, err := normalize.Run(cfg.Data.RawPath, cfg.Data.CanonicalPath)
		if err != nil {
			return err
		}
		log.Info().Int("rows", rows).Str("output", cfg.Data.CanonicalPath).Msg("normalized canonical samples")
		return nil
	case "derive":
		rows, err := derive.Run(cfg.Data.CanonicalPath, cfg.Data.DerivedPath)
		if err != nil {
			return err
		}
		log.Info().Int("rows", rows).Str("output", cfg.Data.DerivedPath).Msg("derived vbat_sag")
		return nil
	case "plot":
		path, err := visualize.Run(cfg.Data.CanonicalPath, cfg.Data.PlotPath)
		if err != nil {
			return err
		}
		log.Info().Str("output", path).Msg("wrote voltage-vs-time chart")
		return nil
	case "run":
		for _, step := range []func() error{
			func() error { return runIngest(ctx, cfg, log) },
			func() error { return runConsume(ctx, cfg, log) },
			func() error { return run(ctx, "normalize", cfg, log) },
			func() error { return run(ctx, "derive", cfg, log) },
			func() error { return run(ctx, "plot", cfg, log) },
		} {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runIngest(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := eventlog.Open(ctx, cfg.EventLog, log)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	_, err = ingest.Run(ctx, store, log, cfg.Data.RawPath, cfg.Data.IngestedPath)
	return err
}

func runConsume(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := eventlog.Open(ctx, cfg.EventLog, log)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	consumer, err := projection.New(store, cfg.State.ProjectionPath, log)
	if err != nil {
		return err
	}
	_, err = consumer.Consume(ctx)
	return err
}

func closeStore(store eventlog.Store, log zerolog.Logger) {
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event store")
		}
	}
}
