// Package ingest copies the raw NASA battery export into the canonical
// directory and records the ingestion in the event log.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/voltworks/battery-etl/pkg/eventlog"
)

// RequiredRawColumns must all be present in the raw NASA file header.
var RequiredRawColumns = []string{"run_id", "time_s", "voltage_v", "current_a", "temperature_c", "cycle"}

const producerName = "ingest/nasa"

// CopyRaw reads the raw NASA CSV, verifies the required columns, and
// rewrites exactly those columns to outputPath. It returns the number of
// data rows ingested.
func CopyRaw(rawPath, outputPath string) (int, error) {
	f, err := os.Open(rawPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("raw NASA file not found: %s", rawPath)
		}
		return 0, fmt.Errorf("opening raw NASA file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("reading raw NASA file: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("raw NASA file is missing a header row")
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	var missing []string
	for _, name := range RequiredRawColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("raw NASA file missing required columns: %v", missing)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("creating ingested file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write(RequiredRawColumns); err != nil {
		return 0, fmt.Errorf("writing ingested header: %w", err)
	}
	rows := records[1:]
	for _, record := range rows {
		line := make([]string, len(RequiredRawColumns))
		for i, name := range RequiredRawColumns {
			if pos := index[name]; pos < len(record) {
				line[i] = record[pos]
			}
		}
		if err := writer.Write(line); err != nil {
			return 0, fmt.Errorf("writing ingested row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flushing ingested file: %w", err)
	}
	return len(rows), nil
}

// Run performs the ingest step and appends a RawIngested event. The
// idempotency key is deterministic in the paths and row count so identical
// reruns of this step are recognizable in the log.
func Run(ctx context.Context, store eventlog.Store, log zerolog.Logger, rawPath, outputPath string) (int, error) {
	rowCount, err := CopyRaw(rawPath, outputPath)
	if err != nil {
		return 0, err
	}

	env := eventlog.New(
		eventlog.TypeRawIngested,
		"1",
		producerName,
		fmt.Sprintf("raw-ingested:%s:%s:%d", rawPath, outputPath, rowCount),
		map[string]any{
			"raw_path":    rawPath,
			"output_path": outputPath,
			"row_count":   rowCount,
		},
		map[string]any{"step": "ingest"},
	)
	sequence, err := store.Append(ctx, env)
	if err != nil {
		return 0, fmt.Errorf("recording raw ingested event: %w", err)
	}

	log.Info().Int("rows", rowCount).Int64("sequence", sequence).
		Str("output", outputPath).Msg("ingested raw NASA samples")
	return rowCount, nil
}
