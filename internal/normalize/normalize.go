// Package normalize converts the raw NASA export into the canonical sample
// schema, validating every row on the way.
package normalize

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/voltworks/battery-etl/internal/ingest"
	"github.com/voltworks/battery-etl/pkg/schema"
)

// Run reads the raw NASA CSV, validates each row against the canonical
// schema, and writes the canonical CSV. It returns the number of rows
// written. Any invalid row fails the whole run with its row number.
func Run(rawPath, outputPath string) (int, error) {
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

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}
	var missing []string
	for _, name := range ingest.RequiredRawColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("raw NASA file missing required columns: %v", missing)
	}

	samples := make([]schema.CanonicalSample, 0, len(records)-1)
	for i, record := range records[1:] {
		rowNumber := i + 2 // 1-based, header is row 1
		field := func(name string) string {
			pos := index[name]
			if pos < len(record) {
				return record[pos]
			}
			return ""
		}

		sample, err := parseSample(field)
		if err != nil {
			return 0, fmt.Errorf("failed to normalize row %d: %w", rowNumber, err)
		}
		if err := sample.Validate(); err != nil {
			return 0, fmt.Errorf("failed to normalize row %d: %w", rowNumber, err)
		}
		samples = append(samples, sample)
	}

	if err := schema.WriteCanonicalCSV(outputPath, samples); err != nil {
		return 0, err
	}
	return len(samples), nil
}

func parseSample(field func(string) string) (schema.CanonicalSample, error) {
	var sample schema.CanonicalSample
	sample.RunID = field("run_id")

	timestamp, err := strconv.ParseFloat(field("time_s"), 64)
	if err != nil {
		return sample, fmt.Errorf("invalid time_s %q", field("time_s"))
	}
	voltage, err := strconv.ParseFloat(field("voltage_v"), 64)
	if err != nil {
		return sample, fmt.Errorf("invalid voltage_v %q", field("voltage_v"))
	}
	current, err := strconv.ParseFloat(field("current_a"), 64)
	if err != nil {
		return sample, fmt.Errorf("invalid current_a %q", field("current_a"))
	}
	sample.Timestamp = timestamp
	sample.Voltage = voltage
	sample.Current = current

	if raw := strings.TrimSpace(field("temperature_c")); raw != "" {
		temperature, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sample, fmt.Errorf("invalid temperature_c %q", raw)
		}
		sample.Temperature = &temperature
	}
	if raw := strings.TrimSpace(field("cycle")); raw != "" {
		cycle, err := strconv.Atoi(raw)
		if err != nil {
			return sample, fmt.Errorf("invalid cycle %q", raw)
		}
		sample.Cycle = &cycle
	}
	return sample, nil
}
