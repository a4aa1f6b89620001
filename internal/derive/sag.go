// Package derive computes the vbat_sag feature over canonical samples.
package derive

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voltworks/battery-etl/pkg/schema"
)

// Run reads the canonical CSV, computes a per-run sag value, and writes the
// canonical columns plus vbat_sag. It returns the number of rows written.
//
// Sag is the fallback deterministic definition for datasets where load
// segments are not reliably inferable: first voltage in the run minus the
// minimum voltage in the run.
func Run(canonicalPath, outputPath string) (int, error) {
	samples, err := schema.ReadCanonicalCSV(canonicalPath)
	if err != nil {
		return 0, err
	}

	runSag := make(map[string]float64)
	firstVoltage := make(map[string]float64)
	for _, sample := range samples {
		if _, seen := firstVoltage[sample.RunID]; !seen {
			firstVoltage[sample.RunID] = sample.Voltage
			runSag[sample.RunID] = 0
		}
		if sag := firstVoltage[sample.RunID] - sample.Voltage; sag > runSag[sample.RunID] {
			runSag[sample.RunID] = sag
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("creating derived file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	header := append(append([]string{}, schema.CanonicalColumns...), "vbat_sag")
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("writing derived header: %w", err)
	}
	for _, sample := range samples {
		record := append(schema.Record(sample), schema.FormatFloat(runSag[sample.RunID]))
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("writing derived row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flushing derived file: %w", err)
	}
	return len(samples), nil
}
