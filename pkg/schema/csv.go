package schema

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadCanonicalCSV loads a canonical CSV whose columns must exactly match
// CanonicalColumns. Every row is validated; the first invalid row fails the
// whole read with its row number.
func ReadCanonicalCSV(path string) ([]CanonicalSample, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("canonical file not found: %s", path)
		}
		return nil, fmt.Errorf("opening canonical file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading canonical file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("canonical file is missing a header row")
	}
	if !equalColumns(records[0], CanonicalColumns) {
		return nil, fmt.Errorf("canonical file columns must exactly match %v, got %v", CanonicalColumns, records[0])
	}

	samples := make([]CanonicalSample, 0, len(records)-1)
	for i, record := range records[1:] {
		rowNumber := i + 2
		sample, err := parseCanonicalRecord(record)
		if err != nil {
			return nil, fmt.Errorf("invalid canonical row %d: %w", rowNumber, err)
		}
		if err := sample.Validate(); err != nil {
			return nil, fmt.Errorf("invalid canonical row %d: %w", rowNumber, err)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func parseCanonicalRecord(record []string) (CanonicalSample, error) {
	var sample CanonicalSample
	if len(record) != len(CanonicalColumns) {
		return sample, fmt.Errorf("expected %d fields, got %d", len(CanonicalColumns), len(record))
	}

	sample.RunID = record[0]
	timestamp, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return sample, fmt.Errorf("invalid timestamp %q", record[1])
	}
	voltage, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return sample, fmt.Errorf("invalid voltage %q", record[2])
	}
	current, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return sample, fmt.Errorf("invalid current %q", record[3])
	}
	sample.Timestamp = timestamp
	sample.Voltage = voltage
	sample.Current = current

	if raw := strings.TrimSpace(record[4]); raw != "" {
		temperature, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sample, fmt.Errorf("invalid temperature %q", raw)
		}
		sample.Temperature = &temperature
	}
	if raw := strings.TrimSpace(record[5]); raw != "" {
		cycle, err := strconv.Atoi(raw)
		if err != nil {
			return sample, fmt.Errorf("invalid cycle %q", raw)
		}
		sample.Cycle = &cycle
	}
	return sample, nil
}

// WriteCanonicalCSV writes samples to path with the canonical header,
// creating parent directories as needed.
func WriteCanonicalCSV(path string, samples []CanonicalSample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating canonical directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating canonical file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write(CanonicalColumns); err != nil {
		return fmt.Errorf("writing canonical header: %w", err)
	}
	for _, sample := range samples {
		if err := writer.Write(Record(sample)); err != nil {
			return fmt.Errorf("writing canonical row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing canonical file: %w", err)
	}
	return nil
}

// Record renders the sample as a canonical-ordered CSV record.
func Record(sample CanonicalSample) []string {
	record := []string{
		sample.RunID,
		FormatFloat(sample.Timestamp),
		FormatFloat(sample.Voltage),
		FormatFloat(sample.Current),
		"",
		"",
	}
	if sample.Temperature != nil {
		record[4] = FormatFloat(*sample.Temperature)
	}
	if sample.Cycle != nil {
		record[5] = strconv.Itoa(*sample.Cycle)
	}
	return record
}

// FormatFloat renders a float the way canonical CSV fields expect.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
