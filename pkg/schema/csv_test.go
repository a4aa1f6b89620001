package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalCSVRoundTrip(t *testing.T) {
	temperature := 24.5
	cycle := 1
	samples := []CanonicalSample{
		{RunID: "nasa_001", Timestamp: 0, Voltage: 4.2, Current: -1.5, Temperature: &temperature, Cycle: &cycle},
		{RunID: "nasa_001", Timestamp: 1, Voltage: 4.1, Current: -1.5},
	}

	path := filepath.Join(t.TempDir(), "canonical", "samples.csv")
	require.NoError(t, WriteCanonicalCSV(path, samples))

	loaded, err := ReadCanonicalCSV(path)
	require.NoError(t, err)
	require.Equal(t, samples, loaded)
}

func TestReadCanonicalCSVRejectsWrongColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte("run_id,voltage\nnasa_001,4.2\n"), 0o644))

	_, err := ReadCanonicalCSV(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "columns must exactly match")
}

func TestReadCanonicalCSVNamesInvalidRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.csv")
	content := "run_id,timestamp,voltage,current,temperature,cycle\n" +
		"nasa_001,0,4.2,-1.5,,\n" +
		"nasa_001,oops,4.1,-1.5,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ReadCanonicalCSV(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "row 3")
}

func TestReadCanonicalCSVMissingFile(t *testing.T) {
	_, err := ReadCanonicalCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
