package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/voltworks/battery-etl/pkg/eventlog"
)

const rawHeader = "run_id,time_s,voltage_v,current_a,temperature_c,cycle"

func writeRawFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nasa_samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCopyRaw(t *testing.T) {
	// Extra column and shuffled order are tolerated; output carries the
	// required columns only, in canonical order.
	raw := writeRawFixture(t,
		"time_s,run_id,voltage_v,current_a,temperature_c,cycle,extra\n"+
			"0,nasa_001,4.2,-1.5,24.0,1,x\n"+
			"1,nasa_001,4.1,-1.5,24.1,1,y\n")
	out := filepath.Join(t.TempDir(), "canonical", "nasa_ingested.csv")

	rows, err := CopyRaw(raw, out)
	require.NoError(t, err)
	require.Equal(t, 2, rows)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t,
		rawHeader+"\n"+
			"nasa_001,0,4.2,-1.5,24.0,1\n"+
			"nasa_001,1,4.1,-1.5,24.1,1\n",
		string(data))
}

func TestCopyRawMissingColumns(t *testing.T) {
	raw := writeRawFixture(t, "run_id,time_s\nnasa_001,0\n")

	_, err := CopyRaw(raw, filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing required columns")
	require.Contains(t, err.Error(), "voltage_v")
}

func TestCopyRawMissingFile(t *testing.T) {
	_, err := CopyRaw(filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestRunRecordsRawIngestedEvent(t *testing.T) {
	raw := writeRawFixture(t, rawHeader+"\nnasa_001,0,4.2,-1.5,24.0,1\n")
	out := filepath.Join(t.TempDir(), "nasa_ingested.csv")
	store := eventlog.NewMemoryStore()

	rows, err := Run(context.Background(), store, zerolog.Nop(), raw, out)
	require.NoError(t, err)
	require.Equal(t, 1, rows)

	events, err := store.ReadAll(context.Background(), eventlog.TypeRawIngested)
	require.NoError(t, err)
	require.Len(t, events, 1)

	env := events[0].Envelope
	require.Equal(t, raw, env.Payload["raw_path"])
	require.Equal(t, out, env.Payload["output_path"])
	require.Equal(t, 1, env.Payload["row_count"])
	require.Equal(t, fmt.Sprintf("raw-ingested:%s:%s:1", raw, out), env.IdempotencyKey)
}
