package eventlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestJSONL(t *testing.T) *JSONLStore {
	t.Helper()
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "canonical", "event_log.jsonl"))
	require.NoError(t, err)
	return store
}

func TestJSONLStoreOrdering(t *testing.T) {
	store := newTestJSONL(t)
	ctx := context.Background()

	for i, eventType := range []string{TypeRawIngested, "TypeX", TypeRawIngested} {
		seq, err := store.Append(ctx, New(eventType, "1", "test", "key", nil, nil))
		require.NoError(t, err)
		require.Equal(t, int64(i+1), seq)
	}

	events, err := store.ReadAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, se := range events {
		require.Equal(t, int64(i+1), se.Sequence)
	}

	filtered, err := store.ReadAll(ctx, "TypeX")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, int64(2), filtered[0].Sequence)
	require.Equal(t, "TypeX", filtered[0].Envelope.EventType)
}

func TestJSONLStoreReadMissingFile(t *testing.T) {
	store := newTestJSONL(t)

	events, err := store.ReadAll(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestJSONLStoreSkipsBlankLines(t *testing.T) {
	store := newTestJSONL(t)
	ctx := context.Background()

	_, err := store.Append(ctx, New(TypeRawIngested, "1", "test", "key", nil, nil))
	require.NoError(t, err)

	// A blank line occupies a sequence slot but is skipped on read.
	f, err := os.OpenFile(store.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	seq, err := store.Append(ctx, New(TypeRawIngested, "1", "test", "key", nil, nil))
	require.NoError(t, err)
	require.Equal(t, int64(3), seq)

	events, err := store.ReadAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, int64(1), events[0].Sequence)
	require.Equal(t, int64(3), events[1].Sequence)
}

func TestJSONLStoreSequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event_log.jsonl")
	ctx := context.Background()

	first, err := NewJSONLStore(path)
	require.NoError(t, err)
	_, err = first.Append(ctx, New(TypeRawIngested, "1", "test", "key", nil, nil))
	require.NoError(t, err)

	second, err := NewJSONLStore(path)
	require.NoError(t, err)
	seq, err := second.Append(ctx, New(TypeRawIngested, "1", "test", "key", nil, nil))
	require.NoError(t, err)
	require.Equal(t, int64(2), seq)
}

func TestJSONLStoreCorruptLine(t *testing.T) {
	store := newTestJSONL(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json}\n"), 0o644))

	_, err := store.ReadAll(context.Background(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}
