// Package projection contains the idempotent consumer that derives
// RawValidated events from RawIngested events exactly once per source
// event, even under duplicate delivery, crashes mid-run, and full reruns.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/voltworks/battery-etl/pkg/eventlog"
)

const (
	projectionName = "RawIngestedToValidated"
	producerName   = "projection/raw-validated"
)

// State is the persisted checkpoint of one projection, replaced whole on
// every successful Consume.
type State struct {
	Projection string `json:"projection"`
	// LastSequence is the highest store sequence observed; it never
	// decreases across runs.
	LastSequence int64 `json:"last_sequence"`
	// ProcessedEventIDs holds every source event ID already turned into a
	// derived event, sorted. It grows monotonically.
	ProcessedEventIDs []string `json:"processed_event_ids"`
}

// Consumer scans the store for RawIngested events, deduplicates by event
// ID, appends derived RawValidated events, and checkpoints its own state.
// One consumer identity owns the state file exclusively; running two
// processes with the same state path is an operating precondition
// violation, not a detected error.
type Consumer struct {
	store     eventlog.Store
	statePath string
	log       zerolog.Logger
}

// New creates a consumer persisting state at statePath, creating parent
// directories as needed.
func New(store eventlog.Store, statePath string, log zerolog.Logger) (*Consumer, error) {
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating projection state directory: %w", err)
	}
	return &Consumer{store: store, statePath: statePath, log: log}, nil
}

// Consume rescans all RawIngested events, derives a RawValidated event for
// each one not yet processed, and persists the updated state. It returns
// the number of derived events produced. On error nothing is persisted, so
// the next run resumes from the last durable checkpoint; events left
// mid-scan are redelivered and absorbed by the dedup set.
func (c *Consumer) Consume(ctx context.Context) (int, error) {
	state, err := c.loadState()
	if err != nil {
		return 0, err
	}
	processed := make(map[string]struct{}, len(state.ProcessedEventIDs))
	for _, id := range state.ProcessedEventIDs {
		processed[id] = struct{}{}
	}

	events, err := c.store.ReadAll(ctx, eventlog.TypeRawIngested)
	if err != nil {
		return 0, err
	}

	produced := 0
	for _, stored := range events {
		env := stored.Envelope
		// Advance the checkpoint even for already-processed IDs so it
		// keeps moving when nothing new is derived.
		state.LastSequence = stored.Sequence

		if _, ok := processed[env.EventID]; ok {
			continue
		}

		rowCount, err := payloadInt(env.Payload, "row_count")
		if err != nil {
			return 0, fmt.Errorf("raw ingested event %s: %w", env.EventID, err)
		}
		if rowCount < 0 {
			return 0, fmt.Errorf("raw ingested event %s has negative row_count %d", env.EventID, rowCount)
		}

		validated := eventlog.New(
			eventlog.TypeRawValidated,
			"1",
			producerName,
			"raw-validated:"+env.EventID,
			map[string]any{
				"source_event_id": env.EventID,
				"raw_path":        env.Payload["raw_path"],
				"output_path":     env.Payload["output_path"],
				"row_count":       rowCount,
				"is_valid":        true,
			},
			map[string]any{"projection": projectionName},
		)
		if _, err := c.store.Append(ctx, validated); err != nil {
			return 0, fmt.Errorf("appending derived event for %s: %w", env.EventID, err)
		}

		processed[env.EventID] = struct{}{}
		produced++
	}

	state.ProcessedEventIDs = sortedIDs(processed)
	if err := c.saveState(state); err != nil {
		return 0, err
	}

	c.log.Info().Int("produced", produced).Int64("last_sequence", state.LastSequence).
		Msg("projection consumed raw ingested events")
	return produced, nil
}

func (c *Consumer) loadState() (State, error) {
	data, err := os.ReadFile(c.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return State{Projection: projectionName, ProcessedEventIDs: []string{}}, nil
		}
		return State{}, fmt.Errorf("reading projection state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decoding projection state: %w", err)
	}
	if state.ProcessedEventIDs == nil {
		state.ProcessedEventIDs = []string{}
	}
	return state, nil
}

// saveState replaces the state file in one atomic step (write to a temp
// file, then rename) so a crash mid-write cannot leave partial state.
func (c *Consumer) saveState(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding projection state: %w", err)
	}
	data = append(data, '\n')

	tmp := c.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing projection state: %w", err)
	}
	if err := os.Rename(tmp, c.statePath); err != nil {
		return fmt.Errorf("replacing projection state: %w", err)
	}
	return nil
}

func payloadInt(payload map[string]any, key string) (int64, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("payload field %q is not an integer: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("payload field %q has unexpected type %T", key, v)
	}
}

func sortedIDs(processed map[string]struct{}) []string {
	ids := make([]string, 0, len(processed))
	for id := range processed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
