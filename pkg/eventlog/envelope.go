// Package eventlog implements the append-only ingestion ledger: a versioned
// event envelope, an ordered-append / filtered-read store contract, and
// interchangeable JSONL and Postgres backends behind a single factory.
package eventlog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the ingestion pipeline.
const (
	TypeRawIngested  = "RawIngested"
	TypeRawValidated = "RawValidated"
)

// Envelope is the versioned event contract shared by producers, the log,
// and consumers. Envelopes are immutable once created; no field is mutated
// after construction.
type Envelope struct {
	// EventID is a fresh UUID assigned at creation, never reused.
	EventID string `json:"event_id"`
	// EventType identifies the payload schema, e.g. "RawIngested".
	EventType string `json:"event_type"`
	// EventVersion is the schema version of the payload shape.
	EventVersion string `json:"event_version"`
	// OccurredAt is the UTC creation time, ISO-8601 with a Z suffix.
	// Kept as a string so serialization round-trips byte-exactly.
	OccurredAt string `json:"occurred_at"`
	// Producer identifies the logical component that created the event.
	Producer string `json:"producer"`
	// IdempotencyKey is caller-supplied and deterministic for retries of
	// the same logical operation. The store does not enforce uniqueness.
	IdempotencyKey string `json:"idempotency_key"`
	// Payload carries the event data, schema given by EventType+EventVersion.
	Payload map[string]any `json:"payload"`
	// Metadata carries free-form annotations never interpreted by the store.
	Metadata map[string]any `json:"metadata"`
}

// New creates an Envelope with a fresh event ID and the current UTC time.
// Payload and metadata are deep-copied so later mutations by the caller
// cannot corrupt the stored value. Payload shape is not validated here.
func New(eventType, eventVersion, producer, idempotencyKey string, payload, metadata map[string]any) Envelope {
	return Envelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		EventVersion:   eventVersion,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339Nano),
		Producer:       producer,
		IdempotencyKey: idempotencyKey,
		Payload:        copyMap(payload),
		Metadata:       copyMap(metadata),
	}
}

// Marshal encodes the envelope as one compact JSON object.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope decodes an envelope previously produced by Marshal.
// Absent payload/metadata come back as empty maps, not nil.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return e, nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
