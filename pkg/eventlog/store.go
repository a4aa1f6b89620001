package eventlog

import "context"

// StoredEvent pairs an envelope with the sequence number the store assigned
// at append time. Sequences are store-local, 1-based, and total-ordered;
// they are the sole ordering authority for replay.
type StoredEvent struct {
	Sequence int64
	Envelope Envelope
}

// Store is the append-only persistence contract shared by all backends.
type Store interface {
	// Append durably persists the envelope and returns its assigned
	// sequence number. Sequences are strictly increasing and gap-free
	// within a single store instance.
	Append(ctx context.Context, env Envelope) (int64, error)

	// ReadAll returns every stored event in ascending sequence order.
	// A non-empty eventType filters to envelopes of that type, preserving
	// relative order. ReadAll never mutates the store and skips blank
	// records in the underlying log.
	ReadAll(ctx context.Context, eventType string) ([]StoredEvent, error)
}
