package eventlog

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and examples. Unlike New, it
// lets callers append pre-built envelopes, which is how duplicate event IDs
// are injected when exercising consumer idempotency.
type MemoryStore struct {
	mu     sync.RWMutex
	events []StoredEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append assigns the next sequence and retains the envelope.
func (s *MemoryStore) Append(ctx context.Context, env Envelope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sequence := int64(len(s.events)) + 1
	s.events = append(s.events, StoredEvent{Sequence: sequence, Envelope: env})
	return sequence, nil
}

// ReadAll returns stored events in append order, optionally filtered by type.
func (s *MemoryStore) ReadAll(ctx context.Context, eventType string) ([]StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []StoredEvent
	for _, se := range s.events {
		if eventType != "" && se.Envelope.EventType != eventType {
			continue
		}
		events = append(events, se)
	}
	return events, nil
}
