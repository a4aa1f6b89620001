package eventlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// JSONLStore is a file-backed event log: one compact JSON object per line,
// UTF-8, newline-terminated. The file is the sole durable state and the
// sequence number is the 1-based line position, so the store is safe only
// under a single writer process. Multi-writer deployments must use the
// Postgres backend.
type JSONLStore struct {
	path string
}

// NewJSONLStore creates a file-backed store at path, creating parent
// directories on first use.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	return &JSONLStore{path: path}, nil
}

// Path returns the location of the underlying log file.
func (s *JSONLStore) Path() string {
	return s.path
}

// Append writes the envelope as one line and returns its line position.
func (s *JSONLStore) Append(ctx context.Context, env Envelope) (int64, error) {
	lines, err := s.countLines()
	if err != nil {
		return 0, err
	}

	data, err := env.Marshal()
	if err != nil {
		return 0, fmt.Errorf("encoding envelope %s: %w", env.EventID, err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return 0, fmt.Errorf("appending envelope %s: %w", env.EventID, err)
	}
	return lines + 1, nil
}

// ReadAll parses one envelope per non-blank line. Blank lines are tolerated
// but still occupy a sequence slot, keeping line position and sequence in
// agreement with Append.
func (s *JSONLStore) ReadAll(ctx context.Context, eventType string) ([]StoredEvent, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	var events []StoredEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var sequence int64
	for scanner.Scan() {
		sequence++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		env, err := UnmarshalEnvelope([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("decoding event log line %d: %w", sequence, err)
		}
		if eventType != "" && env.EventType != eventType {
			continue
		}
		events = append(events, StoredEvent{Sequence: sequence, Envelope: env})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	return events, nil
}

func (s *JSONLStore) countLines() (int64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	var count int64
	buf := make([]byte, 32*1024)
	for {
		n, err := f.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				count++
			}
		}
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("counting event log lines: %w", err)
		}
	}
}
