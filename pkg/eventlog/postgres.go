package eventlog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore is an append-only event log backed by a single Postgres
// table. Sequence generation is one atomic database operation, so unlike
// the JSONL store it is safe under concurrent writers. Each call runs in
// its own implicit transaction; nothing spans multiple appends.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to the database, verifies connectivity, and creates
// the event_log table if it does not exist (idempotent DDL).
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing connection without pinging or running
// DDL. Intended for tests.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ensureTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS event_log (
		sequence BIGSERIAL PRIMARY KEY,
		envelope JSONB NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating event_log table: %w", err)
	}
	return nil
}

// Append inserts one row and returns the generated sequence.
func (s *PostgresStore) Append(ctx context.Context, env Envelope) (int64, error) {
	data, err := env.Marshal()
	if err != nil {
		return 0, fmt.Errorf("encoding envelope %s: %w", env.EventID, err)
	}

	var sequence int64
	err = s.db.QueryRowContext(ctx,
		"INSERT INTO event_log (envelope) VALUES ($1::jsonb) RETURNING sequence",
		string(data),
	).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("inserting envelope %s: %w", env.EventID, err)
	}
	return sequence, nil
}

// ReadAll selects rows ordered by sequence, optionally filtered on the
// envelope's event_type field.
func (s *PostgresStore) ReadAll(ctx context.Context, eventType string) ([]StoredEvent, error) {
	query := "SELECT sequence, envelope FROM event_log"
	var args []any
	if eventType != "" {
		query += " WHERE envelope->>'event_type' = $1"
		args = append(args, eventType)
	}
	query += " ORDER BY sequence"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying event_log: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var sequence int64
		var data []byte
		if err := rows.Scan(&sequence, &data); err != nil {
			return nil, fmt.Errorf("scanning event_log row: %w", err)
		}
		env, err := UnmarshalEnvelope(data)
		if err != nil {
			return nil, fmt.Errorf("decoding envelope at sequence %d: %w", sequence, err)
		}
		events = append(events, StoredEvent{Sequence: sequence, Envelope: env})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event_log rows: %w", err)
	}
	return events, nil
}
