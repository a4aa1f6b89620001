package eventlog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStoreAppend(t *testing.T) {
	store, mock := newMockPostgres(t)
	env := New(TypeRawIngested, "1", "test", "key-1", map[string]any{"row_count": float64(5)}, nil)
	data, err := env.Marshal()
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO event_log").
		WithArgs(string(data)).
		WillReturnRows(sqlmock.NewRows([]string{"sequence"}).AddRow(int64(7)))

	seq, err := store.Append(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, int64(7), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReadAll(t *testing.T) {
	store, mock := newMockPostgres(t)
	first := New(TypeRawIngested, "1", "test", "key-1", map[string]any{"row_count": float64(5)}, nil)
	second := New(TypeRawValidated, "1", "test", "key-2", map[string]any{"is_valid": true}, nil)
	firstData, err := first.Marshal()
	require.NoError(t, err)
	secondData, err := second.Marshal()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT sequence, envelope FROM event_log ORDER BY sequence").
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "envelope"}).
			AddRow(int64(1), firstData).
			AddRow(int64(2), secondData))

	events, err := store.ReadAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, int64(1), events[0].Sequence)
	require.Equal(t, first, events[0].Envelope)
	require.Equal(t, second, events[1].Envelope)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReadAllFiltered(t *testing.T) {
	store, mock := newMockPostgres(t)
	env := New(TypeRawIngested, "1", "test", "key-1", nil, nil)
	data, err := env.Marshal()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT sequence, envelope FROM event_log WHERE envelope->>'event_type' = \$1 ORDER BY sequence`).
		WithArgs(TypeRawIngested).
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "envelope"}).AddRow(int64(3), data))

	events, err := store.ReadAll(context.Background(), TypeRawIngested)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, int64(3), events[0].Sequence)
	require.NoError(t, mock.ExpectationsWereMet())
}
