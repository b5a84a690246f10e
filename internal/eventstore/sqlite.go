package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"modernc.org/sqlite"

	"git.home.luguber.info/inful/folio/internal/retry"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	payload BLOB NOT NULL,
	metadata TEXT
);
CREATE INDEX IF NOT EXISTS idx_build_id ON events(build_id);
CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
`

const selectEvents = "SELECT id, build_id, event_type, timestamp, payload, metadata FROM events"

// SQLiteStore implements Store on an SQLite database. Timestamps are kept
// with millisecond precision.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	clock clockwork.Clock
	retry retry.Policy
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock sets the clock used to stamp appended events.
func WithClock(c clockwork.Clock) Option {
	return func(s *SQLiteStore) { s.clock = c }
}

// WithRetry sets the backoff for appends that hit a locked database, which
// happens when two processes share one journal.
func WithRetry(p retry.Policy) Option {
	return func(s *SQLiteStore) { s.retry = p }
}

// NewSQLiteStore opens or creates the journal at dbPath. Use ":memory:" for
// a throwaway store.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err).WithContext("path", dbPath).Build()
	}
	// An in-memory database lives per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, clock: clockwork.NewRealClock(), retry: retry.DefaultPolicy()}
	for _, opt := range opts {
		opt(store)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, wrap(ErrInitializeSchemaFailed, err).WithContext("path", dbPath).Build()
	}
	return store, nil
}

// Append adds a new event to the store.
func (s *SQLiteStore) Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if metadata != nil {
		var err error
		if metadataJSON, err = json.Marshal(metadata); err != nil {
			return wrap(ErrMarshalPayloadFailed, err).WithContext("event_type", eventType).Build()
		}
	}
	if payload == nil {
		payload = []byte("{}")
	}

	ts := s.clock.Now().UnixMilli()
	err := s.retry.Do(ctx, s.clock, isBusy, func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO events (build_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
			buildID, eventType, ts, payload, metadataJSON,
		)
		return err
	})
	if err != nil {
		return wrap(ErrEventAppendFailed, err).
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return nil
}

// GetByBuildID retrieves all events for a specific build.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectEvents+" WHERE build_id = ? ORDER BY id", buildID)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err).WithContext("build_id", buildID).Build()
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetRange retrieves events stored within [start, end].
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectEvents+" WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err).Build()
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e BaseEvent
		var millis int64
		var metadataJSON []byte

		if err := rows.Scan(&e.EventID, &e.EventBuildID, &e.EventType, &millis, &e.EventPayload, &metadataJSON); err != nil {
			return nil, wrap(ErrEventQueryFailed, err).Build()
		}
		e.EventTimestamp = time.UnixMilli(millis)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.EventMetadata); err != nil {
				return nil, wrap(ErrUnmarshalPayloadFailed, err).WithContext("event_id", e.EventID).Build()
			}
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrEventQueryFailed, err).Build()
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SQLite result codes; extended codes keep the primary code in the low byte.
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqliteBusy || code == sqliteLocked
}
