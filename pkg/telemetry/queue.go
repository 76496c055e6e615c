// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

// Event is a queued telemetry event
type Event struct {
	ID        string
	Event     string
	Details   map[string]any
	Timestamp time.Time
}

// Queue is the local durable telemetry queue backed by SQLite
type Queue struct {
	db    *sql.DB
	mu    sync.Mutex
	clock clockwork.Clock
}

// OpenQueue opens (creating if needed) the queue database at path.
// Use ":memory:" for a throwaway queue.
func OpenQueue(path string, clock clockwork.Clock) (*Queue, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry queue: %w", err)
	}
	// One connection keeps ":memory:" databases consistent across calls
	db.SetMaxOpenConns(1)

	q := &Queue{db: db, clock: clock}
	if err := q.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize telemetry queue: %w", err)
	}
	return q, nil
}

func (q *Queue) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		event TEXT NOT NULL,
		details TEXT,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`
	_, err := q.db.Exec(schema)
	return err
}

// Close closes the database
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue stores an event for later delivery
func (q *Queue) Enqueue(ctx context.Context, event string, details map[string]any) error {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	_, err := q.db.ExecContext(ctx,
		"INSERT INTO events (id, event, details, timestamp) VALUES (?, ?, ?, ?)",
		uuid.NewString(), event, string(detailsJSON), q.clock.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Pending returns up to limit queued events, oldest first. A limit of
// zero or less returns everything.
func (q *Queue) Pending(ctx context.Context, limit int) ([]Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	query := "SELECT id, event, details, timestamp FROM events ORDER BY seq"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var details sql.NullString
		var ts int64
		if err := rows.Scan(&e.ID, &e.Event, &details, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// Delete removes events by id
func (q *Queue) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.db.ExecContext(ctx, "DELETE FROM events WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	return nil
}

// Clear removes every queued event
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.db.ExecContext(ctx, "DELETE FROM events"); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}

// Count returns the number of queued events
func (q *Queue) Count(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var n int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Drain delivers queued events to sink in order and deletes each one
// after it is accepted. It stops at the first delivery failure and
// returns how many events were sent.
func (q *Queue) Drain(ctx context.Context, sink Sink, batch int) (int, error) {
	events, err := q.Pending(ctx, batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range events {
		details := e.Details
		if details == nil {
			details = map[string]any{}
		}
		if _, ok := details["timestamp"]; !ok {
			details["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339)
		}
		if err := sink.PostTelemetry(ctx, e.Event, details); err != nil {
			log.Debug("telemetry drain stopped", "event", e.Event, "err", err)
			return sent, fmt.Errorf("deliver %s: %w", e.Event, err)
		}
		if err := q.Delete(ctx, e.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
