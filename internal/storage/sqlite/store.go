// Package sqlite keeps events and responses in a single SQLite file, for
// running the planner without a Postgres server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/cimillas/hangout-planner/internal/calendar"
	"github.com/cimillas/hangout-planner/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	created_at TEXT NOT NULL,
	CHECK (start_date <= end_date)
);

CREATE TABLE IF NOT EXISTS responses (
	event_id TEXT NOT NULL,
	name TEXT NOT NULL,
	unavailable_json TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (event_id, name),
	FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);`

const timeLayout = time.RFC3339Nano

type Store struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if needed and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) InsertEvent(ctx context.Context, event domain.Event) error {
	const stmt = `INSERT INTO events (id, title, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, stmt,
		event.ID,
		event.Title,
		event.StartDate.String(),
		event.EndDate.String(),
		event.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique) {
			return domain.ErrEventIDConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	const query = `SELECT id, title, start_date, end_date, created_at FROM events WHERE id = ?`

	var event domain.Event
	var start, end, created string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&event.ID, &event.Title, &start, &end, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}

	if event.StartDate, err = calendar.ParseDay(start); err != nil {
		return domain.Event{}, fmt.Errorf("decode event %s start: %w", id, err)
	}
	if event.EndDate, err = calendar.ParseDay(end); err != nil {
		return domain.Event{}, fmt.Errorf("decode event %s end: %w", id, err)
	}
	if event.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return domain.Event{}, fmt.Errorf("decode event %s created_at: %w", id, err)
	}
	return event, nil
}

// ListResponses returns responses in first-submission order; an upsert keeps the row's rowid.
func (s *Store) ListResponses(ctx context.Context, eventID string) ([]domain.Response, error) {
	const query = `
SELECT event_id, name, unavailable_json, updated_at
FROM responses
WHERE event_id = ?
ORDER BY rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := make([]domain.Response, 0)
	for rows.Next() {
		var resp domain.Response
		var raw, updated string
		if err := rows.Scan(&resp.EventID, &resp.Name, &raw, &updated); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &resp.Unavailable); err != nil {
			return nil, fmt.Errorf("decode response %s/%s: %w", resp.EventID, resp.Name, err)
		}
		if resp.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("decode response %s/%s updated_at: %w", resp.EventID, resp.Name, err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return responses, nil
}

func (s *Store) UpsertResponse(ctx context.Context, resp domain.Response) error {
	const stmt = `
INSERT INTO responses (event_id, name, unavailable_json, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (event_id, name) DO UPDATE SET
	unavailable_json = excluded.unavailable_json,
	updated_at = excluded.updated_at`

	days := resp.Unavailable
	if days == nil {
		days = []calendar.Day{}
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode unavailable days: %w", err)
	}

	_, err = s.db.ExecContext(ctx, stmt, resp.EventID, resp.Name, string(raw), resp.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

func isConstraint(err error, codes ...sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	for _, code := range codes {
		if sqliteErr.ExtendedCode == code {
			return true
		}
	}
	return false
}
