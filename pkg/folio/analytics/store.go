// Package analytics persists assistant activity events in SQLite.
// Events feed the admin inbox and the daily digest; the conversational core
// itself stays stateless — nothing here is read back into a chat request.
package analytics

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// EventKind classifies a recorded event.
type EventKind string

const (
	EventChat          EventKind = "chat"
	EventContactSent   EventKind = "contact_sent"
	EventMeetingSent   EventKind = "meeting_sent"
	EventExtractFailed EventKind = "extract_failed"
)

// Event is a single recorded activity entry.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Config holds analytics storage configuration.
type Config struct {
	// Enabled turns event recording on/off.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path.
	Path string `yaml:"path"`
}

// Store is the SQLite-backed event store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and migrates) the event database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening analytics db: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			summary    TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating analytics db: %w", err)
	}

	return &Store{db: db, logger: logger.With("component", "analytics")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists an event. Recording failures are logged, not returned:
// analytics must never fail a chat request.
func (s *Store) Record(kind EventKind, summary, detail string) {
	_, err := s.db.Exec(`
		INSERT INTO events (id, kind, summary, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(),
		string(kind),
		summary,
		detail,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Error("failed to record event", "kind", kind, "error", err)
	}
}

// ListRecent returns the newest events, capped at limit.
func (s *Store) ListRecent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, kind, summary, detail, created_at
		FROM events
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			kind      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Summary, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Kind = EventKind(kind)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, e)
	}

	return events, rows.Err()
}

// Summary holds per-kind counts since a point in time.
type Summary struct {
	Chats    int
	Contacts int
	Meetings int
}

// SummarizeSince counts events by kind since the given time.
func (s *Store) SummarizeSince(since time.Time) (Summary, error) {
	rows, err := s.db.Query(`
		SELECT kind, COUNT(*)
		FROM events
		WHERE created_at >= ?
		GROUP BY kind`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing events: %w", err)
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return Summary{}, fmt.Errorf("scanning summary: %w", err)
		}
		switch EventKind(kind) {
		case EventChat:
			sum.Chats = count
		case EventContactSent:
			sum.Contacts = count
		case EventMeetingSent:
			sum.Meetings = count
		}
	}

	return sum, rows.Err()
}
