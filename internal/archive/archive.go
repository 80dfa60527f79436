// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists the events of terminal sessions to SQLite for
// downstream export. It is an append-only audit sink: sessions are never
// reloaded from it, and a disabled or failing archive never affects a
// running search.
package archive

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/incident-scout/pkg/types"
)

// Store manages the archive SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at path and ensures the
// schema exists.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			phrase TEXT,
			status TEXT NOT NULL,
			event_count INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			archived_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			event_type TEXT NOT NULL,
			title TEXT,
			summary TEXT,
			perpetrator TEXT,
			perpetrator_type TEXT,
			location TEXT,
			event_date TEXT,
			source_name TEXT,
			source_url TEXT,
			relevance_score REAL,
			extraction_confidence REAL,
			collected_at TEXT,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveSession stores a terminal session's full event list in one
// transaction. Saving the same session twice replaces its events.
func (s *Store) SaveSession(snap types.SessionSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events WHERE session_id = ?`, snap.ID); err != nil {
		return fmt.Errorf("clearing previous events: %w", err)
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO sessions
		(id, phrase, status, event_count, created_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Query.Phrase, string(snap.Status), len(snap.Events),
		snap.CreatedAt.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO events
		(session_id, event_type, title, summary, perpetrator, perpetrator_type,
		 location, event_date, source_name, source_url, relevance_score,
		 extraction_confidence, collected_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	for _, se := range snap.Events {
		ev := se.Event
		payload, err := json.Marshal(se)
		if err != nil {
			return fmt.Errorf("marshaling event payload: %w", err)
		}

		eventDate := ""
		if !ev.EventDate.IsZero() {
			eventDate = ev.EventDate.UTC().Format("2006-01-02")
		}

		_, err = stmt.Exec(snap.ID, string(ev.EventType), ev.Title, ev.Summary,
			ev.Perpetrator, string(ev.PerpetratorType), ev.Location.FullText,
			eventDate, ev.SourceName, ev.SourceURL, se.RelevanceScore,
			ev.ExtractionConfidence, ev.CollectedAt.UTC().Format(time.RFC3339),
			string(payload))
		if err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}
	}

	return tx.Commit()
}

// ArchivedEvent is one exported row.
type ArchivedEvent struct {
	SessionID      string
	RelevanceScore float64
	Event          types.Event
}

// ListEvents returns archived events, newest collection first. A non-empty
// sessionID restricts to one session; limit <= 0 means no limit.
func (s *Store) ListEvents(sessionID string, limit int) ([]ArchivedEvent, error) {
	query := `SELECT session_id, payload FROM events`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY collected_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []ArchivedEvent
	for rows.Next() {
		var sid, payload string
		if err := rows.Scan(&sid, &payload); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}

		var se types.ScoredEvent
		if err := json.Unmarshal([]byte(payload), &se); err != nil {
			return nil, fmt.Errorf("unmarshaling event payload: %w", err)
		}
		out = append(out, ArchivedEvent{SessionID: sid, RelevanceScore: se.RelevanceScore, Event: se.Event})
	}
	return out, rows.Err()
}

// ExportCSV writes archived events as CSV to w, one row per event.
func (s *Store) ExportCSV(w io.Writer, sessionID string) error {
	events, err := s.ListEvents(sessionID, 0)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{
		"session_id", "event_type", "event_sub_type", "title", "summary",
		"perpetrator", "perpetrator_type", "city", "region", "country",
		"location", "event_date", "killed", "injured", "source_name",
		"source_url", "relevance_score", "extraction_confidence", "collected_at",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, ae := range events {
		ev := ae.Event
		eventDate := ""
		if !ev.EventDate.IsZero() {
			eventDate = ev.EventDate.UTC().Format("2006-01-02")
		}
		killed, injured := "", ""
		if ev.Casualties != nil {
			if ev.Casualties.Killed != nil {
				killed = strconv.Itoa(*ev.Casualties.Killed)
			}
			if ev.Casualties.Injured != nil {
				injured = strconv.Itoa(*ev.Casualties.Injured)
			}
		}

		row := []string{
			ae.SessionID, string(ev.EventType), ev.EventSubType, ev.Title,
			ev.Summary, ev.Perpetrator, string(ev.PerpetratorType),
			ev.Location.City, ev.Location.Region, ev.Location.Country,
			ev.Location.FullText, eventDate, killed, injured, ev.SourceName,
			ev.SourceURL,
			strconv.FormatFloat(ae.RelevanceScore, 'f', 3, 64),
			strconv.FormatFloat(ev.ExtractionConfidence, 'f', 3, 64),
			ev.CollectedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
