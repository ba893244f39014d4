package statestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/taskhall/commenter/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS cooldown (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	end_time    INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS claims (
	record_id  TEXT PRIMARY KEY,
	status     INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS stamps (
	name       TEXT PRIMARY KEY,
	updated_at INTEGER NOT NULL
);
`

// Store is SQLite-backed local state for one worker session: the cooldown
// window, the last claims snapshot, and freshness stamps. It has no server
// counterpart; its only job is surviving process restarts.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at the given path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCooldown persists the absolute cooldown end time. Persisting the
// absolute time, not a relative counter, is what lets a restart resume
// with the correct remaining duration.
func (s *Store) SaveCooldown(endTime time.Time, duration time.Duration) error {
	_, err := s.db.Exec(`
		INSERT INTO cooldown (id, end_time, duration_ms) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET end_time = excluded.end_time, duration_ms = excluded.duration_ms
	`, endTime.UnixMilli(), duration.Milliseconds())
	return err
}

// LoadCooldown returns the persisted window, if any.
func (s *Store) LoadCooldown() (endTime time.Time, duration time.Duration, ok bool, err error) {
	var endMs, durMs int64
	err = s.db.QueryRow(`SELECT end_time, duration_ms FROM cooldown WHERE id = 1`).Scan(&endMs, &durMs)
	if err == sql.ErrNoRows {
		return time.Time{}, 0, false, nil
	}
	if err != nil {
		return time.Time{}, 0, false, err
	}
	return time.UnixMilli(endMs), time.Duration(durMs) * time.Millisecond, true, nil
}

// ClearCooldown removes the persisted window.
func (s *Store) ClearCooldown() error {
	_, err := s.db.Exec(`DELETE FROM cooldown WHERE id = 1`)
	return err
}

// SaveClaims replaces the claims snapshot.
func (s *Store) SaveClaims(claims []model.AcceptanceRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM claims`); err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	for _, c := range claims {
		payload, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO claims (record_id, status, payload, updated_at) VALUES (?, ?, ?, ?)`,
			c.RecordID, c.Status.Wire(), string(payload), now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadClaims returns the last snapshot, oldest accept time first.
func (s *Store) LoadClaims() ([]model.AcceptanceRecord, error) {
	rows, err := s.db.Query(`SELECT payload FROM claims`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []model.AcceptanceRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var c model.AcceptanceRecord
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("decode claim snapshot: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// Touch records a freshness stamp for the named resource.
func (s *Store) Touch(name string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO stamps (name, updated_at) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at
	`, name, at.UnixMilli())
	return err
}

// LastTouched returns the stamp for the named resource, zero if absent.
func (s *Store) LastTouched(name string) (time.Time, error) {
	var ms int64
	err := s.db.QueryRow(`SELECT updated_at FROM stamps WHERE name = ?`, name).Scan(&ms)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
