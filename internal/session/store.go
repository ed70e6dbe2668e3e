// Package session keeps form-entry sessions: one navigation engine per
// open form, with the current index persisted so a session can be
// resumed after a restart.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/formnav/internal/formindex"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("session is closed")
)

// Status is the lifecycle state of a session record.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Record is the persisted part of a session.
type Record struct {
	ID             string    `json:"id"`
	FormID         string    `json:"form_id"`
	DefinitionPath string    `json:"definition_path"`
	CurrentIndex   string    `json:"current_index"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store persists session records in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the session database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("session: create data dir: %w", err)
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("session: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id              TEXT PRIMARY KEY,
			form_id         TEXT NOT NULL,
			definition_path TEXT NOT NULL,
			current_index   TEXT NOT NULL DEFAULT 'START',
			status          TEXT NOT NULL DEFAULT 'open',
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status, updated_at DESC);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func stamp() string {
	return timeNow().UTC().Format(time.RFC3339Nano)
}

// Create inserts a new open session positioned at Start.
func (s *Store) Create(formID, definitionPath string) (*Record, error) {
	id := uuid.NewString()
	now := stamp()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, form_id, definition_path, current_index, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, formID, definitionPath, formindex.Start.String(), string(StatusOpen), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	return s.Get(id)
}

// Get returns the record with id, or ErrNotFound.
func (s *Store) Get(id string) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT id, form_id, definition_path, current_index, status, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}
	return r, nil
}

// SaveIndex records the current index of an open session.
func (s *Store) SaveIndex(id string, i formindex.Index) error {
	return s.update(id, `UPDATE sessions SET current_index = ?, updated_at = ? WHERE id = ?`, i.String())
}

// SetStatus changes the lifecycle state of a session.
func (s *Store) SetStatus(id string, status Status) error {
	return s.update(id, `UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`, string(status))
}

func (s *Store) update(id, query, value string) error {
	res, err := s.db.Exec(query, value, stamp(), id)
	if err != nil {
		return fmt.Errorf("session: update %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session: update %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListOpen returns open sessions, most recently updated first.
func (s *Store) ListOpen() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, form_id, definition_path, current_index, status, created_at, updated_at
		 FROM sessions WHERE status = ? ORDER BY updated_at DESC, id`, string(StatusOpen))
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("session: list: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var r Record
	var status, created, updated string
	if err := sc.Scan(&r.ID, &r.FormID, &r.DefinitionPath, &r.CurrentIndex, &status, &created, &updated); err != nil {
		return nil, err
	}
	r.Status = Status(status)
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("created_at %q: %w", created, err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("updated_at %q: %w", updated, err)
	}
	return &r, nil
}
