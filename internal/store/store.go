package store

// Package store handles all local database interactions using SQLite.
// It persists the signed-in session's tokens between invocations and keeps
// the drop-folder journal for watch mode (PENDING vs UPLOADED files), which
// makes the watch daemon resilient to restarts.

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DropStatus represents the processing state of a dropped file.
type DropStatus string

const (
	DropPending  DropStatus = "PENDING"  // File detected but not yet attached to a puzzle
	DropUploaded DropStatus = "UPLOADED" // Puzzle created and image upload confirmed
)

// DropRecord represents a row in the 'drops' table.
type DropRecord struct {
	ID         int64
	Path       string
	Size       int64
	ModTime    time.Time
	Status     DropStatus
	PuzzleID   sql.NullString // Assigned once the puzzle has been created
	AttemptID  sql.NullString // ULID of the upload attempt that succeeded
	UploadedAt sql.NullTime
}

// SessionRecord is the single persisted identity, if any.
type SessionRecord struct {
	UserID       string
	Email        string
	IDToken      string
	AccessToken  string
	RefreshToken string
	UpdatedAt    time.Time
}

// Store wraps the SQL database connection.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		user_id TEXT NOT NULL,
		email TEXT NOT NULL,
		id_token TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS drops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		size INTEGER NOT NULL,
		mod_time DATETIME NOT NULL,
		status TEXT NOT NULL,
		puzzle_id TEXT,
		attempt_id TEXT,
		uploaded_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_drops_status_mod_time ON drops(status, mod_time);
	`
	_, err := s.db.Exec(query)
	return err
}

// SaveSession upserts the single persisted session row.
func (s *Store) SaveSession(rec SessionRecord) error {
	query := `
	INSERT INTO session (id, user_id, email, id_token, access_token, refresh_token, updated_at)
	VALUES (1, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		email = excluded.email,
		id_token = excluded.id_token,
		access_token = excluded.access_token,
		refresh_token = excluded.refresh_token,
		updated_at = excluded.updated_at;
	`
	_, err := s.db.Exec(query, rec.UserID, rec.Email, rec.IDToken, rec.AccessToken, rec.RefreshToken, time.Now())
	return err
}

// LoadSession returns the persisted session, or nil when nobody is signed in.
func (s *Store) LoadSession() (*SessionRecord, error) {
	query := `SELECT user_id, email, id_token, access_token, refresh_token, updated_at FROM session WHERE id = 1`
	var rec SessionRecord
	err := s.db.QueryRow(query).Scan(&rec.UserID, &rec.Email, &rec.IDToken, &rec.AccessToken, &rec.RefreshToken, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ClearSession removes the persisted session. Called on logout.
func (s *Store) ClearSession() error {
	_, err := s.db.Exec(`DELETE FROM session WHERE id = 1`)
	return err
}

// AddOrUpdateDrop inserts a newly detected file or updates an existing one.
// A modified file is reset to PENDING so it gets uploaded again as a new puzzle.
func (s *Store) AddOrUpdateDrop(path string, size int64, modTime time.Time) error {
	query := `
	INSERT INTO drops (path, size, mod_time, status)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		size = excluded.size,
		mod_time = excluded.mod_time,
		status = ?;
	`
	_, err := s.db.Exec(query, path, size, modTime, DropPending, DropPending)
	return err
}

// MarkDropUploaded records a confirmed upload together with the puzzle it
// produced and the attempt id for traceability.
func (s *Store) MarkDropUploaded(path, puzzleID, attemptID string) error {
	query := `
	UPDATE drops
	SET status = ?, puzzle_id = ?, attempt_id = ?, uploaded_at = ?
	WHERE path = ?;
	`
	_, err := s.db.Exec(query, DropUploaded, puzzleID, attemptID, time.Now(), path)
	return err
}

// RemoveDrop deletes a drop record, e.g. when the file vanished or was pruned.
func (s *Store) RemoveDrop(path string) error {
	_, err := s.db.Exec(`DELETE FROM drops WHERE path = ?`, path)
	return err
}

// GetPendingDrops returns files waiting to be uploaded, oldest first.
func (s *Store) GetPendingDrops(limit int) ([]DropRecord, error) {
	return s.queryDrops(DropPending, limit)
}

// GetPruneCandidates returns files that are safe to delete (already uploaded),
// oldest first.
func (s *Store) GetPruneCandidates(limit int) ([]DropRecord, error) {
	return s.queryDrops(DropUploaded, limit)
}

func (s *Store) queryDrops(status DropStatus, limit int) ([]DropRecord, error) {
	query := `
	SELECT id, path, size, mod_time, status, puzzle_id, attempt_id, uploaded_at
	FROM drops
	WHERE status = ?
	ORDER BY mod_time ASC
	LIMIT ?
	`
	rows, err := s.db.Query(query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DropRecord
	for rows.Next() {
		var d DropRecord
		err := rows.Scan(&d.ID, &d.Path, &d.Size, &d.ModTime, &d.Status, &d.PuzzleID, &d.AttemptID, &d.UploadedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, d)
	}
	return records, rows.Err()
}

// GetTotalDropSize returns the sum of the size of all tracked files.
func (s *Store) GetTotalDropSize() (int64, error) {
	var size int64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM drops`).Scan(&size)
	return size, err
}
