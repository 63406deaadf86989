// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists analysis history for turncapp.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/laveshps/turncapp/internal/util"
)

// =============================================================================
// STORED TYPES
// =============================================================================

// AnalysisRecord is one persisted analysis run.
type AnalysisRecord struct {
	RunID        uuid.UUID `json:"run_id"`
	SourceFile   string    `json:"source_file"`
	Score        int       `json:"score"`
	Suitable     bool      `json:"suitable"`
	Material     string    `json:"material"`
	Machine      string    `json:"machine"`
	TotalMinutes float64   `json:"total_minutes"`

	// Document holds the exported JSON plan, empty when the part was
	// rejected before planning.
	Document  string    `json:"document,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptTurn is one persisted chat exchange line.
type TranscriptTurn struct {
	RunID     uuid.UUID `json:"run_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore records analysis runs and chat transcripts in SQLite.
type HistoryStore struct {
	db *sql.DB

	// MaxRuns limits stored runs (0 = unlimited). Oldest runs and their
	// transcripts are pruned on save.
	MaxRuns int
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	source_file   TEXT NOT NULL,
	score         INTEGER NOT NULL,
	suitable      INTEGER NOT NULL,
	material      TEXT NOT NULL DEFAULT '',
	machine       TEXT NOT NULL DEFAULT '',
	total_minutes REAL NOT NULL DEFAULT 0,
	document      TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transcript (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transcript_run ON transcript(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Open opens (creating if needed) a history database at path.
func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// The driver serializes access per connection; a single connection
	// avoids SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &HistoryStore{db: db, MaxRuns: 100}, nil
}

// OpenDefault opens the history database in the user's config directory.
func OpenDefault() (*HistoryStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(homeDir, ".turncapp", "history.db"))
}

// Close releases the underlying database handle.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// SaveRun persists an analysis run. A zero RunID gets a fresh one; the
// (possibly generated) ID is returned.
func (s *HistoryStore) SaveRun(rec *AnalysisRecord) (uuid.UUID, error) {
	if rec.RunID == uuid.Nil {
		rec.RunID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO runs
			(run_id, source_file, score, suitable, material, machine, total_minutes, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID.String(), rec.SourceFile, rec.Score, boolToInt(rec.Suitable),
		rec.Material, rec.Machine, rec.TotalMinutes, rec.Document,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save run: %w", err)
	}

	if s.MaxRuns > 0 {
		s.enforceLimit()
	}

	return rec.RunID, nil
}

// SaveTurn appends one chat line to a run's transcript.
func (s *HistoryStore) SaveTurn(runID uuid.UUID, role, content string) error {
	_, err := s.db.Exec(`
		INSERT INTO transcript (run_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		runID.String(), role, content, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save transcript turn: %w", err)
	}
	return nil
}

// enforceLimit removes oldest runs if over limit.
func (s *HistoryStore) enforceLimit() {
	s.db.Exec(`
		DELETE FROM runs WHERE run_id IN (
			SELECT run_id FROM runs
			ORDER BY created_at DESC
			LIMIT -1 OFFSET ?
		)`, s.MaxRuns)
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// GetRun retrieves one analysis run by ID.
func (s *HistoryStore) GetRun(runID uuid.UUID) (*AnalysisRecord, error) {
	row := s.db.QueryRow(`
		SELECT run_id, source_file, score, suitable, material, machine, total_minutes, document, created_at
		FROM runs WHERE run_id = ?`, runID.String())

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	return rec, err
}

// ListRuns returns saved runs, most recent first. A limit of 0 means all.
func (s *HistoryStore) ListRuns(limit int) ([]AnalysisRecord, error) {
	query := `
		SELECT run_id, source_file, score, suitable, material, machine, total_minutes, document, created_at
		FROM runs ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []AnalysisRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// Search finds runs whose source file matches a query string.
func (s *HistoryStore) Search(query string) ([]AnalysisRecord, error) {
	all, err := s.ListRuns(0)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []AnalysisRecord
	for _, rec := range all {
		if strings.Contains(strings.ToLower(rec.SourceFile), query) {
			results = append(results, rec)
		}
	}
	return results, nil
}

// Transcript returns a run's chat lines in insertion order.
func (s *HistoryStore) Transcript(runID uuid.UUID) ([]TranscriptTurn, error) {
	rows, err := s.db.Query(`
		SELECT run_id, role, content, created_at
		FROM transcript WHERE run_id = ? ORDER BY id`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer rows.Close()

	var turns []TranscriptTurn
	for rows.Next() {
		var turn TranscriptTurn
		var id, createdAt string
		if err := rows.Scan(&id, &turn.Role, &turn.Content, &createdAt); err != nil {
			return nil, err
		}
		turn.RunID, _ = uuid.Parse(id)
		turn.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var id, createdAt string
	var suitable int
	if err := row.Scan(&id, &rec.SourceFile, &rec.Score, &suitable,
		&rec.Material, &rec.Machine, &rec.TotalMinutes, &rec.Document, &createdAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt run id %q: %w", id, err)
	}
	rec.RunID = parsed
	rec.Suitable = suitable != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &rec, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// DeleteRun removes a run and its transcript.
func (s *HistoryStore) DeleteRun(runID uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID.String())
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// Clear removes all saved runs and transcripts.
func (s *HistoryStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM runs`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	_, err := s.db.Exec(`DELETE FROM transcript`)
	return err
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrRunNotFound is returned when a run doesn't exist.
// Use errors.Is(err, ErrRunNotFound) to check for this error.
var ErrRunNotFound = &HistoryError{Message: "analysis run not found"}

// HistoryError represents a history-related error.
type HistoryError struct {
	Message string
}

// Error implements the error interface.
func (e *HistoryError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing history errors.
func (e *HistoryError) Is(target error) bool {
	t, ok := target.(*HistoryError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// HISTORY LIST FORMATTING
// =============================================================================

// FormatHistoryList formats saved runs as a table for CLI display.
func FormatHistoryList(recs []AnalysisRecord) string {
	if len(recs) == 0 {
		return "No analysis history."
	}

	var sb strings.Builder
	sb.WriteString("Analysis history:\n")
	sb.WriteString("-------------------------------------------------------------------------\n")
	sb.WriteString(formatPadded("ID", 10) + " " +
		formatPadded("Analyzed", 17) + " " +
		formatPadded("Score", 7) + " " +
		formatPadded("Turnable", 8) + " Part\n")
	sb.WriteString("-------------------------------------------------------------------------\n")

	for _, rec := range recs {
		suitable := "no"
		if rec.Suitable {
			suitable = "yes"
		}
		sb.WriteString(formatPadded(rec.RunID.String()[:8], 10) + " " +
			formatPadded(rec.CreatedAt.Local().Format("2006-01-02 15:04"), 17) + " " +
			formatPadded(strconv.Itoa(rec.Score)+"/100", 7) + " " +
			formatPadded(suitable, 8) + " " +
			util.TruncateWidth(rec.SourceFile, 30) + "\n")
	}
	return sb.String()
}

// formatPadded pads a string to the specified width with spaces.
func formatPadded(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(runes))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
