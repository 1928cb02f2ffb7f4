// Package store persists batch runs (pages, attempts, grades) to sqlite so
// export and duplicate detection can work from history without re-scanning
// the source images.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"scanmark/internal/assessment"
	"scanmark/internal/resolve"
)

// Store manages the scanmark run database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewStore creates or opens the run store.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		copy_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		attempt_id TEXT NOT NULL,
		grade INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_triple ON attempts(copy_id, question_id, attempt_id);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_row INTEGER NOT NULL REFERENCES attempts(id),
		page_index INTEGER NOT NULL,
		path TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		rotation INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pages_attempt ON pages(attempt_row);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(startedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`, id, startedAt.UTC()); err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's completion time.
func (s *Store) FinishRun(runID string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, finishedAt.UTC(), runID); err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// RecordAttempt appends one attempt and its pages to a run. seq is the
// attempt's position in input order; replaying attempts ordered by seq
// reconstructs the Assessment exactly.
func (s *Store) RecordAttempt(runID string, seq int, a *assessment.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	defer tx.Rollback()

	ids := a.IDs()
	var grade sql.NullInt64
	if g, ok := a.Grade(); ok {
		grade = sql.NullInt64{Int64: int64(g), Valid: true}
	}

	res, err := tx.Exec(
		`INSERT INTO attempts (run_id, seq, copy_id, question_id, attempt_id, grade) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, seq, ids.Copy, ids.Question, ids.Attempt, grade)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	row, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("attempt row id: %w", err)
	}

	for i, p := range a.Pages() {
		if _, err := tx.Exec(
			`INSERT INTO pages (attempt_row, page_index, path, width, height, rotation) VALUES (?, ?, ?, ?, ?, ?)`,
			row, i, p.Path, p.Width, p.Height, p.Rotation); err != nil {
			return fmt.Errorf("insert page %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LatestRunID returns the most recently started run, or "" when the store
// is empty.
func (s *Store) LatestRunID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

// LoadAssessment rebuilds a run's Assessment, attempts in original input
// order, pages in page order.
func (s *Store) LoadAssessment(runID string) (*assessment.Assessment, error) {
	rows, err := s.db.Query(
		`SELECT id, copy_id, question_id, attempt_id, grade FROM attempts WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	defer rows.Close()

	type attemptRow struct {
		row   int64
		ids   resolve.Identifiers
		grade sql.NullInt64
	}
	var attemptRows []attemptRow
	for rows.Next() {
		var r attemptRow
		if err := rows.Scan(&r.row, &r.ids.Copy, &r.ids.Question, &r.ids.Attempt, &r.grade); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attemptRows = append(attemptRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	result := assessment.New()
	for _, r := range attemptRows {
		pages, err := s.loadPages(r.row)
		if err != nil {
			return nil, err
		}
		var grade *int
		if r.grade.Valid {
			g := int(r.grade.Int64)
			grade = &g
		}
		result.Add(assessment.NewAttempt(pages, r.ids, grade))
	}
	return result, nil
}

func (s *Store) loadPages(attemptRow int64) ([]resolve.Page, error) {
	rows, err := s.db.Query(
		`SELECT path, width, height, rotation FROM pages WHERE attempt_row = ? ORDER BY page_index`, attemptRow)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer rows.Close()

	var pages []resolve.Page
	for rows.Next() {
		var p resolve.Page
		if err := rows.Scan(&p.Path, &p.Width, &p.Height, &p.Rotation); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Duplicate is one identifier triple decoded from more than one distinct
// source file within a run.
type Duplicate struct {
	IDs   resolve.Identifiers
	Paths []string
}

// Duplicates finds identifier triples that appear on pages from more than
// one distinct source file in the given run. The core never deduplicates;
// this is the auxiliary check operators run before trusting an export.
// Paths are selected as separate rows, so any character is safe in a path.
func (s *Store) Duplicates(runID string) ([]Duplicate, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT a.copy_id, a.question_id, a.attempt_id, p.path
		FROM attempts a
		JOIN pages p ON p.attempt_row = a.id
		WHERE a.run_id = ? AND a.copy_id != '' AND a.question_id != '' AND a.attempt_id != ''
		ORDER BY a.copy_id, a.question_id, a.attempt_id, p.path`, runID)
	if err != nil {
		return nil, fmt.Errorf("duplicates: %w", err)
	}
	defer rows.Close()

	// Rows arrive grouped by triple; fold and keep the triples spanning
	// more than one source file.
	var out []Duplicate
	var cur Duplicate
	flush := func() {
		if len(cur.Paths) > 1 {
			out = append(out, cur)
		}
	}
	for rows.Next() {
		var ids resolve.Identifiers
		var path string
		if err := rows.Scan(&ids.Copy, &ids.Question, &ids.Attempt, &path); err != nil {
			return nil, fmt.Errorf("scan duplicate: %w", err)
		}
		if ids != cur.IDs {
			flush()
			cur = Duplicate{IDs: ids}
		}
		cur.Paths = append(cur.Paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duplicates: %w", err)
	}
	flush()
	return out, nil
}
