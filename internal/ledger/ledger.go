// Package ledger persists extraction runs in a SQLite database so the
// status command can answer what was extracted, when, and which markdown
// files under the docs root nothing tracks anymore.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/exodoc/exodoc/internal/extract"
	"github.com/exodoc/exodoc/internal/migrate"
)

// ErrNoRuns means the ledger holds no recorded runs yet.
var ErrNoRuns = errors.New("no runs recorded")

// keptRuns bounds ledger growth; older runs and their docs are pruned on
// finish.
const keptRuns = 20

// Ledger wraps one ledger database. It implements migrate.RecordSink for the
// active run; runs are sequential, Begin then Finish.
type Ledger struct {
	db    *sql.DB
	runID string
}

// Open opens or creates the ledger database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// OpenReadOnly opens an existing ledger for queries. A missing database is
// an error telling the user to run a migration first.
func OpenReadOnly(path string) (*Ledger, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("ledger not found at %s, run 'exodoc migrate' first", path)
	}
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Begin opens a new run. The run stays open until Finish stamps its counts.
func (l *Ledger) Begin(ctx context.Context, root string) error {
	if l.runID != "" {
		return fmt.Errorf("run %s is still open", l.runID)
	}
	runID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, root, started_at) VALUES (?, ?, ?)",
		runID, root, now)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	l.runID = runID
	return nil
}

// RecordExtractions stores the merged record batch under the active run.
func (l *Ledger) RecordExtractions(ctx context.Context, records []extract.Extraction) error {
	if l.runID == "" {
		return errors.New("no active run")
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin docs transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO docs (doc_id, run_id, path, source_file, source_line, kind, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare docs insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		hash := sha256.Sum256([]byte(rec.Content))
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), l.runID, rec.Path, rec.File, rec.Line, rec.Kind,
			hex.EncodeToString(hash[:]))
		if err != nil {
			return fmt.Errorf("failed to insert doc %s: %w", rec.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit docs transaction: %w", err)
	}
	return nil
}

// Finish stamps the active run with its report counts and prunes runs
// beyond the retention window.
func (l *Ledger) Finish(ctx context.Context, rep *migrate.Report) error {
	if l.runID == "" {
		return errors.New("no active run")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := l.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			files_processed = ?,
			docs_extracted = ?,
			files_written = ?,
			files_skipped = ?,
			files_rewritten = ?,
			files_touched = ?,
			error_count = ?
		WHERE run_id = ?
	`, now, rep.FilesProcessed, rep.DocsExtracted, rep.FilesWritten,
		rep.FilesSkipped, rep.FilesRewritten, rep.FilesTouched,
		len(rep.Errors), l.runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	l.runID = ""

	// docs rows follow their run out via ON DELETE CASCADE
	_, err = l.db.ExecContext(ctx, `
		DELETE FROM runs WHERE seq NOT IN (
			SELECT seq FROM runs ORDER BY seq DESC LIMIT ?
		)
	`, keptRuns)
	if err != nil {
		return fmt.Errorf("failed to prune runs: %w", err)
	}
	return nil
}

// Summary is the latest run as the status command presents it.
type Summary struct {
	RunID          string
	Root           string
	StartedAt      time.Time
	FinishedAt     time.Time
	FilesProcessed int
	DocsTracked    int
	FilesWritten   int
	FilesSkipped   int
	FilesRewritten int
	FilesTouched   int
	ErrorCount     int
}

// Status returns the most recent run. ErrNoRuns when the ledger is empty.
func (l *Ledger) Status(ctx context.Context) (*Summary, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT run_id, root, started_at, COALESCE(finished_at, ''),
		       files_processed, files_written, files_skipped,
		       files_rewritten, files_touched, error_count
		FROM runs ORDER BY seq DESC LIMIT 1
	`)
	var s Summary
	var started, finished string
	err := row.Scan(&s.RunID, &s.Root, &started, &finished,
		&s.FilesProcessed, &s.FilesWritten, &s.FilesSkipped,
		&s.FilesRewritten, &s.FilesTouched, &s.ErrorCount)
	if err == sql.ErrNoRows {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	if s.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	if finished != "" {
		if s.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
		}
	}
	err = l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM docs WHERE run_id = ?", s.RunID).Scan(&s.DocsTracked)
	if err != nil {
		return nil, fmt.Errorf("failed to count docs: %w", err)
	}
	return &s, nil
}

// Orphans lists markdown files under docsRoot that the latest run does not
// track, sorted. These are docs whose source item was renamed or removed.
func (l *Ledger) Orphans(ctx context.Context, docsRoot string) ([]string, error) {
	var runID string
	err := l.db.QueryRowContext(ctx,
		"SELECT run_id FROM runs ORDER BY seq DESC LIMIT 1").Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, "SELECT path FROM docs WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query docs: %w", err)
	}
	defer rows.Close()

	tracked := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan doc path: %w", err)
		}
		tracked[path] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read docs: %w", err)
	}

	var orphans []string
	err = filepath.Walk(docsRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == docsRoot {
				return filepath.SkipAll
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		if _, ok := tracked[path]; !ok {
			orphans = append(orphans, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk docs root: %w", err)
	}
	sort.Strings(orphans)
	return orphans, nil
}
