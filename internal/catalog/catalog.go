// Package catalog tracks ingested sources in SQLite so unchanged files can be
// skipped on re-ingest and the status command can report corpus counts.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SourceRecord is the bookkeeping row for one ingested file.
type SourceRecord struct {
	Path      string
	ModTime   int64 // unix nanoseconds
	Size      int64
	Chunks    int
	IndexedAt time.Time
}

// RunRecord summarizes one ingest run.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      int
	Chunks     int
}

// Catalog is the SQLite-backed source catalog.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database at dbPath, creating parent
// directories and the schema as needed.
func Open(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		path TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		size INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		indexed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		files INTEGER NOT NULL,
		chunks INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert records (or refreshes) a source row.
func (c *Catalog) Upsert(ctx context.Context, rec *SourceRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO sources (path, mtime, size, chunks, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			mtime = excluded.mtime,
			size = excluded.size,
			chunks = excluded.chunks,
			indexed_at = excluded.indexed_at
	`, rec.Path, rec.ModTime, rec.Size, rec.Chunks, rec.IndexedAt)
	if err != nil {
		return fmt.Errorf("upsert source: %w", err)
	}
	return nil
}

// Get returns the catalog row for path, or (nil, nil) when absent.
func (c *Catalog) Get(ctx context.Context, path string) (*SourceRecord, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT path, mtime, size, chunks, indexed_at FROM sources WHERE path = ?", path)
	var rec SourceRecord
	err := row.Scan(&rec.Path, &rec.ModTime, &rec.Size, &rec.Chunks, &rec.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return &rec, nil
}

// Unchanged reports whether path is already cataloged with the same mtime
// and size.
func (c *Catalog) Unchanged(ctx context.Context, path string, modTime, size int64) (bool, error) {
	rec, err := c.Get(ctx, path)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.ModTime == modTime && rec.Size == size, nil
}

// RecordRun stores an ingest-run summary.
func (c *Catalog) RecordRun(ctx context.Context, run *RunRecord) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, started_at, finished_at, files, chunks)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.Files, run.Chunks)
	if err != nil {
		return fmt.Errorf("record ingest run: %w", err)
	}
	return nil
}

// LastRun returns the most recently finished ingest run, or (nil, nil) when
// no run has been recorded.
func (c *Catalog) LastRun(ctx context.Context) (*RunRecord, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, files, chunks
		FROM ingest_runs ORDER BY finished_at DESC LIMIT 1`)
	var run RunRecord
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Files, &run.Chunks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last ingest run: %w", err)
	}
	return &run, nil
}

// Counts returns the number of cataloged sources and their total chunks.
func (c *Catalog) Counts(ctx context.Context) (sources int64, chunks int64, err error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(chunks), 0) FROM sources")
	if err := row.Scan(&sources, &chunks); err != nil {
		return 0, 0, fmt.Errorf("count sources: %w", err)
	}
	return sources, chunks, nil
}

// Reset deletes all catalog rows. Idempotent.
func (c *Catalog) Reset(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM sources"); err != nil {
		return fmt.Errorf("reset sources: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "DELETE FROM ingest_runs"); err != nil {
		return fmt.Errorf("reset ingest runs: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
