package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sweeper/internal/models"
)

// Actions recorded per item.
const (
	ActionDelete = "DELETE"
	ActionDryRun = "DRY_RUN"
	ActionError  = "ERROR"
)

// HistoryDB manages the SQLite database of past runs
type HistoryDB struct {
	db *sql.DB
}

// RunRecord is one row of the runs table
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	Root       string
	DryRun     bool
	Items      int
	Bytes      int64
	Errors     int
	ScanErrors int
	Duration   time.Duration
}

// ItemRecord represents a single deletion event
type ItemRecord struct {
	ID           int64
	RunID        string
	Timestamp    time.Time
	Action       string
	Path         string
	FileName     string
	Kind         string
	Size         int64
	Pattern      string
	Source       string
	Category     string
	ErrorMessage string
}

// NewItemRecord builds the row for one cleaned item.
func NewItemRecord(action string, it models.CleanItem, errMsg string) ItemRecord {
	return ItemRecord{
		Action:       action,
		Path:         it.Path,
		FileName:     filepath.Base(it.Path),
		Kind:         it.Kind.String(),
		Size:         it.Size,
		Pattern:      it.Match.Pattern,
		Source:       it.Match.Source.String(),
		Category:     it.Match.Category.String(),
		ErrorMessage: errMsg,
	}
}

// Open creates a new database connection and initializes schema
func Open(dbPath string) (*HistoryDB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Exec rather than Ping so the file is created now
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// Enable WAL mode for better concurrency (multiple readers, one writer)
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Optimize for write performance
	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	hdb := &HistoryDB{db: db}
	if err = hdb.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return hdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *HistoryDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		root TEXT NOT NULL,
		dry_run INTEGER NOT NULL,
		items INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		scan_errors INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS deletions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		kind TEXT NOT NULL,
		size INTEGER NOT NULL,
		pattern TEXT,
		source TEXT,
		category TEXT,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_deletions_run_id ON deletions(run_id);
	CREATE INDEX IF NOT EXISTS idx_deletions_timestamp ON deletions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_deletions_action ON deletions(action);
	CREATE INDEX IF NOT EXISTS idx_deletions_category ON deletions(category);
	CREATE INDEX IF NOT EXISTS idx_deletions_size ON deletions(size);

	-- Metadata table for schema versioning
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// RecordRun inserts the summary row of one run
func (d *HistoryDB) RecordRun(r RunRecord) error {
	_, err := d.db.Exec(`
	INSERT INTO runs (id, started_at, root, dry_run, items, bytes, errors, scan_errors, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.StartedAt.UTC(),
		r.Root,
		r.DryRun,
		r.Items,
		r.Bytes,
		r.Errors,
		r.ScanErrors,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// RecordItems inserts the per-item rows of a run in one transaction.
// Records without a timestamp get the current time.
func (d *HistoryDB) RecordItems(runID string, items []ItemRecord) (err error) {
	if len(items) == 0 {
		return nil
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
	INSERT INTO deletions (
		run_id, timestamp, action, path, file_name, kind, size,
		pattern, source, category, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, it := range items {
		ts := it.Timestamp
		if ts.IsZero() {
			ts = now
		}
		if _, err = stmt.Exec(
			runID,
			ts.UTC(),
			it.Action,
			it.Path,
			it.FileName,
			it.Kind,
			it.Size,
			it.Pattern,
			it.Source,
			it.Category,
			it.ErrorMessage,
		); err != nil {
			return fmt.Errorf("insert %s: %w", it.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *HistoryDB) Close() error {
	return d.db.Close()
}

// Vacuum optimizes the database (run periodically)
func (d *HistoryDB) Vacuum() error {
	_, err := d.db.Exec("VACUUM")
	return err
}

// parseTimestamp reads the text form the driver returns for aggregates.
// SQLite stores time.Time as: "2025-11-19 23:01:56.489344855+00:00"
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
