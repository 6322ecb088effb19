package database

import (
	"database/sql"
	"time"
)

// RecentRuns returns the N most recent runs
func (d *HistoryDB) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := d.db.Query(`
	SELECT id, started_at, root, dry_run, items, bytes, errors, scan_errors, duration_ms
	FROM runs
	ORDER BY started_at DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var durationMS int64
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.Root, &r.DryRun, &r.Items,
			&r.Bytes, &r.Errors, &r.ScanErrors, &durationMS,
		); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecentDeletions returns the N most recent item events
func (d *HistoryDB) RecentDeletions(limit int) ([]ItemRecord, error) {
	query := `
	SELECT id, run_id, timestamp, action, path, file_name, kind, size,
	       pattern, source, category, error_message
	FROM deletions
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	return d.queryItems(query, limit)
}

// LargestDeletions returns the N largest deletions by size
func (d *HistoryDB) LargestDeletions(limit int) ([]ItemRecord, error) {
	query := `
	SELECT id, run_id, timestamp, action, path, file_name, kind, size,
	       pattern, source, category, error_message
	FROM deletions
	WHERE action = 'DELETE'
	ORDER BY size DESC
	LIMIT ?
	`

	return d.queryItems(query, limit)
}

// DeletionsForRun returns every item event of one run
func (d *HistoryDB) DeletionsForRun(runID string) ([]ItemRecord, error) {
	query := `
	SELECT id, run_id, timestamp, action, path, file_name, kind, size,
	       pattern, source, category, error_message
	FROM deletions
	WHERE run_id = ?
	ORDER BY id
	`

	return d.queryItems(query, runID)
}

// CategoryTotal is the aggregate of deleted items in one category
type CategoryTotal struct {
	Category string
	Count    int
	Bytes    int64
}

// DeletionsByCategory returns deleted counts and bytes per category,
// largest first
func (d *HistoryDB) DeletionsByCategory() ([]CategoryTotal, error) {
	rows, err := d.db.Query(`
	SELECT COALESCE(category, ''), COUNT(*), COALESCE(SUM(size), 0)
	FROM deletions
	WHERE action = 'DELETE'
	GROUP BY category
	ORDER BY SUM(size) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var c CategoryTotal
		if err := rows.Scan(&c.Category, &c.Count, &c.Bytes); err != nil {
			return nil, err
		}
		totals = append(totals, c)
	}
	return totals, rows.Err()
}

// Stats holds aggregated statistics
type Stats struct {
	TotalRuns         int
	DryRuns           int
	TotalDeletions    int
	TotalErrors       int
	TotalSpaceFreed   int64
	DatabaseSizeBytes int64
	OldestRun         time.Time
	NewestRun         time.Time
}

// Stats returns totals over the whole history
func (d *HistoryDB) Stats() (*Stats, error) {
	stats := &Stats{}

	var oldest, newest sql.NullString
	err := d.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN dry_run THEN 1 END),
			MIN(started_at),
			MAX(started_at)
		FROM runs
	`).Scan(&stats.TotalRuns, &stats.DryRuns, &oldest, &newest)
	if err != nil {
		return nil, err
	}
	if oldest.Valid {
		stats.OldestRun, _ = parseTimestamp(oldest.String)
	}
	if newest.Valid {
		stats.NewestRun, _ = parseTimestamp(newest.String)
	}

	// Total by action
	err = d.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN action = 'DELETE' THEN 1 END),
			COUNT(CASE WHEN action = 'ERROR' THEN 1 END),
			COALESCE(SUM(CASE WHEN action = 'DELETE' THEN size END), 0)
		FROM deletions
	`).Scan(&stats.TotalDeletions, &stats.TotalErrors, &stats.TotalSpaceFreed)
	if err != nil {
		return nil, err
	}

	// Database size
	var pageCount, pageSize int64
	if err := d.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}
	stats.DatabaseSizeBytes = pageCount * pageSize

	return stats, nil
}

// PurgeOlderThan removes runs older than the given number of days, along
// with their item rows. It returns the number of runs removed.
func (d *HistoryDB) PurgeOlderThan(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		DELETE FROM deletions WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
	`, cutoff); err != nil {
		return 0, err
	}
	result, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// queryItems is a helper function to execute queries and scan results
func (d *HistoryDB) queryItems(query string, args ...interface{}) ([]ItemRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ItemRecord
	for rows.Next() {
		var r ItemRecord
		var fileName, pattern, source, category, errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.RunID, &r.Timestamp, &r.Action, &r.Path, &fileName,
			&r.Kind, &r.Size, &pattern, &source, &category, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.FileName = fileName.String
		r.Pattern = pattern.String
		r.Source = source.String
		r.Category = category.String
		r.ErrorMessage = errMsg.String

		records = append(records, r)
	}

	return records, rows.Err()
}
