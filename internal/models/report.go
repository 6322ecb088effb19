package models

import "time"

// Report summarizes one clean run.
type Report struct {
	ItemsDeleted    int           `json:"items_deleted"`
	BytesFreed      int64         `json:"bytes_freed"`
	DirsDeleted     int           `json:"dirs_deleted"`
	FilesDeleted    int           `json:"files_deleted"`
	SymlinksDeleted int           `json:"symlinks_deleted"`
	Errors          []CleanError  `json:"errors"`
	Skipped         []string      `json:"skipped,omitempty"` // Already gone when the delete ran
	ScanErrors      []ScanError   `json:"scan_errors"`
	EntriesScanned  int64         `json:"entries_scanned"`
	ScanDuration    time.Duration `json:"scan_duration"`
	Duration        time.Duration `json:"duration"`
	DryRun          bool          `json:"dry_run"`
}

// HasErrors reports whether the run recorded any scan or clean failures.
func (r Report) HasErrors() bool {
	return len(r.Errors) > 0 || len(r.ScanErrors) > 0
}

// Throughput is bytes freed per second of clean time.
func (r Report) Throughput() float64 {
	secs := r.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.BytesFreed) / secs
}
