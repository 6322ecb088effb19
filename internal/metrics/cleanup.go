package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sweeper/internal/models"
)

// Cleanup subsystem metrics
var (
	// CleanDuration tracks how long clean runs take
	CleanDuration prometheus.Histogram

	// BytesFreedTotal tracks total bytes freed across all runs
	BytesFreedTotal prometheus.Counter

	// ItemsDeletedTotal tracks deleted items by kind
	ItemsDeletedTotal *prometheus.CounterVec

	// CleanErrorsTotal tracks per-item delete failures by error kind
	CleanErrorsTotal *prometheus.CounterVec

	// WorkersActive tracks cleaner workers currently holding a chunk
	WorkersActive prometheus.Gauge

	// ChunksTotal tracks chunks processed, by outcome
	ChunksTotal *prometheus.CounterVec

	// ChunkDuration tracks how long one worker spends on a chunk
	ChunkDuration prometheus.Histogram

	// LastRunTimestamp records Unix timestamp of the last run
	LastRunTimestamp prometheus.Gauge

	// LastRunDryRun is 1 when the last run was a preview
	LastRunDryRun prometheus.Gauge
)

func initCleanupMetrics() {
	CleanDuration = NewDurationHistogram(
		"sweeper_clean_duration_seconds",
		"Duration of clean runs in seconds.",
		DurationBuckets,
	)

	BytesFreedTotal = NewCounter(
		"sweeper_bytes_freed_total",
		"Total bytes freed by sweeper.",
	)

	ItemsDeletedTotal = NewCounterVec(
		"sweeper_items_deleted_total",
		"Total items deleted by sweeper.",
		[]string{"kind"},
	)

	CleanErrorsTotal = NewCounterVec(
		"sweeper_clean_errors_total",
		"Total per-item delete failures.",
		[]string{"kind"},
	)

	WorkersActive = NewGauge(
		"sweeper_cleaner_workers_active",
		"Number of cleaner workers currently processing a chunk.",
	)

	ChunksTotal = NewCounterVec(
		"sweeper_cleaner_chunks_total",
		"Total chunks processed by cleaner workers.",
		[]string{"status"},
	)

	ChunkDuration = NewDurationHistogram(
		"sweeper_cleaner_chunk_duration_seconds",
		"Duration of individual chunk processing in seconds.",
		ChunkBuckets,
	)

	LastRunTimestamp = NewGauge(
		"sweeper_last_run_timestamp",
		"Timestamp of the last run (Unix epoch seconds).",
	)

	LastRunDryRun = NewGauge(
		"sweeper_last_run_dry_run",
		"1 if the last run was a dry run, 0 otherwise.",
	)
}

func registerCleanupMetrics() {
	Registry.MustRegister(CleanDuration)
	Registry.MustRegister(BytesFreedTotal)
	Registry.MustRegister(ItemsDeletedTotal)
	Registry.MustRegister(CleanErrorsTotal)
	Registry.MustRegister(WorkersActive)
	Registry.MustRegister(ChunksTotal)
	Registry.MustRegister(ChunkDuration)
	Registry.MustRegister(LastRunTimestamp)
	Registry.MustRegister(LastRunDryRun)
}

// RecordDeletion counts one successful delete.
func RecordDeletion(kind models.Kind, size int64) {
	Init()
	ItemsDeletedTotal.WithLabelValues(kind.String()).Inc()
	BytesFreedTotal.Add(float64(size))
}

// RecordCleanError counts one failed delete.
func RecordCleanError(kind models.ErrorKind) {
	Init()
	CleanErrorsTotal.WithLabelValues(kind.String()).Inc()
}

// WorkerBusy adjusts the active worker gauge by delta.
func WorkerBusy(delta int) {
	Init()
	WorkersActive.Add(float64(delta))
}

// RecordChunk records one processed chunk.
func RecordChunk(failed bool, d time.Duration) {
	Init()
	status := "ok"
	if failed {
		status = "errors"
	}
	ChunksTotal.WithLabelValues(status).Inc()
	ChunkDuration.Observe(d.Seconds())
}

// RecordRun records the outcome of a finished run.
func RecordRun(r models.Report) {
	Init()
	LastRunTimestamp.Set(float64(time.Now().Unix()))
	if r.DryRun {
		LastRunDryRun.Set(1)
	} else {
		LastRunDryRun.Set(0)
	}
	CleanDuration.Observe(r.Duration.Seconds())
}
