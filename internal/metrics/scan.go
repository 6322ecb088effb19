package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sweeper/internal/models"
)

// Scan subsystem metrics
var (
	// ScanEntriesTotal counts directory entries visited
	ScanEntriesTotal prometheus.Counter

	// ScanItemsMatchedTotal counts entries that became clean candidates
	ScanItemsMatchedTotal prometheus.Counter

	// ScanErrorsTotal counts recoverable scan errors by kind
	ScanErrorsTotal *prometheus.CounterVec

	// ScanDuration tracks wall time of each scan
	ScanDuration prometheus.Histogram
)

func initScanMetrics() {
	ScanEntriesTotal = NewCounter(
		"sweeper_scan_entries_total",
		"Total directory entries visited by the scanner.",
	)

	ScanItemsMatchedTotal = NewCounter(
		"sweeper_scan_items_matched_total",
		"Total entries matched as clean candidates.",
	)

	ScanErrorsTotal = NewCounterVec(
		"sweeper_scan_errors_total",
		"Total recoverable scan errors by kind.",
		[]string{"kind"},
	)

	ScanDuration = NewDurationHistogram(
		"sweeper_scan_duration_seconds",
		"Duration of tree scans in seconds.",
		DurationBuckets,
	)
}

func registerScanMetrics() {
	Registry.MustRegister(ScanEntriesTotal)
	Registry.MustRegister(ScanItemsMatchedTotal)
	Registry.MustRegister(ScanErrorsTotal)
	Registry.MustRegister(ScanDuration)
}

// ObserveScan records the totals of one finished scan.
func ObserveScan(entries int64, matched int, errs []models.ScanError, d time.Duration) {
	Init()
	ScanEntriesTotal.Add(float64(entries))
	ScanItemsMatchedTotal.Add(float64(matched))
	for _, e := range errs {
		ScanErrorsTotal.WithLabelValues(e.Kind.String()).Inc()
	}
	ScanDuration.Observe(d.Seconds())
}
