package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	initOnce sync.Once

	// Registry holds every sweeper collector. A one-shot CLI has no
	// scrape endpoint, so metrics leave the process via Push or
	// WriteTextfile.
	Registry = prometheus.NewRegistry()
)

// Init creates and registers all collectors.
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		initScanMetrics()
		initCleanupMetrics()

		registerScanMetrics()
		registerCleanupMetrics()

		LastRunTimestamp.Set(0)
		LastRunDryRun.Set(0)
	})
}

// Push sends the current values to a Prometheus Pushgateway, replacing
// any previous group for job.
func Push(url, job string) error {
	Init()
	if job == "" {
		job = "sweeper"
	}
	if err := push.New(url, job).Gatherer(Registry).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// WriteTextfile writes the current values in the text exposition format,
// for node_exporter's textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	Init()
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
