package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"sort"
	"sync"
	"time"

	"sweeper/internal/fsops"
	"sweeper/internal/limiter"
	"sweeper/internal/metrics"
	"sweeper/internal/models"
	"sweeper/internal/progress"
)

// Logger interface for structured logging in cleanup
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Guard authorizes each delete. *safety.Validator implements it.
type Guard interface {
	ValidateDeleteTarget(path string) error
}

// ErrRefused wraps a Guard rejection in the item's CleanError.
var ErrRefused = errors.New("refused by safety check")

// Options configures a Cleaner. Zero values get defaults.
type Options struct {
	Threads   int // Defaults to runtime.NumCPU()
	ChunkSize int // Items per worker job; defaults to 1
	Deleter   fsops.Deleter
	Guard     Guard
	Limiter   *limiter.DeleteLimiter
	Logger    Logger
}

// Cleaner deletes items on a reusable pool of workers.
type Cleaner struct {
	opts Options

	// mu guards pool. Clean holds the read lock while its batch uses the
	// pool; SetThreads and Close take the write lock to replace it.
	mu   sync.RWMutex
	pool *pool
}

// New creates a Cleaner and starts its workers.
func New(opts Options) *Cleaner {
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1
	}
	if opts.Deleter == nil {
		opts.Deleter = fsops.OSDeleter{}
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Cleaner{opts: opts, pool: newPool(opts.Threads)}
}

// SetThreads resizes the pool. The pool is rebuilt only when n differs
// from the current size; n <= 0 means runtime.NumCPU().
func (c *Cleaner) SetThreads(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil && c.pool.size == n {
		return
	}
	if c.pool != nil {
		c.pool.close()
	}
	c.opts.Threads = n
	c.pool = newPool(n)
}

// Threads returns the current pool size.
func (c *Cleaner) Threads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pool == nil {
		return 0
	}
	return c.pool.size
}

// Close stops the workers. A closed Cleaner restarts its pool on the
// next SetThreads.
func (c *Cleaner) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.close()
		c.pool = nil
	}
}

// Clean removes items, or only tallies them when dryRun is set. Per-item
// failures are collected in the report and never stop the batch. sink may
// be nil.
func (c *Cleaner) Clean(items []models.CleanItem, dryRun bool, sink progress.Sink) models.Report {
	if sink == nil {
		sink = progress.NoOp{}
	}
	start := time.Now()
	var report models.Report
	if dryRun {
		report = c.preview(items, sink)
	} else {
		report = c.run(items, sink)
	}
	report.Duration = time.Since(start)
	c.opts.Logger.Info("Cleanup complete",
		"dry_run", dryRun,
		"deleted", report.ItemsDeleted,
		"errors", len(report.Errors),
		"skipped", len(report.Skipped),
		"bytes_freed", report.BytesFreed,
		"duration", report.Duration,
	)
	return report
}

// preview counts what a live run would remove. It makes no changes to the
// filesystem; items the Guard refuses are reported as they would be live.
func (c *Cleaner) preview(items []models.CleanItem, sink progress.Sink) models.Report {
	stats := &Statistics{}
	for _, it := range items {
		if !c.authorized(it, stats) {
			sink.Increment(1)
			continue
		}
		c.opts.Logger.Debug("[DRY RUN] Would remove", "path", it.Path, "kind", it.Kind, "size", it.Size)
		stats.recordSuccess(it)
		sink.Increment(1)
	}
	return stats.report(true)
}

// authorized runs the Guard and records a refusal as the item's error.
func (c *Cleaner) authorized(it models.CleanItem, stats *Statistics) bool {
	if c.opts.Guard == nil {
		return true
	}
	if err := c.opts.Guard.ValidateDeleteTarget(it.Path); err != nil {
		c.opts.Logger.Error("Refused to delete", "path", it.Path, "error", err)
		stats.recordError(it, fmt.Errorf("%w: %w", ErrRefused, err))
		return false
	}
	return true
}

func (c *Cleaner) run(items []models.CleanItem, sink progress.Sink) models.Report {
	sorted := make([]models.CleanItem, len(items))
	copy(sorted, items)
	// largest first so a huge directory does not start last
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Size > sorted[j].Size })

	stats := &Statistics{}
	c.opts.Logger.Info("Starting cleanup", "total_items", len(sorted), "chunk_size", c.opts.ChunkSize)

	c.mu.RLock()
	p := c.pool
	if p == nil {
		c.mu.RUnlock()
		c.SetThreads(c.opts.Threads)
		c.mu.RLock()
		p = c.pool
	}
	var wg sync.WaitGroup
	for lo := 0; lo < len(sorted); lo += c.opts.ChunkSize {
		hi := min(lo+c.opts.ChunkSize, len(sorted))
		wg.Add(1)
		p.submit(job{chunk: sorted[lo:hi], wg: &wg, run: func(chunk []models.CleanItem) {
			c.processChunk(chunk, stats, sink)
		}})
	}
	wg.Wait()
	c.mu.RUnlock()

	return stats.report(false)
}

func (c *Cleaner) processChunk(chunk []models.CleanItem, stats *Statistics, sink progress.Sink) {
	metrics.WorkerBusy(1)
	defer metrics.WorkerBusy(-1)

	start := time.Now()
	failed := false
	for _, it := range chunk {
		if !c.processItem(it, stats) {
			failed = true
		}
		sink.Increment(1)
	}
	metrics.RecordChunk(failed, time.Since(start))
}

// processItem deletes one item and reports whether it did not fail.
func (c *Cleaner) processItem(it models.CleanItem, stats *Statistics) bool {
	if !c.authorized(it, stats) {
		return false
	}

	c.opts.Limiter.Wait()

	err := c.delete(it)
	switch {
	case err == nil:
		c.opts.Logger.Debug("DELETE", "path", it.Path, "object", it.Kind, "size", it.Size, "pattern", it.Match.Pattern)
		stats.recordSuccess(it)
		metrics.RecordDeletion(it.Kind, it.Size)
		return true
	case errors.Is(err, fs.ErrNotExist):
		// already gone: neither a success nor an error
		c.opts.Logger.Debug("Already deleted", "path", it.Path)
		stats.recordSkipped(it)
		return true
	default:
		c.opts.Logger.Error("Failed to delete", "path", it.Path, "error", err)
		ce := stats.recordError(it, err)
		metrics.RecordCleanError(ce.Kind)
		return false
	}
}

func (c *Cleaner) delete(it models.CleanItem) error {
	switch it.Kind {
	case models.KindDirectory:
		return c.opts.Deleter.RemoveAll(it.Path)
	case models.KindSymlink:
		return c.opts.Deleter.RemoveLink(it.Path)
	default:
		return c.opts.Deleter.Remove(it.Path)
	}
}

// CleanWith runs a one-shot Cleaner built from opts.
func CleanWith(opts Options, items []models.CleanItem, dryRun bool, sink progress.Sink) models.Report {
	c := New(opts)
	defer c.Close()
	return c.Clean(items, dryRun, sink)
}

// Clean runs a one-shot Cleaner with default options against the real
// filesystem.
func Clean(items []models.CleanItem, dryRun bool, sink progress.Sink) models.Report {
	return CleanWith(Options{}, items, dryRun, sink)
}
