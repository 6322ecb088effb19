// Package pipeline runs one scan, prune and clean cycle and reports it.
package pipeline

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sweeper/internal/cleanup"
	"sweeper/internal/database"
	"sweeper/internal/metrics"
	"sweeper/internal/models"
	"sweeper/internal/progress"
	"sweeper/internal/prune"
	"sweeper/internal/scan"
)

// State is the phase a Runner is in.
type State int32

const (
	Idle State = iota
	Scanning
	Pruning
	Previewing
	Deleting
	Reporting
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Pruning:
		return "pruning"
	case Previewing:
		return "previewing"
	case Deleting:
		return "deleting"
	case Reporting:
		return "reporting"
	default:
		return "idle"
	}
}

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Recorder persists run history. *database.HistoryDB implements it.
type Recorder interface {
	RecordRun(r database.RunRecord) error
	RecordItems(runID string, items []database.ItemRecord) error
}

// Options configures a Runner.
type Options struct {
	Matcher scan.Classifier
	Scan    scan.Options
	Cleaner *cleanup.Cleaner
	Logger  Logger
	History Recorder // nil disables history

	// OnState is called after every transition.
	OnState func(State)
}

// Outcome is the result of one run.
type Outcome struct {
	RunID  uuid.UUID
	Root   string
	Items  []models.CleanItem // pruned
	Report models.Report
}

// ErrNotPreviewed is returned by Apply for an outcome that is not the
// Runner's pending preview.
var ErrNotPreviewed = errors.New("outcome is not the pending preview")

// Runner drives the per-run state machine. A Runner runs one cycle at a
// time; State may be read from any goroutine.
type Runner struct {
	opts    Options
	state   atomic.Int32
	pending uuid.UUID // run held in Pruning by Preview
}

// New creates a Runner. Without a Cleaner, Apply uses a one-shot default.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Runner{opts: opts}
}

// State returns the current phase.
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) enter(s State) {
	prev := State(r.state.Swap(int32(s)))
	r.transitioned(prev, s)
}

// advance moves from one state to the next only if the Runner is in from.
func (r *Runner) advance(from, to State) bool {
	if !r.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	r.transitioned(from, to)
	return true
}

func (r *Runner) transitioned(from, to State) {
	r.opts.Logger.Debug("state transition", "from", from, "to", to)
	if r.opts.OnState != nil {
		r.opts.OnState(to)
	}
}

// Run scans root, prunes the matches and cleans them. Only construction
// failures such as an unusable root are returned as errors; per-item
// failures are in the report.
func (r *Runner) Run(root string, dryRun bool, sink progress.Sink) (Outcome, error) {
	out, err := r.Preview(root)
	if err != nil {
		return out, err
	}
	return r.Apply(out, dryRun, sink)
}

// Preview scans and prunes without cleaning. The Runner stays in Pruning
// until the outcome is passed to Apply or the run is discarded with
// Discard.
func (r *Runner) Preview(root string) (Outcome, error) {
	out, err := r.scanAndPrune(root)
	if err != nil {
		return out, err
	}
	r.pending = out.RunID
	return out, nil
}

// Discard abandons a pending preview, for example when the user declines
// the confirmation. No history is written.
func (r *Runner) Discard() {
	if r.advance(Pruning, Idle) {
		r.opts.Logger.Debug("preview discarded", "run", r.pending)
		r.pending = uuid.Nil
	}
}

// Apply cleans the items of the pending preview and reports the run. It
// returns ErrNotPreviewed unless out came from the last Preview and the
// Runner is still waiting in Pruning.
func (r *Runner) Apply(out Outcome, dryRun bool, sink progress.Sink) (Outcome, error) {
	if out.RunID == uuid.Nil || out.RunID != r.pending {
		return out, ErrNotPreviewed
	}
	next := Deleting
	if dryRun {
		next = Previewing
	}
	if !r.advance(Pruning, next) {
		return out, fmt.Errorf("%w: runner is %s", ErrNotPreviewed, r.State())
	}
	r.pending = uuid.Nil

	if sink == nil {
		sink = progress.NoOp{}
	}
	sink.SetMessage(fmt.Sprintf("cleaning %d items", len(out.Items)))
	started := time.Now()
	var report models.Report
	if r.opts.Cleaner != nil {
		report = r.opts.Cleaner.Clean(out.Items, dryRun, sink)
	} else {
		report = cleanup.Clean(out.Items, dryRun, sink)
	}
	sink.Finish()

	r.enter(Reporting)
	report.ScanErrors = out.Report.ScanErrors
	report.EntriesScanned = out.Report.EntriesScanned
	report.ScanDuration = out.Report.ScanDuration
	out.Report = report

	metrics.RecordRun(report)
	if r.opts.History != nil {
		if err := r.record(out, started); err != nil {
			r.opts.Logger.Error("history write failed", "run", out.RunID, "error", err)
		}
	}
	r.opts.Logger.Info("run complete", "run", out.RunID, "root", out.Root, "dry_run", dryRun,
		"items", report.ItemsDeleted, "bytes", report.BytesFreed,
		"errors", len(report.Errors), "scan_errors", len(report.ScanErrors))

	r.enter(Idle)
	return out, nil
}

func (r *Runner) scanAndPrune(root string) (Outcome, error) {
	out := Outcome{RunID: uuid.New(), Root: root}

	r.enter(Scanning)
	res, err := scan.NewScanner(r.opts.Matcher, r.opts.Scan).Scan(root)
	if err != nil {
		r.enter(Idle)
		return out, fmt.Errorf("scan %s: %w", root, err)
	}
	out.Root = res.Root
	out.Report = models.Report{
		DryRun:         true,
		ScanErrors:     res.Errors,
		EntriesScanned: res.EntriesScanned,
		ScanDuration:   res.Duration,
	}

	r.enter(Pruning)
	out.Items = prune.Prune(res.Items)
	r.opts.Logger.Debug("pruned", "matched", len(res.Items), "kept", len(out.Items))
	return out, nil
}

func (r *Runner) record(out Outcome, started time.Time) error {
	rep := out.Report
	id := out.RunID.String()
	if err := r.opts.History.RecordRun(database.RunRecord{
		ID:         id,
		StartedAt:  started,
		Root:       out.Root,
		DryRun:     rep.DryRun,
		Items:      rep.ItemsDeleted,
		Bytes:      rep.BytesFreed,
		Errors:     len(rep.Errors),
		ScanErrors: len(rep.ScanErrors),
		Duration:   rep.Duration,
	}); err != nil {
		return err
	}
	return r.opts.History.RecordItems(id, itemRecords(out.Items, rep))
}

// itemRecords builds one row per item. Items that were already gone are
// left out.
func itemRecords(items []models.CleanItem, rep models.Report) []database.ItemRecord {
	failed := make(map[string]string, len(rep.Errors))
	for _, e := range rep.Errors {
		failed[e.Path] = e.Error()
	}
	skipped := make(map[string]bool, len(rep.Skipped))
	for _, p := range rep.Skipped {
		skipped[p] = true
	}

	rows := make([]database.ItemRecord, 0, len(items))
	for _, it := range items {
		switch {
		case rep.DryRun:
			rows = append(rows, database.NewItemRecord(database.ActionDryRun, it, ""))
		case skipped[it.Path]:
		case failed[it.Path] != "":
			rows = append(rows, database.NewItemRecord(database.ActionError, it, failed[it.Path]))
		default:
			rows = append(rows, database.NewItemRecord(database.ActionDelete, it, ""))
		}
	}
	return rows
}
