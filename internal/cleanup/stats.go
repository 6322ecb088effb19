package cleanup

import (
	"sort"
	"sync"
	"sync/atomic"

	"sweeper/internal/models"
)

// Statistics accumulates one run's results. Counters are atomic and
// errors live in a sync.Map keyed by path, so workers never share a lock.
type Statistics struct {
	items    atomic.Int64
	bytes    atomic.Int64
	dirs     atomic.Int64
	files    atomic.Int64
	symlinks atomic.Int64

	errors  sync.Map // path -> models.CleanError
	skipped sync.Map // path -> struct{}
}

// recordSuccess counts it using the size captured at scan time.
func (s *Statistics) recordSuccess(it models.CleanItem) {
	s.items.Add(1)
	s.bytes.Add(it.Size)
	switch it.Kind {
	case models.KindDirectory:
		s.dirs.Add(1)
	case models.KindSymlink:
		s.symlinks.Add(1)
	default:
		s.files.Add(1)
	}
}

func (s *Statistics) recordError(it models.CleanItem, err error) models.CleanError {
	ce := models.NewCleanError(it.Path, err)
	s.errors.Store(it.Path, ce)
	return ce
}

func (s *Statistics) recordSkipped(it models.CleanItem) {
	s.skipped.Store(it.Path, struct{}{})
}

// report snapshots the counters. Errors and skipped paths are sorted by path.
func (s *Statistics) report(dryRun bool) models.Report {
	r := models.Report{
		ItemsDeleted:    int(s.items.Load()),
		BytesFreed:      s.bytes.Load(),
		DirsDeleted:     int(s.dirs.Load()),
		FilesDeleted:    int(s.files.Load()),
		SymlinksDeleted: int(s.symlinks.Load()),
		DryRun:          dryRun,
	}
	s.errors.Range(func(_, v any) bool {
		r.Errors = append(r.Errors, v.(models.CleanError))
		return true
	})
	s.skipped.Range(func(k, _ any) bool {
		r.Skipped = append(r.Skipped, k.(string))
		return true
	})
	sort.Slice(r.Errors, func(i, j int) bool { return r.Errors[i].Path < r.Errors[j].Path })
	sort.Strings(r.Skipped)
	return r
}
