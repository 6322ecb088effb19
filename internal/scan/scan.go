package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"sweeper/internal/metrics"
	"sweeper/internal/models"
	"sweeper/internal/progress"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Classifier decides whether a relative path is a clean candidate.
// *patterns.Matcher implements it.
type Classifier interface {
	Classify(relPath string, hint models.Kind) (models.MatchInfo, bool)
	Excluded(relPath string, isDir bool) bool
}

// Options controls traversal.
type Options struct {
	// MaxDepth limits classification depth below the root; <= 0 is unlimited.
	// Byte totals under a matched directory are always complete.
	MaxDepth       int
	FollowSymlinks bool
	Workers        int
	Progress       progress.Sink
	Logger         Logger
}

// Result is the output of one scan.
type Result struct {
	Root           string
	Items          []models.CleanItem
	Errors         []models.ScanError
	EntriesScanned int64
	Duration       time.Duration
}

// Scanner walks a tree once and collects matched items.
type Scanner struct {
	classifier Classifier
	opts       Options
}

// NewScanner creates a Scanner. Zero-valued options get defaults.
func NewScanner(c Classifier, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = min(runtime.NumCPU(), 8)
	}
	if opts.Progress == nil {
		opts.Progress = progress.NoOp{}
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Scanner{classifier: c, opts: opts}
}

// Scan is a convenience wrapper around NewScanner(c, opts).Scan(root).
func Scan(root string, c Classifier, opts Options) (Result, error) {
	return NewScanner(c, opts).Scan(root)
}

// Scan walks root. Only an unusable root is returned as an error; every
// per-entry failure is recorded in Result.Errors and the walk continues.
func (s *Scanner) Scan(root string) (Result, error) {
	start := time.Now()

	root, rootInfo, err := resolveRoot(root)
	if err != nil {
		return Result{}, err
	}
	s.opts.Logger.Debug("scan started", "root", root, "workers", s.opts.Workers,
		"max_depth", s.opts.MaxDepth, "follow_symlinks", s.opts.FollowSymlinks)

	first := task{path: root, depth: 0}
	if s.opts.FollowSymlinks {
		first.ancestors = []os.FileInfo{rootInfo}
	}

	stack := newWorkStack()
	stack.push(first)

	parts := make([]partial, s.opts.Workers)
	var wg sync.WaitGroup
	for i := range parts {
		wg.Add(1)
		go func(p *partial) {
			defer wg.Done()
			for {
				t, ok := stack.pop()
				if !ok {
					return
				}
				s.scanDir(t, stack, p)
				stack.done()
			}
		}(&parts[i])
	}
	wg.Wait()

	merged := reduce(parts)
	aggregateSizes(root, merged.items, merged.files)

	sort.Slice(merged.items, func(i, j int) bool { return merged.items[i].Path < merged.items[j].Path })
	sort.Slice(merged.errors, func(i, j int) bool { return merged.errors[i].Path < merged.errors[j].Path })

	res := Result{
		Root:           root,
		Items:          merged.items,
		Errors:         merged.errors,
		EntriesScanned: merged.entries,
		Duration:       time.Since(start),
	}
	metrics.ObserveScan(res.EntriesScanned, len(res.Items), res.Errors, res.Duration)
	s.opts.Logger.Debug("scan complete", "root", root, "entries", res.EntriesScanned,
		"items", len(res.Items), "errors", len(res.Errors), "duration", res.Duration)
	return res, nil
}

func resolveRoot(root string) (string, os.FileInfo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("stat root %s: %w", resolved, err)
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("%w: %s", ErrNotDirectory, resolved)
	}
	return resolved, info, nil
}

func (s *Scanner) scanDir(t task, stack *workStack, p *partial) {
	entries, err := os.ReadDir(t.path)
	if err != nil {
		s.recordErr(p, models.NewScanError(t.path, err))
		// ReadDir returns whatever it read before failing
	}

	for _, e := range entries {
		p.entries++
		full := filepath.Join(t.path, e.Name())
		rel := filepath.Join(t.rel, e.Name())
		typ := e.Type()

		if t.sizeOnly {
			switch {
			case typ.IsDir():
				stack.push(task{path: full, rel: rel, depth: t.depth + 1, sizeOnly: true})
			case typ.IsRegular():
				info, err := e.Info()
				if err != nil {
					s.recordErr(p, models.NewScanError(full, err))
					continue
				}
				p.files = append(p.files, fileRecord{path: full, size: info.Size()})
			}
			continue
		}

		switch {
		case typ&fs.ModeSymlink != 0:
			s.visitSymlink(t, e, full, rel, stack, p)
		case typ.IsDir():
			s.visitDir(t, full, rel, stack, p)
		default:
			match, ok := s.classifier.Classify(rel, models.KindFile)
			if !ok {
				continue
			}
			info, err := e.Info()
			if err != nil {
				s.recordErr(p, models.NewScanError(full, err))
				continue
			}
			s.addItem(p, models.CleanItem{Path: full, Size: info.Size(), Kind: models.KindFile, Match: match})
		}
	}
}

func (s *Scanner) visitDir(parent task, full, rel string, stack *workStack, p *partial) {
	if s.classifier.Excluded(rel, true) {
		return
	}
	depth := parent.depth + 1
	if match, ok := s.classifier.Classify(rel, models.KindDirectory); ok {
		// size is filled in by aggregateSizes once the walk is over
		s.addItem(p, models.CleanItem{Path: full, Kind: models.KindDirectory, Match: match})
		stack.push(task{path: full, rel: rel, depth: depth, sizeOnly: true})
		return
	}
	if !s.descend(depth) {
		return
	}
	next := task{path: full, rel: rel, depth: depth}
	if s.opts.FollowSymlinks {
		info, err := os.Stat(full)
		if err != nil {
			s.recordErr(p, models.NewScanError(full, err))
			return
		}
		next.ancestors = append(parent.ancestors[:len(parent.ancestors):len(parent.ancestors)], info)
	}
	stack.push(next)
}

func (s *Scanner) visitSymlink(parent task, e fs.DirEntry, full, rel string, stack *workStack, p *partial) {
	if s.opts.FollowSymlinks {
		target, err := os.Stat(full)
		if err == nil && target.IsDir() {
			s.followDirLink(parent, e, target, full, rel, stack, p)
			return
		}
		// dangling links and links to files are handled as plain links
	}

	match, ok := s.classifier.Classify(rel, models.KindSymlink)
	if !ok {
		return
	}
	info, err := e.Info()
	if err != nil {
		s.recordErr(p, models.NewScanError(full, err))
		return
	}
	s.addItem(p, models.CleanItem{Path: full, Size: info.Size(), Kind: models.KindSymlink, Match: match})
}

func (s *Scanner) followDirLink(parent task, e fs.DirEntry, target os.FileInfo, full, rel string, stack *workStack, p *partial) {
	if s.classifier.Excluded(rel, true) {
		return
	}
	for _, anc := range parent.ancestors {
		if os.SameFile(anc, target) {
			s.recordErr(p, models.ScanError{
				Path:    full,
				Kind:    models.ErrSymlinkCycle,
				Message: "link points at an ancestor directory",
			})
			return
		}
	}

	if match, ok := s.classifier.Classify(rel, models.KindDirectory); ok {
		// only the link is removed, so only the link's own size counts
		info, err := e.Info()
		if err != nil {
			s.recordErr(p, models.NewScanError(full, err))
			return
		}
		s.addItem(p, models.CleanItem{Path: full, Size: info.Size(), Kind: models.KindSymlink, Match: match})
		return
	}

	depth := parent.depth + 1
	if !s.descend(depth) {
		return
	}
	stack.push(task{
		path:      full,
		rel:       rel,
		depth:     depth,
		ancestors: append(parent.ancestors[:len(parent.ancestors):len(parent.ancestors)], target),
	})
}

func (s *Scanner) descend(depth int) bool {
	return s.opts.MaxDepth <= 0 || depth < s.opts.MaxDepth
}

func (s *Scanner) addItem(p *partial, it models.CleanItem) {
	p.items = append(p.items, it)
	s.opts.Progress.Increment(1)
}

func (s *Scanner) recordErr(p *partial, se models.ScanError) {
	s.opts.Logger.Debug("scan error", "path", se.Path, "kind", se.Kind, "error", se.Message)
	p.errors = append(p.errors, se)
}

// aggregateSizes credits every recorded file to each matched directory that
// is a segment-wise ancestor of it, walking parents up to root.
func aggregateSizes(root string, items []models.CleanItem, files []fileRecord) {
	index := make(map[string]int)
	for i, it := range items {
		if it.Kind == models.KindDirectory {
			index[it.Path] = i
		}
	}
	if len(index) == 0 {
		return
	}
	for _, f := range files {
		for dir := filepath.Dir(f.path); len(dir) >= len(root); dir = filepath.Dir(dir) {
			if i, ok := index[dir]; ok {
				items[i].Size += f.size
			}
			if dir == root || dir == filepath.Dir(dir) {
				break
			}
		}
	}
}
