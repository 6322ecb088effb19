package patterns

import (
	"fmt"
	"path"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"

	"sweeper/internal/models"
)

// PatternError reports a glob that failed to compile.
type PatternError struct {
	Pattern string
	Source  models.Source
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Source, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

type rule struct {
	glob *glob
	info models.MatchInfo
}

// Matcher classifies relative paths against compiled pattern sets.
// It is immutable after New and safe for concurrent use.
type Matcher struct {
	dirs     []rule
	files    []rule
	excludes []*glob

	ignoreRoot string
	ignore     gitignore.IgnoreMatcher
}

// New compiles every pattern in sets. Categories are looked up in catalog.
// Priority is the pattern's position within its own list.
func New(catalog Catalog, sets ...Set) (*Matcher, error) {
	m := &Matcher{}
	for _, s := range sets {
		dirs, err := compileRules(catalog, s.Source, s.Directories)
		if err != nil {
			return nil, err
		}
		files, err := compileRules(catalog, s.Source, s.Files)
		if err != nil {
			return nil, err
		}
		m.dirs = append(m.dirs, dirs...)
		m.files = append(m.files, files...)

		for _, p := range s.Exclude {
			g, err := compileExclude(p)
			if err != nil {
				return nil, &PatternError{Pattern: p, Source: s.Source, Err: err}
			}
			m.excludes = append(m.excludes, g)
		}
	}
	return m, nil
}

func compileRules(catalog Catalog, src models.Source, globs []string) ([]rule, error) {
	out := make([]rule, 0, len(globs))
	for i, p := range globs {
		g, err := compileName(p)
		if err != nil {
			return nil, &PatternError{Pattern: p, Source: src, Err: err}
		}
		out = append(out, rule{
			glob: g,
			info: models.MatchInfo{
				Pattern:  p,
				Priority: i,
				Source:   src,
				Category: catalog.CategoryOf(p),
			},
		})
	}
	return out, nil
}

// WithIgnore returns a copy of m that also excludes whatever ig matches.
// Paths handed to ig are joined onto root.
func (m *Matcher) WithIgnore(root string, ig gitignore.IgnoreMatcher) *Matcher {
	cp := *m
	cp.ignoreRoot = root
	cp.ignore = ig
	return &cp
}

// Excluded reports whether relPath or any of its ancestors is excluded.
func (m *Matcher) Excluded(relPath string, isDir bool) bool {
	rel := filepath.ToSlash(relPath)
	for _, g := range m.excludes {
		if g.match(rel) {
			return true
		}
	}
	if m.ignore != nil {
		return m.ignore.Match(filepath.Join(m.ignoreRoot, relPath), isDir)
	}
	return false
}

// Classify returns the winning match for relPath, or false when nothing
// matches or the path is excluded. hint selects which pattern lists apply;
// KindUnknown tests both directory and file patterns.
func (m *Matcher) Classify(relPath string, hint models.Kind) (models.MatchInfo, bool) {
	if m.Excluded(relPath, hint == models.KindDirectory) {
		return models.MatchInfo{}, false
	}

	name := path.Base(filepath.ToSlash(relPath))
	var best models.MatchInfo
	found := false
	consider := func(rules []rule) {
		for _, r := range rules {
			if !r.glob.match(name) {
				continue
			}
			if !found || r.info.Beats(best) {
				best = r.info
				found = true
			}
		}
	}

	switch hint {
	case models.KindDirectory:
		consider(m.dirs)
	case models.KindFile, models.KindSymlink:
		consider(m.files)
	default:
		consider(m.dirs)
		consider(m.files)
	}
	return best, found
}
