// Package prune removes redundant work from a candidate list: when a
// directory is being removed, nothing underneath it needs its own delete.
package prune

import (
	"path/filepath"
	"sort"
	"strings"

	"sweeper/internal/models"
)

// Prune returns a new list holding only the items with no kept ancestor in
// the list. Exact duplicate paths keep their first occurrence. The input
// slice is not modified.
func Prune(items []models.CleanItem) []models.CleanItem {
	sorted := make([]models.CleanItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := depth(sorted[i].Path), depth(sorted[j].Path)
		if di != dj {
			return di < dj
		}
		return sorted[i].Path < sorted[j].Path
	})

	kept := make(map[string]struct{}, len(sorted))
	out := make([]models.CleanItem, 0, len(sorted))
	for _, it := range sorted {
		p := filepath.Clean(it.Path)
		if _, dup := kept[p]; dup {
			continue
		}
		if hasKeptAncestor(p, kept) {
			continue
		}
		kept[p] = struct{}{}
		out = append(out, it)
	}
	return out
}

func hasKeptAncestor(p string, kept map[string]struct{}) bool {
	for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
		if _, ok := kept[dir]; ok {
			return true
		}
		if dir == filepath.Dir(dir) {
			return false
		}
	}
}

// IsAncestor reports whether a is a proper ancestor of b, comparing whole
// path segments: /x/a is an ancestor of /x/a/b but not of /x/ab.
func IsAncestor(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b {
		return false
	}
	if strings.HasSuffix(a, string(filepath.Separator)) {
		// only a filesystem root keeps its separator after Clean
		return strings.HasPrefix(b, a)
	}
	return strings.HasPrefix(b, a+string(filepath.Separator))
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(filepath.Separator))
}
