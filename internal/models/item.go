package models

import (
	"fmt"
	"strings"
)

// Kind is the filesystem type of a matched entry.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectory
	KindFile
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "directory", "dir":
		*k = KindDirectory
	case "file":
		*k = KindFile
	case "symlink", "link":
		*k = KindSymlink
	case "unknown", "":
		*k = KindUnknown
	default:
		return fmt.Errorf("unknown kind %q", string(b))
	}
	return nil
}

// Source identifies where a pattern came from. Higher values win ties.
type Source int

const (
	SourceBuiltIn Source = iota
	SourceUserConfig
	SourceCommandLine
)

func (s Source) String() string {
	switch s {
	case SourceUserConfig:
		return "config"
	case SourceCommandLine:
		return "cli"
	default:
		return "builtin"
	}
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "builtin", "":
		*s = SourceBuiltIn
	case "config":
		*s = SourceUserConfig
	case "cli":
		*s = SourceCommandLine
	default:
		return fmt.Errorf("unknown pattern source %q", string(b))
	}
	return nil
}

// Category groups patterns for display and history.
type Category int

const (
	CategoryOther Category = iota
	CategoryDependencies
	CategoryBuildOutputs
	CategoryCache
	CategoryIDE
	CategoryLogs
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryDependencies,
	CategoryBuildOutputs,
	CategoryCache,
	CategoryIDE,
	CategoryLogs,
	CategoryOther,
}

// Label is the short human-readable name.
func (c Category) Label() string {
	switch c {
	case CategoryDependencies:
		return "Dependencies"
	case CategoryBuildOutputs:
		return "Build"
	case CategoryCache:
		return "Cache"
	case CategoryIDE:
		return "IDE"
	case CategoryLogs:
		return "Logs"
	default:
		return "Other"
	}
}

func (c Category) String() string {
	return strings.ToLower(c.Label())
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for _, cat := range Categories {
		if cat.String() == name {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(b))
}

// MatchInfo describes the pattern that selected an item.
type MatchInfo struct {
	Pattern  string   `json:"pattern"`
	Priority int      `json:"priority"`
	Source   Source   `json:"source"`
	Category Category `json:"category"`
}

// Beats reports whether m wins a tie-break against other: the higher source
// wins, then the lower priority number.
func (m MatchInfo) Beats(other MatchInfo) bool {
	if m.Source != other.Source {
		return m.Source > other.Source
	}
	return m.Priority < other.Priority
}

// CleanItem is a filesystem entry selected for deletion.
type CleanItem struct {
	Path  string    `json:"path"`
	Size  int64     `json:"size"`
	Kind  Kind      `json:"kind"`
	Match MatchInfo `json:"pattern"`
}

// TotalSize sums item sizes.
func TotalSize(items []CleanItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Size
	}
	return total
}
