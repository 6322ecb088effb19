package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweeper/internal/models"
)

func newMatcher(t *testing.T, sets ...Set) *Matcher {
	t.Helper()
	m, err := New(DefaultCatalog(), sets...)
	require.NoError(t, err)
	return m
}

func TestClassifyDirectoryAndFilePatterns(t *testing.T) {
	m := newMatcher(t, DefaultCatalog().Set())

	info, ok := m.Classify("a/node_modules", models.KindDirectory)
	require.True(t, ok)
	assert.Equal(t, "node_modules", info.Pattern)
	assert.Equal(t, models.SourceBuiltIn, info.Source)
	assert.Equal(t, models.CategoryDependencies, info.Category)

	info, ok = m.Classify("a/b/server.log", models.KindFile)
	require.True(t, ok)
	assert.Equal(t, "*.log", info.Pattern)
	assert.Equal(t, models.CategoryLogs, info.Category)

	// directory patterns never apply to files and vice versa
	_, ok = m.Classify("a/node_modules", models.KindFile)
	assert.False(t, ok)
	_, ok = m.Classify("a/server.log", models.KindDirectory)
	assert.False(t, ok)

	// symlinks are tested against file patterns
	_, ok = m.Classify("a/latest.log", models.KindSymlink)
	assert.True(t, ok)

	_, ok = m.Classify("src/main.go", models.KindFile)
	assert.False(t, ok)
}

func TestClassifyUnknownHintTestsBoth(t *testing.T) {
	m := newMatcher(t, DefaultCatalog().Set())

	_, ok := m.Classify("dist", models.KindUnknown)
	assert.True(t, ok)
	_, ok = m.Classify("debug.log", models.KindUnknown)
	assert.True(t, ok)
}

func TestExclusionAlwaysWins(t *testing.T) {
	m := newMatcher(t,
		Set{Source: models.SourceBuiltIn, Directories: []string{"node_modules", ".git"}},
		Set{Source: models.SourceCommandLine, Directories: []string{"keep"}, Exclude: []string{"node_modules", ".git"}},
	)

	tests := []struct {
		name string
		path string
		kind models.Kind
	}{
		{"exact basename", "node_modules", models.KindDirectory},
		{"nested", "a/b/node_modules", models.KindDirectory},
		{"dot git", "a/.git", models.KindDirectory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.Classify(tt.path, tt.kind)
			assert.False(t, ok)
			assert.True(t, m.Excluded(tt.path, true))
		})
	}

	// descendants of an excluded directory are excluded as well
	assert.True(t, m.Excluded("a/.git/objects/pack", true))
	assert.False(t, m.Excluded("a/.github", true))

	_, ok := m.Classify("keep", models.KindDirectory)
	assert.True(t, ok)
}

func TestAnchoredExclusion(t *testing.T) {
	m := newMatcher(t, Set{
		Source:      models.SourceUserConfig,
		Directories: []string{"build"},
		Exclude:     []string{"tools/build", "**/vendor/build"},
	})

	assert.True(t, m.Excluded("tools/build", true))
	assert.False(t, m.Excluded("web/tools/build", true))
	assert.True(t, m.Excluded("x/vendor/build", true))

	_, ok := m.Classify("tools/build", models.KindDirectory)
	assert.False(t, ok)
	_, ok = m.Classify("web/tools/build", models.KindDirectory)
	assert.True(t, ok)
}

func TestTieBreakOrder(t *testing.T) {
	m := newMatcher(t,
		Set{Source: models.SourceBuiltIn, Files: []string{"*.log"}},
		Set{Source: models.SourceUserConfig, Files: []string{"*.txt", "app*"}},
		Set{Source: models.SourceCommandLine, Files: []string{"*.tmp", "*.*", "app.log"}},
	)

	info, ok := m.Classify("app.log", models.KindFile)
	require.True(t, ok)
	assert.Equal(t, models.SourceCommandLine, info.Source)
	assert.Equal(t, "*.*", info.Pattern, "lower priority number wins within the same source")
	assert.Equal(t, 1, info.Priority)

	m = newMatcher(t,
		Set{Source: models.SourceBuiltIn, Files: []string{"*.log"}},
		Set{Source: models.SourceUserConfig, Files: []string{"*.txt", "app*"}},
	)
	info, ok = m.Classify("app.log", models.KindFile)
	require.True(t, ok)
	assert.Equal(t, models.SourceUserConfig, info.Source)
	assert.Equal(t, "app*", info.Pattern)
}

func TestMatchInfoBeats(t *testing.T) {
	cli := models.MatchInfo{Source: models.SourceCommandLine, Priority: 9}
	cfg := models.MatchInfo{Source: models.SourceUserConfig, Priority: 0}
	builtin := models.MatchInfo{Source: models.SourceBuiltIn, Priority: 0}

	assert.True(t, cli.Beats(cfg))
	assert.True(t, cfg.Beats(builtin))
	assert.False(t, builtin.Beats(cli))
	assert.True(t, models.MatchInfo{Priority: 1}.Beats(models.MatchInfo{Priority: 2}))
}

func TestMalformedPatternFailsAtConstruction(t *testing.T) {
	tests := []struct {
		name string
		set  Set
	}{
		{"unclosed class dir", Set{Source: models.SourceUserConfig, Directories: []string{"[abc"}}},
		{"unclosed class file", Set{Source: models.SourceCommandLine, Files: []string{"*.[ch"}}},
		{"bad exclude", Set{Source: models.SourceUserConfig, Exclude: []string{"foo["}}},
		{"trailing escape", Set{Source: models.SourceUserConfig, Files: []string{`abc\`}}},
		{"empty", Set{Source: models.SourceUserConfig, Directories: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(DefaultCatalog(), tt.set)
			require.Error(t, err)
			var perr *PatternError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.set.Source, perr.Source)
		})
	}
}

func TestGlobSyntax(t *testing.T) {
	m := newMatcher(t, Set{
		Source: models.SourceUserConfig,
		Files:  []string{"file?.txt", "[!a]*.bak", "report[0-9].csv", "a+b.(1)"},
	})

	cases := map[string]bool{
		"file1.txt":   true,
		"file12.txt":  false,
		"b.bak":       true,
		"a.bak":       false,
		"report7.csv": true,
		"reportX.csv": false,
		"a+b.(1)":     true,
		"aab.(1)":     false,
	}
	for name, want := range cases {
		_, ok := m.Classify(name, models.KindFile)
		assert.Equal(t, want, ok, name)
	}
}

func TestCategoryOf(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, models.CategoryBuildOutputs, c.CategoryOf("dist"))
	assert.Equal(t, models.CategoryCache, c.CategoryOf("__pycache__"))
	assert.Equal(t, models.CategoryIDE, c.CategoryOf(".idea"))
	assert.Equal(t, models.CategoryOther, c.CategoryOf("my-own-thing"))
}

func TestDefaultCatalogIsIndependentValue(t *testing.T) {
	a := DefaultCatalog()
	a.Directories[0].Glob = "mutated"
	b := DefaultCatalog()
	assert.Equal(t, "node_modules", b.Directories[0].Glob)
}

func TestLoadIgnoreFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultIgnoreFile), []byte("keep-me/\n*.keep.log\n"), 0o644))

	m := newMatcher(t, DefaultCatalog().Set())
	m, err := LoadIgnoreFile(m, root, DefaultIgnoreFile)
	require.NoError(t, err)

	_, ok := m.Classify("server.log", models.KindFile)
	assert.True(t, ok)
	_, ok = m.Classify("server.keep.log", models.KindFile)
	assert.False(t, ok)
	assert.True(t, m.Excluded("keep-me", true))
}

func TestLoadIgnoreFileMissing(t *testing.T) {
	m := newMatcher(t, DefaultCatalog().Set())
	got, err := LoadIgnoreFile(m, t.TempDir(), DefaultIgnoreFile)
	require.NoError(t, err)
	assert.Same(t, m, got)
}
