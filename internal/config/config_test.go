package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweeper/internal/models"
	"sweeper/internal/patterns"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.True(t, c.BuiltinPatterns)
	assert.Equal(t, 10, c.Traversal.MaxDepth)
	assert.Equal(t, runtime.NumCPU(), c.Cleaner.Threads)
	assert.Equal(t, 1, c.Cleaner.ChunkSize)
	assert.True(t, c.Options.RequireConfirmation)
	assert.True(t, c.Options.ShowStatistics)
	assert.True(t, c.Safety.CheckGitRepo)
	assert.Equal(t, 1.0, c.Safety.MinFreeSpaceGB)
	assert.Equal(t, "warn", c.Logging.Level)
	assert.Equal(t, 30, c.Logging.RotationDays)
	assert.Equal(t, ".sweeperignore", c.Options.IgnoreFile)
	assert.Empty(t, c.History.DatabasePath)
}

func TestLoadYAMLKeepsDefaultsForMissingKeys(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "sweeper.yaml", `
patterns:
  directories: [generated]
  files: ["*.bak"]
  exclude: [keep]
traversal:
  max_depth: 4
options:
  require_confirmation: false
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, []string{"generated"}, c.Patterns.Directories)
	assert.Equal(t, []string{"*.bak"}, c.Patterns.Files)
	assert.Equal(t, []string{"keep"}, c.Patterns.Exclude)
	assert.Equal(t, 4, c.Traversal.MaxDepth)
	assert.False(t, c.Options.RequireConfirmation)

	assert.True(t, c.Options.ShowStatistics)
	assert.True(t, c.Safety.CheckGitRepo)
	assert.True(t, c.BuiltinPatterns)
}

func TestLoadTOML(t *testing.T) {
	p := writeConfig(t, t.TempDir(), ".sweeper.toml", `
builtin_patterns = false

[patterns]
directories = ["out"]
exclude = ["vendor"]

[cleaner]
threads = 3
max_deletes_per_second = 50.0

[safety]
check_git_repo = false
min_free_space_gb = 0.5
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.False(t, c.BuiltinPatterns)
	assert.Equal(t, []string{"out"}, c.Patterns.Directories)
	assert.Equal(t, 3, c.Cleaner.Threads)
	assert.Equal(t, 50.0, c.Cleaner.MaxDeletesPerSecond)
	assert.False(t, c.Safety.CheckGitRepo)
	assert.Equal(t, 0.5, c.Safety.MinFreeSpaceGB)
	assert.Equal(t, 10, c.Traversal.MaxDepth)
}

func TestLoadEmptyFile(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "empty.yaml", "")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"negative depth", "traversal:\n  max_depth: -1\n", errInvalidDepth},
		{"negative threads", "cleaner:\n  threads: -2\n", errInvalidThreads},
		{"negative chunk", "cleaner:\n  chunk_size: -1\n", errInvalidChunkSize},
		{"negative rate", "cleaner:\n  max_deletes_per_second: -5\n", errInvalidRate},
		{"negative free space", "safety:\n  min_free_space_gb: -1\n", errInvalidFreeSpace},
		{"bad level", "logging:\n  level: loud\n", errInvalidLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeConfig(t, t.TempDir(), "c.yaml", tt.body)
			_, err := Load(p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadRejectsUnknownYAMLKeys(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "c.yaml", "paterns:\n  files: [x]\n")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestZeroValuesAreDefaulted(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "c.yaml", "cleaner:\n  threads: 0\n  chunk_size: 0\nlogging:\n  rotation_days: 0\n")
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), c.Cleaner.Threads)
	assert.Equal(t, 1, c.Cleaner.ChunkSize)
	assert.Equal(t, 30, c.Logging.RotationDays)
}

func TestDiscoverSearchesUpward(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Empty(t, Discover(deep))

	want := writeConfig(t, filepath.Join(root, "a"), ".sweeper.yml", "")
	assert.Equal(t, want, Discover(deep))

	// a closer file wins
	closer := writeConfig(t, filepath.Join(root, "a", "b"), ".sweeper.toml", "")
	assert.Equal(t, closer, Discover(deep))
}

func TestDiscoverFallsBackToGlobal(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is honoured on linux only")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "sweeper"), 0o755))
	want := writeConfig(t, filepath.Join(xdg, "sweeper"), "config.yaml", "")

	assert.Equal(t, want, Discover(t.TempDir()))
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	c, used, err := LoadOrDefault("", dir)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Default(), c)

	p := writeConfig(t, dir, ".sweeper.yaml", "traversal:\n  max_depth: 2\n")
	c, used, err = LoadOrDefault("", dir)
	require.NoError(t, err)
	assert.Equal(t, p, used)
	assert.Equal(t, 2, c.Traversal.MaxDepth)

	_, _, err = LoadOrDefault(filepath.Join(dir, "explicit-missing.yaml"), dir)
	assert.Error(t, err)
}

func TestMergeCLI(t *testing.T) {
	c := Default()
	depth := 0
	set, err := c.MergeCLI(CLIOverrides{
		Include:     []string{"generated/", "tmp", "*.orig", "notes.txt", "tmp"},
		Exclude:     []string{"keep", "keep"},
		PreserveEnv: true,
		NoGitCheck:  true,
		Threads:     3,
		MaxDepth:    &depth,
		HistoryDB:   "/tmp/h.db",
	})
	require.NoError(t, err)

	assert.Equal(t, models.SourceCommandLine, set.Source)
	assert.Equal(t, []string{"generated", "tmp"}, set.Directories)
	assert.Equal(t, []string{"*.orig", "notes.txt"}, set.Files)
	assert.Equal(t, []string{"keep", ".env", ".env.*"}, set.Exclude)

	assert.Equal(t, 3, c.Cleaner.Threads)
	assert.Equal(t, 0, c.Traversal.MaxDepth)
	assert.False(t, c.Safety.CheckGitRepo)
	assert.Equal(t, "/tmp/h.db", c.History.DatabasePath)
}

func TestMergeCLIPreserveEnvFromFile(t *testing.T) {
	c := Default()
	c.Options.PreserveEnv = true
	set, err := c.MergeCLI(CLIOverrides{})
	require.NoError(t, err)
	assert.Equal(t, []string{".env", ".env.*"}, set.Exclude)
}

func TestMergeCLIValidates(t *testing.T) {
	c := Default()
	depth := -1
	_, err := c.MergeCLI(CLIOverrides{MaxDepth: &depth})
	assert.ErrorIs(t, err, errInvalidDepth)
}

func TestPatternSets(t *testing.T) {
	catalog := patterns.DefaultCatalog()
	c := Default()
	c.Patterns.Files = []string{"*.bak"}

	sets := c.PatternSets(catalog, patterns.Set{Source: models.SourceCommandLine, Directories: []string{"x"}})
	require.Len(t, sets, 3)
	assert.Equal(t, models.SourceBuiltIn, sets[0].Source)
	assert.Equal(t, models.SourceUserConfig, sets[1].Source)
	assert.Equal(t, models.SourceCommandLine, sets[2].Source)

	c.BuiltinPatterns = false
	sets = c.PatternSets(catalog, patterns.Set{Source: models.SourceCommandLine})
	require.Len(t, sets, 1)
	assert.Equal(t, models.SourceUserConfig, sets[0].Source)
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.Patterns.Directories = []string{"gen"}
	c.Cleaner.MaxDeletesPerSecond = 12

	for _, name := range []string{"out/config.yaml", "out/config.toml"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			require.NoError(t, Write(p, c))
			got, err := Load(p)
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}
