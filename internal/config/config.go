package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"sweeper/internal/models"
	"sweeper/internal/patterns"
)

// DiscoveryNames are the per-project config files Discover looks for, in order.
var DiscoveryNames = []string{".sweeper.yaml", ".sweeper.yml", ".sweeper.toml"}

type PatternsCfg struct {
	Directories []string `yaml:"directories,omitempty" toml:"directories,omitempty" json:"directories"`
	Files       []string `yaml:"files,omitempty" toml:"files,omitempty" json:"files"`
	Exclude     []string `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude"`
}

type TraversalCfg struct {
	MaxDepth       int  `yaml:"max_depth" toml:"max_depth" json:"max_depth"` // 0 = unlimited
	FollowSymlinks bool `yaml:"follow_symlinks" toml:"follow_symlinks" json:"follow_symlinks"`
}

type CleanerCfg struct {
	Threads             int     `yaml:"threads" toml:"threads" json:"threads"`
	ChunkSize           int     `yaml:"chunk_size" toml:"chunk_size" json:"chunk_size"`                                     // Minimum items per worker job
	MaxDeletesPerSecond float64 `yaml:"max_deletes_per_second" toml:"max_deletes_per_second" json:"max_deletes_per_second"` // 0 = unlimited
}

type OptionsCfg struct {
	RequireConfirmation bool   `yaml:"require_confirmation" toml:"require_confirmation" json:"require_confirmation"`
	ShowStatistics      bool   `yaml:"show_statistics" toml:"show_statistics" json:"show_statistics"`
	PreserveEnv         bool   `yaml:"preserve_env" toml:"preserve_env" json:"preserve_env"`
	IgnoreFile          string `yaml:"ignore_file" toml:"ignore_file" json:"ignore_file"`
}

type SafetyCfg struct {
	CheckGitRepo   bool     `yaml:"check_git_repo" toml:"check_git_repo" json:"check_git_repo"`
	MinFreeSpaceGB float64  `yaml:"min_free_space_gb" toml:"min_free_space_gb" json:"min_free_space_gb"`
	ProtectedPaths []string `yaml:"protected_paths,omitempty" toml:"protected_paths,omitempty" json:"protected_paths"`
}

type LoggingCfg struct {
	File         string `yaml:"file" toml:"file" json:"file"`
	Level        string `yaml:"level" toml:"level" json:"level"`
	RotationDays int    `yaml:"rotation_days" toml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type MetricsCfg struct {
	PushgatewayURL string `yaml:"pushgateway_url" toml:"pushgateway_url" json:"pushgateway_url"`
	Job            string `yaml:"job" toml:"job" json:"job"`
	Textfile       string `yaml:"textfile" toml:"textfile" json:"textfile"` // node_exporter textfile collector output
}

type HistoryCfg struct {
	DatabasePath string `yaml:"database_path" toml:"database_path" json:"database_path"` // Empty disables history
}

type Config struct {
	Patterns        PatternsCfg  `yaml:"patterns" toml:"patterns" json:"patterns"`
	BuiltinPatterns bool         `yaml:"builtin_patterns" toml:"builtin_patterns" json:"builtin_patterns"`
	Traversal       TraversalCfg `yaml:"traversal" toml:"traversal" json:"traversal"`
	Cleaner         CleanerCfg   `yaml:"cleaner" toml:"cleaner" json:"cleaner"`
	Options         OptionsCfg   `yaml:"options" toml:"options" json:"options"`
	Safety          SafetyCfg    `yaml:"safety" toml:"safety" json:"safety"`
	Logging         LoggingCfg   `yaml:"logging" toml:"logging" json:"logging"`
	Metrics         MetricsCfg   `yaml:"metrics" toml:"metrics" json:"metrics"`
	History         HistoryCfg   `yaml:"history" toml:"history" json:"history"`
}

var (
	errInvalidDepth     = errors.New("traversal.max_depth cannot be negative")
	errInvalidThreads   = errors.New("cleaner.threads cannot be negative")
	errInvalidChunkSize = errors.New("cleaner.chunk_size cannot be negative")
	errInvalidRate      = errors.New("cleaner.max_deletes_per_second cannot be negative")
	errInvalidFreeSpace = errors.New("safety.min_free_space_gb cannot be negative")
	errInvalidLevel     = errors.New("logging.level must be debug, info, warn or error")
)

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		BuiltinPatterns: true,
		Traversal:       TraversalCfg{MaxDepth: 10},
		Cleaner:         CleanerCfg{Threads: runtime.NumCPU(), ChunkSize: 1},
		Options: OptionsCfg{
			RequireConfirmation: true,
			ShowStatistics:      true,
			IgnoreFile:          patterns.DefaultIgnoreFile,
		},
		Safety:  SafetyCfg{CheckGitRepo: true, MinFreeSpaceGB: 1.0},
		Logging: LoggingCfg{Level: "warn", RotationDays: 30},
		Metrics: MetricsCfg{Job: "sweeper"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values. The decoder is picked by extension: .toml is TOML,
// anything else YAML.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f, isTOML(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(r io.Reader, asTOML bool) (*Config, error) {
	cfg := Default()
	if asTOML {
		if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		return cfg, nil
	}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func (c *Config) validateAndDefault() error {
	if c.Traversal.MaxDepth < 0 {
		return errInvalidDepth
	}
	if c.Cleaner.Threads < 0 {
		return errInvalidThreads
	}
	if c.Cleaner.ChunkSize < 0 {
		return errInvalidChunkSize
	}
	if c.Cleaner.MaxDeletesPerSecond < 0 {
		return errInvalidRate
	}
	if c.Safety.MinFreeSpaceGB < 0 {
		return errInvalidFreeSpace
	}

	if c.Cleaner.Threads == 0 {
		c.Cleaner.Threads = runtime.NumCPU()
	}
	if c.Cleaner.ChunkSize == 0 {
		c.Cleaner.ChunkSize = 1
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "warn"
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", errInvalidLevel, c.Logging.Level)
	}
	// Set defaults for logging
	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30
	}

	if c.Options.IgnoreFile == "" {
		c.Options.IgnoreFile = patterns.DefaultIgnoreFile
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "sweeper"
	}

	c.Logging.File = expandHome(c.Logging.File)
	c.History.DatabasePath = expandHome(c.History.DatabasePath)
	c.Metrics.Textfile = expandHome(c.Metrics.Textfile)
	for i, p := range c.Safety.ProtectedPaths {
		c.Safety.ProtectedPaths[i] = filepath.Clean(expandHome(p))
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Discover searches start and its ancestors for a project config, then the
// user config directory. It returns "" when nothing is found.
func Discover(start string) string {
	dir, err := filepath.Abs(start)
	if err == nil {
		for {
			for _, name := range DiscoveryNames {
				candidate := filepath.Join(dir, name)
				if fileExists(candidate) {
					return candidate
				}
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if global := GlobalDir(); global != "" {
		for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
			candidate := filepath.Join(global, name)
			if fileExists(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// GlobalDir returns $XDG_CONFIG_HOME/sweeper, or the platform equivalent.
func GlobalDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "sweeper")
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// LoadOrDefault loads explicit when set, otherwise the discovered file
// starting at start, otherwise the defaults. It returns the path used, or
// "" for defaults.
func LoadOrDefault(explicit, start string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = Discover(start)
	}
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// CLIOverrides carries command-line values that take precedence over the file.
// Zero values and nil pointers leave the file value alone.
type CLIOverrides struct {
	Include        []string
	Exclude        []string
	PreserveEnv    bool
	NoGitCheck     bool
	Threads        int
	ChunkSize      int
	MaxDepth       *int
	FollowSymlinks bool
	HistoryDB      string
}

// MergeCLI applies o to c and returns the command-line pattern set.
// An include ending in "/" is a directory pattern; otherwise one containing
// "." or "*" is a file pattern, and anything else a directory pattern.
func (c *Config) MergeCLI(o CLIOverrides) (patterns.Set, error) {
	set := patterns.Set{Source: models.SourceCommandLine}
	for _, p := range o.Include {
		switch {
		case strings.HasSuffix(p, "/"):
			set.Directories = appendUnique(set.Directories, strings.TrimRight(p, "/"))
		case strings.ContainsAny(p, ".*"):
			set.Files = appendUnique(set.Files, p)
		default:
			set.Directories = appendUnique(set.Directories, p)
		}
	}
	for _, p := range o.Exclude {
		set.Exclude = appendUnique(set.Exclude, p)
	}

	if o.PreserveEnv {
		c.Options.PreserveEnv = true
	}
	if c.Options.PreserveEnv {
		set.Exclude = appendUnique(set.Exclude, ".env")
		set.Exclude = appendUnique(set.Exclude, ".env.*")
	}
	if o.NoGitCheck {
		c.Safety.CheckGitRepo = false
	}
	if o.Threads != 0 {
		c.Cleaner.Threads = o.Threads
	}
	if o.ChunkSize != 0 {
		c.Cleaner.ChunkSize = o.ChunkSize
	}
	if o.MaxDepth != nil {
		c.Traversal.MaxDepth = *o.MaxDepth
	}
	if o.FollowSymlinks {
		c.Traversal.FollowSymlinks = true
	}
	if o.HistoryDB != "" {
		c.History.DatabasePath = o.HistoryDB
	}
	return set, c.validateAndDefault()
}

// PatternSets returns the configured sources in precedence order:
// built-in (when enabled), then the file's patterns, then cli.
func (c *Config) PatternSets(catalog patterns.Catalog, cli patterns.Set) []patterns.Set {
	var sets []patterns.Set
	if c.BuiltinPatterns {
		sets = append(sets, catalog.Set())
	}
	user := patterns.Set{
		Source:      models.SourceUserConfig,
		Directories: c.Patterns.Directories,
		Files:       c.Patterns.Files,
		Exclude:     c.Patterns.Exclude,
	}
	if !user.Empty() {
		sets = append(sets, user)
	}
	if !cli.Empty() {
		sets = append(sets, cli)
	}
	return sets
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Encode renders c as YAML, or TOML when asTOML is set.
func (c *Config) Encode(asTOML bool) ([]byte, error) {
	if asTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return buf.Bytes(), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Write saves c to path, choosing the format by extension.
func Write(path string, c *Config) error {
	data, err := c.Encode(isTOML(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
