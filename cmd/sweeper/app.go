package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sweeper/internal/cleanup"
	"sweeper/internal/config"
	"sweeper/internal/exitcodes"
	"sweeper/internal/limiter"
	"sweeper/internal/logging"
	"sweeper/internal/patterns"
	"sweeper/internal/progress"
	"sweeper/internal/safety"
	"sweeper/internal/scan"
)

// globalFlags are shared by every command that loads a configuration.
type globalFlags struct {
	configPath     string
	include        []string
	exclude        []string
	preserveEnv    bool
	threads        int
	maxDepth       int
	followSymlinks bool
	historyDB      string
	quiet          bool
	verbose        bool
}

func (g *globalFlags) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "", "Config file (default: discovered .sweeper.yaml or the global config)")
	f.StringArrayVarP(&g.include, "include", "i", nil, "Extra pattern to clean; a trailing / marks a directory (repeatable)")
	f.StringArrayVarP(&g.exclude, "exclude", "e", nil, "Pattern to keep (repeatable)")
	f.BoolVar(&g.preserveEnv, "preserve-env", false, "Never touch .env and .env.* files")
	f.IntVarP(&g.threads, "threads", "j", 0, "Worker threads (default: config or CPU count)")
	f.IntVar(&g.maxDepth, "max-depth", 0, "Maximum scan depth; 0 is unlimited")
	f.BoolVar(&g.followSymlinks, "follow-symlinks", false, "Follow directory symlinks while scanning")
	f.StringVar(&g.historyDB, "history-db", "", "SQLite history database")
	f.BoolVarP(&g.quiet, "quiet", "q", false, "Only print errors")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging")
}

// app is the state a command builds from flags and config.
type app struct {
	root    string
	cfg     *config.Config
	cfgPath string
	logger  *logging.Leveled
	closer  io.Closer
	matcher *patterns.Matcher
}

func (a *app) Close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// rootArg resolves the optional path argument to an absolute directory.
func rootArg(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", withCode(exitcodes.RuntimeError, fmt.Errorf("resolve %s: %w", root, err))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", withCode(exitcodes.RuntimeError, err)
	}
	if !info.IsDir() {
		return "", withCode(exitcodes.RuntimeError, fmt.Errorf("%s: %w", abs, scan.ErrNotDirectory))
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// loadConfig reads the configuration and applies the command line to it.
func loadConfig(cmd *cobra.Command, g *globalFlags, root string, extra config.CLIOverrides) (*config.Config, string, patterns.Set, error) {
	cfg, path, err := config.LoadOrDefault(g.configPath, root)
	if err != nil {
		return nil, path, patterns.Set{}, withCode(exitcodes.InvalidConfig, err)
	}
	o := extra
	o.Include = g.include
	o.Exclude = g.exclude
	o.PreserveEnv = g.preserveEnv
	o.Threads = g.threads
	o.FollowSymlinks = g.followSymlinks
	o.HistoryDB = g.historyDB
	if cmd.Flags().Changed("max-depth") {
		depth := g.maxDepth
		o.MaxDepth = &depth
	}
	set, err := cfg.MergeCLI(o)
	if err != nil {
		return nil, path, patterns.Set{}, withCode(exitcodes.InvalidConfig, err)
	}
	return cfg, path, set, nil
}

// setup builds the app for commands that scan.
func setup(cmd *cobra.Command, g *globalFlags, args []string, extra config.CLIOverrides) (*app, error) {
	root, err := rootArg(args)
	if err != nil {
		return nil, err
	}
	cfg, cfgPath, cli, err := loadConfig(cmd, g, root, extra)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, withCode(exitcodes.InvalidConfig, err)
	}
	if g.verbose {
		level = logging.LevelDebug
	} else if g.quiet {
		level = logging.LevelError
	}
	l, closer, err := logging.New(logging.Config{
		File:         cfg.Logging.File,
		Level:        level.String(),
		RotationDays: cfg.Logging.RotationDays,
		Stderr:       cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, withCode(exitcodes.RuntimeError, err)
	}
	a := &app{
		root:    root,
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  logging.NewLeveled(l, level),
		closer:  closer,
	}
	if cfgPath != "" {
		a.logger.Debug("config loaded", "path", cfgPath)
	}

	catalog := patterns.DefaultCatalog()
	m, err := patterns.New(catalog, cfg.PatternSets(catalog, cli)...)
	if err != nil {
		a.Close()
		return nil, withCode(exitcodes.InvalidConfig, err)
	}
	m, err = patterns.LoadIgnoreFile(m, root, cfg.Options.IgnoreFile)
	if err != nil {
		a.Close()
		return nil, withCode(exitcodes.InvalidConfig, err)
	}
	a.matcher = m
	return a, nil
}

func (a *app) scanOptions(sink progress.Sink) scan.Options {
	return scan.Options{
		MaxDepth:       a.cfg.Traversal.MaxDepth,
		FollowSymlinks: a.cfg.Traversal.FollowSymlinks,
		Progress:       sink,
		Logger:         a.logger,
	}
}

// newCleaner builds the cleaner for the root. With force, a root inside a
// protected directory was accepted by pre-flight and its items are
// validated against the root alone.
func (a *app) newCleaner(force bool) *cleanup.Cleaner {
	guard := safety.NewValidator([]string{a.root}, a.cfg.Safety.ProtectedPaths)
	if force {
		guard.TrustRoot(a.root)
	}
	return cleanup.New(cleanup.Options{
		Threads:   a.cfg.Cleaner.Threads,
		ChunkSize: a.cfg.Cleaner.ChunkSize,
		Guard:     guard,
		Limiter:   limiter.NewDeleteLimiter(a.cfg.Cleaner.MaxDeletesPerSecond),
		Logger:    a.logger,
	})
}
