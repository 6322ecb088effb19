package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sweeper/internal/config"
	"sweeper/internal/database"
	"sweeper/internal/exitcodes"
	"sweeper/internal/metrics"
	"sweeper/internal/models"
	"sweeper/internal/pipeline"
	"sweeper/internal/progress"
	"sweeper/internal/safety"
)

type cleanFlags struct {
	dryRun     bool
	yes        bool
	chunkSize  int
	noProgress bool
	force      bool
	noGitCheck bool
	stats      bool
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	f := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "sweeper [path]",
		Short: "Remove dependency, build and cache directories from a project tree",
		Long: `sweeper scans a directory tree for regenerable artifacts such as
node_modules, build outputs, caches and logs, and deletes them in parallel.

Run with --dry-run first to see what would be removed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, g, f, args)
		},
	}
	g.register(cmd)

	fl := cmd.Flags()
	fl.BoolVarP(&f.dryRun, "dry-run", "n", false, "Show what would be deleted without deleting")
	fl.BoolVarP(&f.yes, "yes", "y", false, "Do not ask for confirmation")
	fl.IntVar(&f.chunkSize, "chunk-size", 0, "Minimum items per worker job")
	fl.BoolVar(&f.noProgress, "no-progress", false, "Disable progress output")
	fl.BoolVar(&f.force, "force", false, "Skip pre-flight safety checks")
	fl.BoolVar(&f.noGitCheck, "no-git-check", false, "Allow cleaning inside a git repository")
	fl.BoolVar(&f.stats, "stats", false, "Print per-category statistics")

	cmd.AddCommand(
		newListCommand(g),
		newInitCommand(),
		newConfigCommand(g),
		newHistoryCommand(g),
	)
	return cmd
}

func runClean(cmd *cobra.Command, g *globalFlags, f *cleanFlags, args []string) error {
	a, err := setup(cmd, g, args, config.CLIOverrides{
		ChunkSize:  f.chunkSize,
		NoGitCheck: f.noGitCheck,
	})
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	if err := preflight(a, f.force); err != nil {
		return err
	}

	var history pipeline.Recorder
	if path := a.cfg.History.DatabasePath; path != "" {
		db, err := database.Open(path)
		if err != nil {
			return withCode(exitcodes.RuntimeError, err)
		}
		defer db.Close()
		history = db
	}

	showProgress := !g.quiet && !f.noProgress
	scanSink := progress.Sink(progress.NoOp{})
	if showProgress {
		scanSink = progress.New(progress.Options{
			Writer:      cmd.ErrOrStderr(),
			Total:       -1,
			Description: "scanning",
			Style:       progress.StyleCompact,
		})
	}

	cleaner := a.newCleaner(f.force)
	defer cleaner.Close()
	runner := pipeline.New(pipeline.Options{
		Matcher: a.matcher,
		Scan:    a.scanOptions(scanSink),
		Cleaner: cleaner,
		Logger:  a.logger,
		History: history,
	})

	preview, err := runner.Preview(a.root)
	scanSink.Finish()
	if err != nil {
		return withCode(exitcodes.RuntimeError, err)
	}

	if len(preview.Items) == 0 {
		// still reported so the run lands in metrics and history
		result, err := runner.Apply(preview, f.dryRun, nil)
		if err != nil {
			return withCode(exitcodes.RuntimeError, err)
		}
		exportMetrics(a)
		if !g.quiet {
			fmt.Fprintln(out, "Nothing to clean.")
		}
		printScanErrors(out, result.Report.ScanErrors)
		return exitForReport(result.Report)
	}

	if f.dryRun {
		if !g.quiet {
			printDryRun(out, preview.Items)
		}
	} else if needsConfirmation(a.cfg, f, cmd.InOrStdin()) {
		printSummary(out, preview.Items)
		ok, err := confirm(cmd.InOrStdin(), out, "Delete these items?")
		if err != nil {
			runner.Discard()
			return withCode(exitcodes.RuntimeError, err)
		}
		if !ok {
			runner.Discard()
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	tally := progress.NewTally()
	tally.AddAll(preview.Items)
	showStats := f.stats || a.cfg.Options.ShowStatistics
	var sink progress.Sink = progress.NoOp{}
	if showProgress && !f.dryRun {
		opts := progress.Options{
			Writer:      cmd.ErrOrStderr(),
			Total:       int64(len(preview.Items)),
			Description: "cleaning",
		}
		if !showStats {
			opts.Tally = tally
		}
		sink = progress.New(opts)
	}

	result, err := runner.Apply(preview, f.dryRun, sink)
	if err != nil {
		return withCode(exitcodes.RuntimeError, err)
	}
	exportMetrics(a)

	if !g.quiet {
		printReport(out, result.Report)
		if showStats {
			printStatistics(out, tally.Rows(), result.Report)
		}
	} else {
		printErrors(out, result.Report.Errors)
	}
	return exitForReport(result.Report)
}

// preflight runs the pre-flight checks, or only logs them with force.
func preflight(a *app, force bool) error {
	err := safety.Preflight(a.root, safety.PreflightOptions{
		CheckGit:     a.cfg.Safety.CheckGitRepo,
		MinFreeBytes: uint64(a.cfg.Safety.MinFreeSpaceGB * safety.GB),
		Protected:    a.cfg.Safety.ProtectedPaths,
	})
	if err == nil {
		return nil
	}
	safetyErr := errors.Is(err, safety.ErrProtectedPath) ||
		errors.Is(err, safety.ErrInsideProtectedPath) ||
		errors.Is(err, safety.ErrInsideGitRepo) ||
		errors.Is(err, safety.ErrInsufficientSpace)
	if !safetyErr {
		return withCode(exitcodes.RuntimeError, err)
	}
	// a protected root is refused even with --force
	if force && !errors.Is(err, safety.ErrProtectedPath) {
		a.logger.Warn("pre-flight check overridden", "error", err)
		return nil
	}
	return withCode(exitcodes.SafetyViolation, err)
}

func needsConfirmation(cfg *config.Config, f *cleanFlags, in io.Reader) bool {
	if f.yes || !cfg.Options.RequireConfirmation {
		return false
	}
	file, ok := in.(*os.File)
	return ok && progress.IsTTY(file)
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func exportMetrics(a *app) {
	if url := a.cfg.Metrics.PushgatewayURL; url != "" {
		if err := metrics.Push(url, a.cfg.Metrics.Job); err != nil {
			a.logger.Warn("metrics push failed", "error", err)
		}
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("metrics textfile failed", "error", err)
		}
	}
}

func exitForReport(r models.Report) error {
	if r.HasErrors() {
		return withCode(exitcodes.Failure, nil)
	}
	return nil
}
