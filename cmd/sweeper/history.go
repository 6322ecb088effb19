package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sweeper/internal/config"
	"sweeper/internal/database"
	"sweeper/internal/exitcodes"
)

type historyFlags struct {
	runs    int
	recent  int
	largest int
	stats   bool
	purge   int
	asJSON  bool
}

func newHistoryCommand(g *globalFlags) *cobra.Command {
	f := &historyFlags{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the history of past runs",
		Example: `  sweeper history --runs 10       # last 10 runs
  sweeper history --recent 20     # 20 most recent deleted items
  sweeper history --largest 10    # 10 largest deleted items
  sweeper history --stats         # totals and space freed by category
  sweeper history --purge 90      # drop runs older than 90 days`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(nil)
			if err != nil {
				return err
			}
			cfg, _, _, err := loadConfig(cmd, g, root, config.CLIOverrides{})
			if err != nil {
				return err
			}
			if cfg.History.DatabasePath == "" {
				return withCode(exitcodes.InvalidConfig,
					errors.New("no history database configured (set history.database_path or --history-db)"))
			}
			db, err := database.Open(cfg.History.DatabasePath)
			if err != nil {
				return withCode(exitcodes.RuntimeError, err)
			}
			defer db.Close()

			if err := runHistory(cmd.OutOrStdout(), db, f); err != nil {
				return withCode(exitcodes.RuntimeError, err)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.runs, "runs", 0, "Show the N most recent runs")
	fl.IntVar(&f.recent, "recent", 0, "Show the N most recent item records")
	fl.IntVar(&f.largest, "largest", 0, "Show the N largest deleted items")
	fl.BoolVar(&f.stats, "stats", false, "Show totals")
	fl.IntVar(&f.purge, "purge", 0, "Delete runs older than N days and compact the database")
	fl.BoolVar(&f.asJSON, "json", false, "Output as JSON")
	return cmd
}

func runHistory(w io.Writer, db *database.HistoryDB, f *historyFlags) error {
	switch {
	case f.purge > 0:
		n, err := db.PurgeOlderThan(f.purge)
		if err != nil {
			return err
		}
		if err := db.Vacuum(); err != nil {
			return err
		}
		fmt.Fprintf(w, "Purged %d runs older than %d days\n", n, f.purge)
		return nil
	case f.stats:
		stats, err := db.Stats()
		if err != nil {
			return err
		}
		cats, err := db.DeletionsByCategory()
		if err != nil {
			return err
		}
		if f.asJSON {
			return writeJSON(w, map[string]interface{}{"stats": stats, "categories": cats})
		}
		printHistoryStats(w, stats, cats)
		return nil
	case f.recent > 0:
		records, err := db.RecentDeletions(f.recent)
		if err != nil {
			return err
		}
		return printItems(w, records, f.asJSON)
	case f.largest > 0:
		records, err := db.LargestDeletions(f.largest)
		if err != nil {
			return err
		}
		return printItems(w, records, f.asJSON)
	default:
		limit := f.runs
		if limit <= 0 {
			limit = 10
		}
		runs, err := db.RecentRuns(limit)
		if err != nil {
			return err
		}
		return printRuns(w, runs, f.asJSON)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRuns(w io.Writer, runs []database.RunRecord, asJSON bool) error {
	if asJSON {
		if runs == nil {
			runs = []database.RunRecord{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tMODE\tITEMS\tFREED\tERRORS\tROOT")
	for _, r := range runs {
		mode := "live"
		if r.DryRun {
			mode = "dry-run"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), mode, r.Items, size(r.Bytes), r.Errors+r.ScanErrors, r.Root)
	}
	return tw.Flush()
}

func printItems(w io.Writer, records []database.ItemRecord, asJSON bool) error {
	if asJSON {
		if records == nil {
			records = []database.ItemRecord{}
		}
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tACTION\tKIND\tSIZE\tCATEGORY\tPATH")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Action, r.Kind, size(r.Size), r.Category, r.Path)
	}
	return tw.Flush()
}

func printHistoryStats(w io.Writer, s *database.Stats, cats []database.CategoryTotal) {
	fmt.Fprintf(w, "Runs:          %d (%d dry runs)\n", s.TotalRuns, s.DryRuns)
	fmt.Fprintf(w, "Items deleted: %s\n", humanize.Comma(int64(s.TotalDeletions)))
	fmt.Fprintf(w, "Errors:        %d\n", s.TotalErrors)
	fmt.Fprintf(w, "Space freed:   %s\n", size(s.TotalSpaceFreed))
	fmt.Fprintf(w, "Database size: %s\n", size(s.DatabaseSizeBytes))
	if !s.OldestRun.IsZero() {
		fmt.Fprintf(w, "Period:        %s to %s\n",
			s.OldestRun.Local().Format("2006-01-02"), s.NewestRun.Local().Format("2006-01-02"))
	}
	if len(cats) == 0 {
		return
	}
	fmt.Fprintln(w, "\nBy category:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range cats {
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", c.Category, c.Count, size(c.Bytes))
	}
	_ = tw.Flush()
}
