package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"sweeper/internal/models"
	"sweeper/internal/progress"
)

const (
	maxListed = 20 // per kind in the dry-run listing
	maxErrors = 10
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
)

func size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// printDryRun lists what a live run would remove, directories first.
func printDryRun(w io.Writer, items []models.CleanItem) {
	var dirs, files []models.CleanItem
	for _, it := range items {
		if it.Kind == models.KindDirectory {
			dirs = append(dirs, it)
		} else {
			files = append(files, it)
		}
	}
	fmt.Fprintln(w, bold("Dry run: nothing will be deleted."))
	printGroup(w, "Directories", dirs)
	printGroup(w, "Files", files)
	fmt.Fprintln(w)
}

func printGroup(w io.Writer, title string, items []models.CleanItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d, %s):\n", bold(title), len(items), size(models.TotalSize(items)))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, it := range items {
		if i == maxListed {
			break
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", it.Path, size(it.Size), dim(it.Match.Category.Label()))
	}
	_ = tw.Flush()
	if n := len(items) - maxListed; n > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", n)
	}
}

// printSummary is shown before the confirmation prompt.
func printSummary(w io.Writer, items []models.CleanItem) {
	fmt.Fprintf(w, "Found %s items totalling %s.\n",
		bold(humanize.Comma(int64(len(items)))), bold(size(models.TotalSize(items))))
}

// printReport writes the outcome of a run.
func printReport(w io.Writer, r models.Report) {
	verb := "Deleted"
	if r.DryRun {
		verb = "Would delete"
	}
	fmt.Fprintf(w, "%s %s items, freeing %s", green(verb), humanize.Comma(int64(r.ItemsDeleted)), bold(size(r.BytesFreed)))
	fmt.Fprintf(w, " (%d directories, %d files, %d symlinks)\n", r.DirsDeleted, r.FilesDeleted, r.SymlinksDeleted)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%s %d items were already gone\n", dim("Skipped"), len(r.Skipped))
	}
	printErrors(w, r.Errors)
	printScanErrors(w, r.ScanErrors)
}

func printErrors(w io.Writer, errs []models.CleanError) {
	list := make([]error, len(errs))
	for i, e := range errs {
		list[i] = e
	}
	printErrorList(w, "Failed to delete", list)
}

func printScanErrors(w io.Writer, errs []models.ScanError) {
	list := make([]error, len(errs))
	for i, e := range errs {
		list[i] = e
	}
	printErrorList(w, "Could not scan", list)
}

func printErrorList(w io.Writer, title string, errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "%s %d:\n", red(title), len(errs))
	for i, e := range errs {
		if i == maxErrors {
			fmt.Fprintf(w, "  and %d more\n", len(errs)-maxErrors)
			break
		}
		fmt.Fprintf(w, "  %v\n", e)
	}
}

// printStatistics writes the per-category block and timings.
func printStatistics(w io.Writer, rows []progress.TallyRow, r models.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Statistics"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", row.Category.Label(), row.Count, size(row.Bytes))
	}
	fmt.Fprintf(tw, "  Entries scanned\t%s\t\n", humanize.Comma(r.EntriesScanned))
	fmt.Fprintf(tw, "  Scan time\t%s\t\n", r.ScanDuration.Round(time.Millisecond))
	fmt.Fprintf(tw, "  Clean time\t%s\t\n", r.Duration.Round(time.Millisecond))
	if !r.DryRun {
		fmt.Fprintf(tw, "  Throughput\t%s/s\t\n", size(int64(r.Throughput())))
	}
	_ = tw.Flush()
}
