package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sweeper/internal/config"
	"sweeper/internal/exitcodes"
	"sweeper/internal/models"
	"sweeper/internal/pipeline"
)

type listOutput struct {
	Root       string             `json:"root"`
	Items      []models.CleanItem `json:"items"`
	TotalBytes int64              `json:"total_bytes"`
	ScanErrors []models.ScanError `json:"scan_errors"`
}

func newListCommand(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "Show what would be cleaned",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, g, args, config.CLIOverrides{})
			if err != nil {
				return err
			}
			defer a.Close()

			runner := pipeline.New(pipeline.Options{
				Matcher: a.matcher,
				Scan:    a.scanOptions(nil),
				Logger:  a.logger,
			})
			out, err := runner.Preview(a.root)
			if err != nil {
				return withCode(exitcodes.RuntimeError, err)
			}
			runner.Discard()

			w := cmd.OutOrStdout()
			if asJSON {
				items := out.Items
				if items == nil {
					items = []models.CleanItem{}
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(listOutput{
					Root:       out.Root,
					Items:      items,
					TotalBytes: models.TotalSize(items),
					ScanErrors: out.Report.ScanErrors,
				}); err != nil {
					return withCode(exitcodes.RuntimeError, err)
				}
				return nil
			}

			if len(out.Items) == 0 {
				fmt.Fprintln(w, "Nothing to clean.")
				printScanErrors(w, out.Report.ScanErrors)
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tSIZE\tCATEGORY\tPATTERN\tPATH")
			for _, it := range out.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					it.Kind, size(it.Size), it.Match.Category.Label(), it.Match.Pattern, it.Path)
			}
			_ = tw.Flush()
			printSummary(w, out.Items)
			printScanErrors(w, out.Report.ScanErrors)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
