package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sweeper/internal/config"
	"sweeper/internal/exitcodes"
)

func newConfigCommand(g *globalFlags) *cobra.Command {
	var asTOML bool
	cmd := &cobra.Command{
		Use:   "config [path]",
		Short: "Print the effective configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(args)
			if err != nil {
				return err
			}
			cfg, path, _, err := loadConfig(cmd, g, root, config.CLIOverrides{})
			if err != nil {
				return err
			}
			data, err := cfg.Encode(asTOML)
			if err != nil {
				return withCode(exitcodes.RuntimeError, err)
			}
			w := cmd.OutOrStdout()
			if path == "" {
				path = "built-in defaults"
			}
			fmt.Fprintf(w, "# source: %s\n", path)
			_, err = w.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&asTOML, "toml", false, "Print as TOML")
	return cmd
}
