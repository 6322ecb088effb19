package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sweeper/internal/config"
	"sweeper/internal/exitcodes"
)

func newInitCommand() *cobra.Command {
	var (
		global    bool
		format    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			switch format {
			case "yaml", "yml":
				name = "config.yaml"
			case "toml":
				name = "config.toml"
			default:
				return withCode(exitcodes.InvalidConfig, fmt.Errorf("unknown format %q (want yaml or toml)", format))
			}

			var path string
			if global {
				dir := config.GlobalDir()
				if dir == "" {
					return withCode(exitcodes.RuntimeError, errors.New("cannot determine the user config directory"))
				}
				path = filepath.Join(dir, name)
			} else {
				dir := "."
				if len(args) > 0 {
					dir = args[0]
				}
				path = filepath.Join(dir, ".sweeper"+filepath.Ext(name))
			}

			if _, err := os.Stat(path); err == nil && !overwrite {
				return withCode(exitcodes.InvalidConfig, fmt.Errorf("%s already exists (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return withCode(exitcodes.RuntimeError, err)
			}
			if err := config.Write(path, config.Default()); err != nil {
				return withCode(exitcodes.RuntimeError, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Write the per-user config instead of a project file")
	cmd.Flags().StringVar(&format, "format", "yaml", "File format: yaml or toml")
	cmd.Flags().BoolVar(&overwrite, "force", false, "Overwrite an existing file")
	return cmd
}
