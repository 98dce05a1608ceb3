package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newspipe/internal/config"
)

// ErrConfigExists is returned by config init when the target exists.
var ErrConfigExists = errors.New("config file already exists")

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default config to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
			}

			if err := config.Default().SaveConfig(path); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "✅ Wrote default config to %s\n", path)
			fmt.Fprintf(a.stdout, "   Credentials are read from %s, %s and %s.\n",
				config.EnvNewsAPIKey, config.EnvGeminiKey, config.EnvOpenRouterKey)

			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)

	return cmd
}
