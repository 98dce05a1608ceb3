package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newspipe/pkg/metadata"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect generated reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <report.md>",
		Short: "Check that a report has not been edited since it was generated",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}

			stamp, err := metadata.Verify(string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			fmt.Fprintf(a.stdout, "✅ %s is intact (run %s, topic %q, generated %s)\n",
				args[0], stamp.RunID, stamp.Topic, stamp.GeneratedAt.Format("2006-01-02 15:04 MST"))

			return nil
		},
	})

	return cmd
}
