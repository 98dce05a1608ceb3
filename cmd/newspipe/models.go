package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"newspipe/internal/analyzer"
	"newspipe/internal/config"
)

func newModelsCmd(a *app, f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that support generateContent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.readConfigFile(f.configPath)
			if err != nil {
				return err
			}

			cfg.ApplyEnv(a.getenv)

			if cfg.Credentials.GeminiKey == "" {
				return fmt.Errorf("%w: %s", config.ErrMissingCredential, config.EnvGeminiKey)
			}

			names, err := analyzer.ListModels(cmd.Context(), analyzer.GeminiConfig{
				APIKey:   cfg.Credentials.GeminiKey,
				Endpoint: cfg.Analyzer.Endpoint,
			})
			if err != nil {
				return err
			}

			if len(names) == 0 {
				fmt.Fprintln(a.stdout, "⚠️  No models found. Check that the Generative Language API is enabled for this key.")

				return nil
			}

			fmt.Fprintf(a.stdout, "✅ %d models support generateContent:\n", len(names))

			for _, name := range names {
				fmt.Fprintf(a.stdout, "  - %s\n", name)
			}

			return nil
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "newspipe %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
