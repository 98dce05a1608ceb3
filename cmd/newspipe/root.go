package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"newspipe/internal/analyzer"
	"newspipe/internal/config"
	"newspipe/internal/crawler"
	"newspipe/internal/output"
	"newspipe/internal/pipeline"
	"newspipe/internal/validator"
)

func newRootCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:           "newspipe",
		Short:         "Fetch, analyze and cross-check news articles",
		Long:          "newspipe fetches recent articles on a topic, asks Gemini for a gist, sentiment and tone, has a second model check that analysis, and writes JSON results plus a markdown report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPipeline(cmd, f)
		},
	}

	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVar(&f.configPath, "config", "", "path to YAML config file (default ./"+DefaultConfigFile+" if present)")
	cmd.Flags().StringVarP(&f.topic, "topic", "t", config.DefaultTopic, "search topic")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", config.DefaultLimit, "maximum number of articles to process")
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", config.DefaultOutputDir, "directory for the result files")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.noValidate, "no-validate", false, "skip the second-model validation stage")

	cmd.AddCommand(newModelsCmd(a, &f))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newReportCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

func (a *app) runPipeline(cmd *cobra.Command, f runFlags) error {
	cfg, err := a.loadConfig(f, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	log := a.newLog(cfg.Logging.Level, a.stderr)
	ctx := cmd.Context()

	gen, err := analyzer.NewGeminiGenerator(ctx, analyzer.GeminiConfig{
		APIKey:   cfg.Credentials.GeminiKey,
		Model:    cfg.Analyzer.Model,
		Endpoint: cfg.Analyzer.Endpoint,
		Timeout:  cfg.Analyzer.GetTimeout(),
	})
	if err != nil {
		return err
	}

	log.Info("🤖 Analyzer ready", "model", gen.ModelName())

	// A nil interface disables validation; a typed nil would not.
	var val pipeline.Validator

	if cfg.Validator.Enabled {
		v := validator.New(validator.Config{
			APIKey:          cfg.Credentials.OpenRouterKey,
			BaseURL:         cfg.Validator.BaseURL,
			Model:           cfg.Validator.Model,
			Referer:         cfg.Validator.Referer,
			Title:           cfg.Validator.Title,
			Temperature:     cfg.Validator.Temperature,
			MaxExcerptChars: cfg.Validator.MaxExcerptChars,
			Timeout:         cfg.Validator.GetTimeout(),
		}, log)
		val = v

		log.Info("🔎 Validator ready", "model", v.ModelName(), "enabled", v.Enabled())
	} else {
		log.Info("🔎 Validation disabled")
	}

	orch := pipeline.New(
		crawler.NewClient(cfg.Fetcher, cfg.Credentials.NewsAPIKey, log),
		analyzer.New(gen, cfg.Analyzer.MinTextLength, log),
		val,
		log,
		pipeline.WithCourtesyDelay(cfg.CourtesyDelay()),
	)

	out, runErr := orch.Run(ctx, cfg.Pipeline.Topic, cfg.Pipeline.Limit)
	if errors.Is(runErr, pipeline.ErrNoArticles) {
		return runErr
	}

	log.Info("Phase 3: Saving results...")

	sink := output.NewSink(cfg.Output, log)
	saveErr := sink.Save(out)

	fmt.Fprintln(a.stdout, renderSummary(out, sink.Paths()))

	return errors.Join(runErr, saveErr)
}
