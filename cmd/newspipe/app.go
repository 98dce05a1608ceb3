package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"newspipe/internal/config"
	"newspipe/internal/logger"
)

// DefaultConfigFile is loaded when --config is not given and the file exists.
const DefaultConfigFile = "newspipe.yaml"

// app carries the process environment so commands can be tested in-process.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	newLog func(level string, w io.Writer) *logger.Logger
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		newLog: logger.NewLoggerWithWriter,
	}
}

// runFlags are the root command's overrides.
type runFlags struct {
	configPath string
	topic      string
	outputDir  string
	logLevel   string
	limit      int
	noValidate bool
}

// loadConfig layers the config file, the environment and the flags, in
// that order, and validates the result.
func (a *app) loadConfig(f runFlags, changed func(string) bool) (*config.Config, error) {
	cfg, err := a.readConfigFile(f.configPath)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(a.getenv)

	if changed("topic") {
		cfg.Pipeline.Topic = f.topic
	}

	if changed("limit") {
		cfg.Pipeline.Limit = f.limit
	}

	if changed("output") {
		cfg.Output.Dir = f.outputDir
	}

	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}

	if f.noValidate {
		cfg.Validator.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (a *app) readConfigFile(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}

		return cfg, nil
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return config.LoadConfig(DefaultConfigFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", DefaultConfigFile, err)
	}

	return config.Default(), nil
}
