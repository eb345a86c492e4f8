// root.go: root command, global flags and logger setup
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agilira/go-modfactory"
)

const cliExecutable = "modhost"

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configFile string
	logLevel   string
	logJSON    bool

	logger zerolog.Logger
}

// moduleLogger adapts the CLI logger for the modfactory core.
func (o *globalOptions) moduleLogger() modfactory.Logger {
	return modfactory.NewZerologAdapter(o.logger)
}

// managerConfig returns the configuration named by --config, or the defaults.
func (o *globalOptions) managerConfig() (modfactory.ManagerConfig, error) {
	if o.configFile == "" {
		return modfactory.DefaultManagerConfig(), nil
	}
	return modfactory.LoadConfigFromFile(o.configFile)
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Load and inspect modfactory modules",
		Long: `modhost scans a directory for modfactory modules, loads every library that
exports a module factory and reports or serves what it found.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}

			var logger zerolog.Logger
			if opts.logJSON {
				logger = zerolog.New(os.Stderr)
			} else {
				logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
			}
			opts.logger = logger.Level(level).With().Timestamp().Logger()
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Configuration file path (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON instead of console text")

	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}
