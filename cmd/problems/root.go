// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"log/slog"

	"github.com/z5labs/outcome/config"
	"github.com/z5labs/outcome/module"
	"github.com/z5labs/outcome/problem"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "problems",
		Short:        "Inspect and serve the registered problem types",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file layered over the defaults")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newListCmd(flags),
		newSchemaCmd(flags),
		newServeCmd(flags),
		newFetchCmd(flags),
	)
	return cmd
}

func (f *rootFlags) logHandler(cmd *cobra.Command) slog.Handler {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
}

// withRegistry reads the config and builds a registry for a single
// command invocation.
func withRegistry[R any](cmd *cobra.Command, flags *rootFlags, f func(context.Context, *problem.Registry) (R, error)) (R, error) {
	cfg, err := readConfig(flags.configPath, config.Map{})
	if err != nil {
		var zero R
		return zero, err
	}
	return module.WithStatic(registryModule, cfg.Problem, f)(cmd.Context())
}
