// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alcove-dev/alcove/internal/config"
)

// NewRootCmd creates the root alcove command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "alcove",
		Short:         "Alcove, a private document chat",
		Long:          "Alcove indexes your documents locally and answers questions about them with a streaming chat grounded in what you ingested.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(verbose)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newVersionCmd(),
	)

	return root
}

// setupLogging installs a slog text handler on stderr so stdout stays
// clean for command output.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// resolveConfigPath picks the config file: the --config flag, then
// ./alcove.yaml, then ~/.config/alcove/alcove.yaml. When none exists a
// commented default is bootstrapped. An empty return means defaults only.
func resolveConfigPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}

	if _, err := os.Stat("alcove.yaml"); err == nil {
		return "alcove.yaml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "alcove", "alcove.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return config.BootstrapConfig()
}

// loadConfig resolves and loads configuration for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := resolveConfigPath(cmd)
	config.WarnInsecurePermissions(path)
	return config.Load(path)
}
