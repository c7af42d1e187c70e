// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the alcove HTTP server",
		Long:  "Load configuration, wire the index and chat engine, and serve the HTTP API until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	app, err := WireApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Engine warmup runs in the background; the API is up immediately
	// and reports the loading phase until the engine is ready.
	go func() {
		if err := app.Orchestrator.Initialize(ctx, nil); err != nil {
			slog.Error("engine initialization failed", "error", err)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "alcove listening on %s (engine: %s, index: %s)\n",
		cfg.Server.Listen, cfg.Engine.Provider, cfg.Index.Backend)

	return app.Server.Start(ctx)
}
