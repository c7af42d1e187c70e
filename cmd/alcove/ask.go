// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alcove-dev/alcove/internal/extract"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-shot question, optionally grounded in files",
		Long:  "Ingest the given files into a fresh index, then stream an answer grounded in their content. Without --file the question goes to the engine ungrounded.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().StringArrayP("file", "f", nil, "file to ingest before asking (repeatable)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := WireApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx := cmd.Context()
	question := strings.Join(args, " ")

	files, _ := cmd.Flags().GetStringArray("file")
	extractor := extract.NewPlaintext()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return err
		}

		name := filepath.Base(path)
		text, err := extractor.Extract(ctx, name, f)
		_ = f.Close()
		if err != nil {
			return err
		}

		n, err := app.Index.AddDocument(ctx, name, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "ingested %s (%d chunks)\n", name, n)
	}

	err = app.Orchestrator.Initialize(ctx, func(progress string) {
		fmt.Fprintln(cmd.ErrOrStderr(), progress)
	})
	if err != nil {
		return err
	}

	partials, err := app.Orchestrator.Converse(ctx, question)
	if err != nil {
		return err
	}

	// Partials carry the full accumulated text; print only the suffix.
	printed := 0
	for p := range partials {
		if p.Err != nil {
			fmt.Fprintln(cmd.OutOrStdout())
			return p.Err
		}
		if len(p.Content) > printed {
			fmt.Fprint(cmd.OutOrStdout(), p.Content[printed:])
			printed = len(p.Content)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())

	return nil
}
