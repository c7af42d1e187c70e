// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package main

import (
	"log/slog"
	"time"

	"github.com/alcove-dev/alcove/internal/chat"
	"github.com/alcove-dev/alcove/internal/chunker"
	"github.com/alcove-dev/alcove/internal/config"
	"github.com/alcove-dev/alcove/internal/embedding"
	embollama "github.com/alcove-dev/alcove/internal/embedding/ollama"
	embopenai "github.com/alcove-dev/alcove/internal/embedding/openai"
	"github.com/alcove-dev/alcove/internal/engine"
	enganthropic "github.com/alcove-dev/alcove/internal/engine/anthropic"
	engollama "github.com/alcove-dev/alcove/internal/engine/ollama"
	engopenai "github.com/alcove-dev/alcove/internal/engine/openai"
	"github.com/alcove-dev/alcove/internal/index"
	_ "github.com/alcove-dev/alcove/internal/index/memory" // register memory backend
	_ "github.com/alcove-dev/alcove/internal/index/sqlite" // register sqlite backend
	"github.com/alcove-dev/alcove/internal/server"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Config       *config.Config
	Index        *index.Index
	Orchestrator *chat.Orchestrator
	Server       *server.Server
}

// WireApp creates all subsystems and wires them together.
func WireApp(cfg *config.Config) (*App, error) {
	emb, err := buildEmbedder(cfg)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeCLISetupFailure, "building embedder")
	}

	ch := chunker.New(
		chunker.WithTargetSize(cfg.Index.ChunkSize),
		chunker.WithOverlap(cfg.Index.ChunkOverlap),
	)

	store, err := index.OpenStore(cfg.Index.Backend, index.BackendConfig{
		Path:       cfg.Index.Path,
		Dimensions: emb.Dimensions(),
	})
	if err != nil {
		_ = emb.Close()
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeCLISetupFailure, "opening index store")
	}

	idx := index.New(ch, emb, store, slog.Default())

	eng, err := buildEngine(cfg)
	if err != nil {
		_ = idx.Close()
		_ = emb.Close()
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeCLISetupFailure, "building engine")
	}

	orch := chat.New(eng, idx, chat.Config{
		Model:       cfg.Engine.Model,
		Temperature: cfg.Engine.Temperature,
		MaxTokens:   cfg.Engine.MaxTokens,
		TopK:        cfg.Index.TopK,
	}, slog.Default())

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		_ = orch.Close()
		_ = idx.Close()
		_ = emb.Close()
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeCLISetupFailure, "building server")
	}
	srv.RegisterServices(orch, idx)

	return &App{
		Config:       cfg,
		Index:        idx,
		Orchestrator: orch,
		Server:       srv,
	}, nil
}

// Close shuts down subsystems in reverse dependency order.
func (a *App) Close() error {
	var errs []error
	if err := a.Orchestrator.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Index.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return alcoveerr.Join(errs...)
	}
	return nil
}

func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embollama.New(embollama.Config{
			BaseURL:    cfg.Embedding.Endpoint,
			Model:      cfg.Embedding.Model,
			Timeout:    30 * time.Second,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case "openai":
		return embopenai.New(embopenai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.Endpoint,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, alcoveerr.Errorf(alcoveerr.CodeEmbeddingProviderUnsupported,
			"unsupported embedding provider: %q", cfg.Embedding.Provider)
	}
}

func buildEngine(cfg *config.Config) (engine.Engine, error) {
	switch cfg.Engine.Provider {
	case "ollama":
		return engollama.New(engollama.Config{
			BaseURL: cfg.Engine.Endpoint,
			Model:   cfg.Engine.Model,
		}), nil
	case "openai":
		return engopenai.New(engopenai.Config{
			APIKey:  cfg.Engine.APIKey,
			BaseURL: cfg.Engine.Endpoint,
		})
	case "anthropic":
		return enganthropic.New(enganthropic.Config{
			APIKey:  cfg.Engine.APIKey,
			BaseURL: cfg.Engine.Endpoint,
		})
	default:
		return nil, alcoveerr.Errorf(alcoveerr.CodeEngineProviderUnsupported,
			"unsupported engine provider: %q", cfg.Engine.Provider)
	}
}
