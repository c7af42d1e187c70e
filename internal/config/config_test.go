// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alcove-dev/alcove/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8417", cfg.Server.Listen)
	assert.Equal(t, "ollama", cfg.Engine.Provider)
	assert.Equal(t, "llama3.2", cfg.Engine.Model)
	assert.InDelta(t, 0.3, cfg.Engine.Temperature, 1e-6)
	assert.Equal(t, 1024, cfg.Engine.MaxTokens)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, 500, cfg.Index.ChunkSize)
	assert.Equal(t, 50, cfg.Index.ChunkOverlap)
	assert.Equal(t, 4, cfg.Index.TopK)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alcove.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: "0.0.0.0:9000"
engine:
  provider: openai
  model: gpt-4.1-mini
  api_key: test-key
index:
  backend: sqlite
  path: /tmp/alcove.db
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, "openai", cfg.Engine.Provider)
	assert.Equal(t, "gpt-4.1-mini", cfg.Engine.Model)
	assert.Equal(t, "sqlite", cfg.Index.Backend)
	// Unset sections keep their defaults.
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ALCOVE_ENGINE_MODEL", "llama3.1")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", cfg.Engine.Model)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Listen: "not-an-address"},
		Engine: config.EngineConfig{
			Provider:  "watson",
			MaxTokens: -1,
		},
		Embedding: config.EmbeddingConfig{Provider: "openai"},
		Index:     config.IndexConfig{Backend: "redis"},
	}

	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 5)
}

func TestValidate_CloudProviderRequiresKey(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Engine.Provider = "anthropic"
	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "engine.api_key")
}

func TestValidate_SqliteRequiresPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Index.Backend = "sqlite"
	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "index.path")
}

func TestBootstrapConfigYAMLParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alcove.yaml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfigYAML, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Engine.Provider)
}
