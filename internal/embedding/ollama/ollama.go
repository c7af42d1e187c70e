// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package ollama provides an embedding adapter backed by a local Ollama
// server, keeping the whole retrieval path on-machine.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/alcove-dev/alcove/internal/embedding"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Compile-time interface check.
var _ embedding.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768 // nomic-embed-text output size
)

// Config holds Ollama embedder configuration.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

// Embedder generates embeddings via the Ollama /api/embeddings endpoint.
type Embedder struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// New creates an Ollama embedder, filling unset config fields with defaults.
func New(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &Embedder{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "marshalling embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "creating embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "calling ollama",
			alcoveerr.FieldModel(e.model))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, alcoveerr.Errorf(alcoveerr.CodeEmbeddingUpstreamFailure,
			"ollama returned status %d: %s", resp.StatusCode, string(msg))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "decoding embed response")
	}

	vec := make([]float32, len(er.Embedding))
	for i, v := range er.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts. Ollama has no native
// batch API, so each text is embedded individually.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, alcoveerr.Wrapf(err, alcoveerr.CodeEmbeddingUpstreamFailure, "embedding text %d of %d", i+1, len(texts))
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// ModelName returns the configured embedding model.
func (e *Embedder) ModelName() string { return e.model }

// Ping checks connectivity against /api/tags without running inference.
func (e *Embedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "creating ping request")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "pinging ollama")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return alcoveerr.Errorf(alcoveerr.CodeEmbeddingUpstreamFailure,
			"ollama returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Close releases resources. The HTTP client needs no explicit cleanup.
func (e *Embedder) Close() error { return nil }
