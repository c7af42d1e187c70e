// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package openai provides an embedding adapter using the OpenAI
// embeddings API.
package openai

import (
	"context"

	"github.com/alcove-dev/alcove/internal/embedding"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// Compile-time interface check.
var _ embedding.Embedder = (*Embedder)(nil)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// modelDimensions maps known OpenAI embedding models to their native
// output sizes.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds OpenAI embedder configuration.
type Config struct {
	APIKey     string
	BaseURL    string // optional, useful for testing against a mock server
	Model      string
	Dimensions int // optional override, text-embedding-3-* only
}

// Embedder generates embeddings using the OpenAI API.
type Embedder struct {
	client     openaisdk.Client
	model      string
	dimensions int
}

// New creates an OpenAI embedder. Returns an error if the API key is missing.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, alcoveerr.New(alcoveerr.CodeConfigValidateInvalidValue, "openai: missing api_key in config")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	dims := cfg.Dimensions
	if dims == 0 {
		var ok bool
		if dims, ok = modelDimensions[cfg.Model]; !ok {
			dims = 1536
		}
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Embedder{
		client:     openaisdk.NewClient(opts...),
		model:      cfg.Model,
		dimensions: dims,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, alcoveerr.New(alcoveerr.CodeEmbeddingUpstreamFailure, "openai returned no embedding")
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in a single request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openaisdk.EmbeddingModel(e.model),
	}

	// Only the text-embedding-3-* models accept a dimensions override.
	if e.model == "text-embedding-3-small" || e.model == "text-embedding-3-large" {
		params.Dimensions = param.NewOpt(int64(e.dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "calling openai embeddings",
			alcoveerr.FieldModel(e.model))
	}

	// Order by the response index; the API does not guarantee input order.
	vecs := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(texts) {
			return nil, alcoveerr.Errorf(alcoveerr.CodeEmbeddingUpstreamFailure,
				"openai returned embedding index %d out of range", data.Index)
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vecs[data.Index] = vec
	}

	for i, vec := range vecs {
		if vec == nil {
			return nil, alcoveerr.Errorf(alcoveerr.CodeEmbeddingUpstreamFailure,
				"openai returned no embedding for input %d", i)
		}
	}

	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// ModelName returns the configured embedding model.
func (e *Embedder) ModelName() string { return e.model }

// Ping validates the API key by listing models, which runs no inference.
func (e *Embedder) Ping(ctx context.Context) error {
	if _, err := e.client.Models.List(ctx); err != nil {
		return alcoveerr.Wrap(err, alcoveerr.CodeEmbeddingUpstreamFailure, "pinging openai")
	}
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error { return nil }
