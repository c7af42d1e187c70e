// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package embedding defines the contract for turning text into fixed-length
// vectors, plus helpers shared by every adapter. The same embedder instance
// must serve both ingestion and queries or similarity scores are meaningless.
package embedding

import (
	"context"
	"math"

	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Results are
	// returned in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the backend is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Normalize scales vec to unit L2 norm. Zero or empty vectors are rejected:
// a zero embedding carries no signal and must never reach the index.
func Normalize(vec []float32) ([]float32, error) {
	if len(vec) == 0 {
		return nil, alcoveerr.New(alcoveerr.CodeEmbeddingVectorInvalid, "empty embedding vector")
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, alcoveerr.New(alcoveerr.CodeEmbeddingVectorInvalid, "zero embedding vector")
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out, nil
}
