// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package index

import (
	"context"
	"math"

	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Chunk is one embedded slice of a source document.
type Chunk struct {
	ID        string
	SourceID  string
	Position  int // ordinal within the source document
	Text      string
	Embedding []float32
}

// Scored pairs a stored chunk with its similarity to a query vector.
type Scored struct {
	Chunk Chunk
	Score float64
}

// SearchResult is what callers of Index.Search receive.
type SearchResult struct {
	ChunkID  string
	SourceID string
	Text     string
	Score    float64
}

// SourceInfo summarizes one ingested document.
type SourceInfo struct {
	SourceID string
	Chunks   int
}

// Store persists embedded chunks and answers nearest-neighbor queries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds chunks to the store. Chunk IDs are assumed unique.
	Append(ctx context.Context, chunks []Chunk) error

	// Search returns the k chunks most similar to the query vector,
	// ordered by descending score. Fewer than k results are returned
	// when the store holds fewer chunks.
	Search(ctx context.Context, query []float32, k int) ([]Scored, error)

	// Remove deletes every chunk belonging to sourceID and reports how
	// many were removed.
	Remove(ctx context.Context, sourceID string) (int, error)

	// Sources lists ingested documents with their chunk counts.
	Sources(ctx context.Context) ([]SourceInfo, error)

	// Len returns the total number of stored chunks.
	Len(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// Cosine computes the cosine similarity between two vectors. Mismatched
// lengths are rejected; a zero-magnitude vector carries no direction and
// scores 0 against everything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, alcoveerr.Errorf(alcoveerr.CodeEmbeddingVectorInvalid,
			"vector length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, alcoveerr.New(alcoveerr.CodeEmbeddingVectorInvalid, "empty vectors")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
