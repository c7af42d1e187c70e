// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package index turns documents into embedded chunks and answers semantic
// queries over them. Embeddings are computed once at ingestion; queries
// embed only the query text.
package index

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/alcove-dev/alcove/internal/chunker"
	"github.com/alcove-dev/alcove/internal/embedding"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Index is the ingestion and retrieval service.
type Index struct {
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	store    Store
	logger   *slog.Logger
}

// New creates an Index over the given chunker, embedder, and store.
func New(ch *chunker.Chunker, emb embedding.Embedder, st Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		chunker:  ch,
		embedder: emb,
		store:    st,
		logger:   logger.With("component", "index"),
	}
}

// AddDocument chunks, embeds, and stores a document under sourceID.
// Returns the number of chunks ingested. A document that produces no
// chunks (empty or all whitespace) is rejected.
func (ix *Index) AddDocument(ctx context.Context, sourceID, text string) (int, error) {
	if strings.TrimSpace(sourceID) == "" {
		return 0, alcoveerr.New(alcoveerr.CodeIndexIngestEmptySource, "empty source id")
	}

	pieces := ix.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, alcoveerr.New(alcoveerr.CodeIndexIngestEmptySource, "document produced no chunks",
			alcoveerr.FieldSource(sourceID))
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, alcoveerr.Wrap(err, alcoveerr.CodeIndexEmbedFailure, "embedding document chunks",
			alcoveerr.FieldSource(sourceID))
	}
	if len(vecs) != len(pieces) {
		return 0, alcoveerr.Errorf(alcoveerr.CodeIndexEmbedFailure,
			"embedder returned %d vectors for %d chunks", len(vecs), len(pieces))
	}

	chunks := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		vec, err := embedding.Normalize(vecs[i])
		if err != nil {
			return 0, alcoveerr.Wrapf(err, alcoveerr.CodeIndexEmbedFailure,
				"normalizing embedding for chunk %d", i)
		}
		chunks[i] = Chunk{
			ID:        uuid.NewString(),
			SourceID:  sourceID,
			Position:  i,
			Text:      piece,
			Embedding: vec,
		}
	}

	if err := ix.store.Append(ctx, chunks); err != nil {
		return 0, alcoveerr.Wrap(err, alcoveerr.CodeIndexStoreFailure, "storing document chunks",
			alcoveerr.FieldSource(sourceID))
	}

	ix.logger.Info("document ingested", "source", sourceID, "chunks", len(chunks))
	return len(chunks), nil
}

// Search embeds the query and returns up to k most similar chunks. An
// empty index or non-positive k yields no results without calling the
// embedder.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	n, err := ix.store.Len(ctx)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeIndexStoreFailure, "counting stored chunks")
	}
	if n == 0 {
		return nil, nil
	}

	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeIndexEmbedFailure, "embedding query")
	}
	vec, err = embedding.Normalize(vec)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeIndexEmbedFailure, "normalizing query embedding")
	}

	scored, err := ix.store.Search(ctx, vec, k)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeIndexStoreFailure, "searching index")
	}

	results := make([]SearchResult, len(scored))
	for i, s := range scored {
		results[i] = SearchResult{
			ChunkID:  s.Chunk.ID,
			SourceID: s.Chunk.SourceID,
			Text:     s.Chunk.Text,
			Score:    s.Score,
		}
	}
	return results, nil
}

// RemoveDocument deletes every chunk ingested under sourceID and returns
// how many were removed. Unknown sources are an error.
func (ix *Index) RemoveDocument(ctx context.Context, sourceID string) (int, error) {
	removed, err := ix.store.Remove(ctx, sourceID)
	if err != nil {
		return 0, alcoveerr.Wrap(err, alcoveerr.CodeIndexStoreFailure, "removing document",
			alcoveerr.FieldSource(sourceID))
	}
	if removed == 0 {
		return 0, alcoveerr.New(alcoveerr.CodeIndexSourceNotFound, "source not found",
			alcoveerr.FieldSource(sourceID))
	}

	ix.logger.Info("document removed", "source", sourceID, "chunks", removed)
	return removed, nil
}

// Sources lists ingested documents with their chunk counts.
func (ix *Index) Sources(ctx context.Context) ([]SourceInfo, error) {
	infos, err := ix.store.Sources(ctx)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeIndexStoreFailure, "listing sources")
	}
	return infos, nil
}

// Len returns the total number of stored chunks.
func (ix *Index) Len(ctx context.Context) (int, error) {
	n, err := ix.store.Len(ctx)
	if err != nil {
		return 0, alcoveerr.Wrap(err, alcoveerr.CodeIndexStoreFailure, "counting stored chunks")
	}
	return n, nil
}

// Close releases the underlying store.
func (ix *Index) Close() error {
	return ix.store.Close()
}
