// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alcove-dev/alcove/internal/index"
	"github.com/alcove-dev/alcove/internal/index/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "index.db"), 3)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Append(ctx, []index.Chunk{
		{ID: "a1", SourceID: "sky.txt", Position: 0, Text: "the sky is blue", Embedding: []float32{1, 0, 0}},
		{ID: "b1", SourceID: "grass.txt", Position: 0, Text: "grass is green", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "a1", results[0].Chunk.ID)
	assert.Equal(t, "sky.txt", results[0].Chunk.SourceID)
	assert.Equal(t, "the sky is blue", results[0].Chunk.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestSearch_ScoreOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Append(ctx, []index.Chunk{
		{ID: "near", SourceID: "doc", Embedding: []float32{1, 0, 0}},
		{ID: "far", SourceID: "doc", Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "near", results[0].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	// Orthogonal unit vectors sit at L2 distance sqrt(2), cosine 0.
	assert.InDelta(t, 0.0, results[1].Score, 1e-5)
}

func TestRemoveAndSources(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Append(ctx, []index.Chunk{
		{ID: "a1", SourceID: "sky.txt", Position: 0, Text: "one", Embedding: []float32{1, 0, 0}},
		{ID: "a2", SourceID: "sky.txt", Position: 1, Text: "two", Embedding: []float32{0, 1, 0}},
		{ID: "b1", SourceID: "grass.txt", Position: 0, Text: "three", Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)

	infos, err := s.Sources(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, index.SourceInfo{SourceID: "sky.txt", Chunks: 2}, infos[0])

	removed, err := s.Remove(ctx, "sky.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err = s.Remove(ctx, "missing.txt")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	s, err := sqlite.NewStore(dbPath, 3)
	require.NoError(t, err)

	err = s.Append(ctx, []index.Chunk{
		{ID: "a1", SourceID: "doc.txt", Position: 0, Text: "kept", Embedding: []float32{1, 0, 0}},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.NewStore(dbPath, 3)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
