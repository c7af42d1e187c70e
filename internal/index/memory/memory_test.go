// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package memory_test

import (
	"context"
	"testing"

	"github.com/alcove-dev/alcove/internal/index"
	"github.com/alcove-dev/alcove/internal/index/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *memory.Store {
	t.Helper()

	s := memory.NewStore()
	err := s.Append(context.Background(), []index.Chunk{
		{ID: "a1", SourceID: "sky.txt", Position: 0, Text: "the sky is blue", Embedding: []float32{1, 0, 0}},
		{ID: "a2", SourceID: "sky.txt", Position: 1, Text: "clouds are white", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "b1", SourceID: "grass.txt", Position: 0, Text: "grass is green", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	return s
}

func TestSearch_RanksByCosine(t *testing.T) {
	s := seed(t)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a1", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "a2", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_KLargerThanStore(t *testing.T) {
	s := seed(t)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearch_EmptyStore(t *testing.T) {
	s := memory.NewStore()

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	s := memory.NewStore()
	err := s.Append(context.Background(), []index.Chunk{
		{ID: "first", SourceID: "doc", Embedding: []float32{0, 1}},
		{ID: "second", SourceID: "doc", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)

	results, err := s.Search(context.Background(), []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.ID)
	assert.Equal(t, "second", results[1].Chunk.ID)
}

func TestRemove(t *testing.T) {
	s := seed(t)

	removed, err := s.Remove(context.Background(), "sky.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := s.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err = s.Remove(context.Background(), "sky.txt")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSources(t *testing.T) {
	s := seed(t)

	infos, err := s.Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, index.SourceInfo{SourceID: "sky.txt", Chunks: 2}, infos[0])
	assert.Equal(t, index.SourceInfo{SourceID: "grass.txt", Chunks: 1}, infos[1])
}
