// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package index_test

import (
	"context"
	"testing"

	"github.com/alcove-dev/alcove/internal/chunker"
	"github.com/alcove-dev/alcove/internal/index"
	"github.com/alcove-dev/alcove/internal/index/memory"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder maps known texts to fixed vectors so similarity ordering
// is predictable in tests.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0.1, 0.1, 0.1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 3 }
func (f *fakeEmbedder) ModelName() string            { return "fake" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

func newTestIndex(t *testing.T, emb *fakeEmbedder) *index.Index {
	t.Helper()

	return index.New(chunker.New(), emb, memory.NewStore(), nil)
}

func TestAddDocumentAndSearch(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"the sky is blue":       {1, 0, 0},
		"grass is green":        {0, 1, 0},
		"what color is the sky": {0.9, 0.1, 0},
	}}
	ix := newTestIndex(t, emb)
	ctx := context.Background()

	n, err := ix.AddDocument(ctx, "sky.txt", "the sky is blue")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ix.AddDocument(ctx, "grass.txt", "grass is green")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := ix.Search(ctx, "what color is the sky", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sky.txt", results[0].SourceID)
	assert.Equal(t, "the sky is blue", results[0].Text)
}

func TestAddDocument_RejectsEmpty(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "blank.txt", "   \n\t  ")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsEmptySource(err))

	_, err = ix.AddDocument(ctx, "", "some text")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsEmptySource(err))
}

func TestSearch_EmptyIndexSkipsEmbedding(t *testing.T) {
	emb := &fakeEmbedder{}
	ix := newTestIndex(t, emb)

	results, err := ix.Search(context.Background(), "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, emb.calls)
}

func TestSearch_NonPositiveK(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})

	results, err := ix.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmbedFailurePropagates(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"doc": {1, 0, 0}}}
	ix := newTestIndex(t, emb)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "doc.txt", "doc")
	require.NoError(t, err)

	emb.err = alcoveerr.New(alcoveerr.CodeEmbeddingUpstreamFailure, "backend down")
	_, err = ix.Search(ctx, "query", 4)
	require.Error(t, err)
	assert.True(t, alcoveerr.IsEmbeddingFailure(err))
}

func TestRemoveDocument(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"some text": {1, 0, 0}}}
	ix := newTestIndex(t, emb)
	ctx := context.Background()

	_, err := ix.AddDocument(ctx, "doc.txt", "some text")
	require.NoError(t, err)

	removed, err := ix.RemoveDocument(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = ix.RemoveDocument(ctx, "doc.txt")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsNotFound(err))
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, wantErr: true},
		{name: "zero vector scores zero", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "empty", a: nil, b: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := index.Cosine(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}
