// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alcove-dev/alcove/internal/embedding/ollama"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req["model"])
		assert.Equal(t, "hello", req["prompt"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{0.1, 0.2, 0.3},
		})
	}))
	defer srv.Close()

	e := ollama.New(ollama.Config{BaseURL: srv.URL})

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbed_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	e := ollama.New(ollama.Config{BaseURL: srv.URL})

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsUpstreamFailure(err))
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls = append(calls, req["prompt"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{float64(len(calls))},
		})
	}))
	defer srv.Close()

	e := ollama.New(ollama.Config{BaseURL: srv.URL})

	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, []float32{1}, vecs[0])
	assert.Equal(t, []float32{2}, vecs[1])
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := ollama.New(ollama.Config{BaseURL: srv.URL})
	assert.NoError(t, e.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	e := ollama.New(ollama.Config{})
	assert.Equal(t, 768, e.Dimensions())
	assert.Equal(t, "nomic-embed-text", e.ModelName())
}
