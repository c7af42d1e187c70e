// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package memory provides an in-memory chunk store with brute-force
// similarity search. Suited to the corpus sizes a single private index
// holds; everything is lost on process exit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alcove-dev/alcove/internal/index"
)

func init() {
	index.RegisterBackend("memory", func(index.BackendConfig) (index.Store, error) {
		return NewStore(), nil
	})
}

// Compile-time interface check.
var _ index.Store = (*Store)(nil)

// Store keeps chunks in a slice guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	chunks []index.Chunk
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Append adds chunks to the store.
func (s *Store) Append(_ context.Context, chunks []index.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Search scores every stored chunk against the query and returns the top
// k by descending similarity. Ties keep insertion order.
func (s *Store) Search(_ context.Context, query []float32, k int) ([]index.Scored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.chunks) == 0 {
		return nil, nil
	}

	scored := make([]index.Scored, 0, len(s.chunks))
	for _, c := range s.chunks {
		score, err := index.Cosine(query, c.Embedding)
		if err != nil {
			return nil, err
		}
		scored = append(scored, index.Scored{Chunk: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Remove deletes every chunk belonging to sourceID.
func (s *Store) Remove(_ context.Context, sourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.SourceID == sourceID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed, nil
}

// Sources lists documents in first-ingested order with chunk counts.
func (s *Store) Sources(_ context.Context) ([]index.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	var order []string
	for _, c := range s.chunks {
		if _, seen := counts[c.SourceID]; !seen {
			order = append(order, c.SourceID)
		}
		counts[c.SourceID]++
	}

	infos := make([]index.SourceInfo, len(order))
	for i, id := range order {
		infos[i] = index.SourceInfo{SourceID: id, Chunks: counts[id]}
	}
	return infos, nil
}

// Len returns the number of stored chunks.
func (s *Store) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
