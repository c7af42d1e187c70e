// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package chunker splits extracted document text into overlapping,
// word-aligned segments sized for embedding.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultTargetSize is the default number of characters per chunk.
const DefaultTargetSize = 500

// DefaultOverlap is the default number of characters shared between
// consecutive chunks.
const DefaultOverlap = 50

// boundaryFraction bounds how far back from the window end a whitespace
// cut may land. Cutting earlier than 0.8×targetSize would produce chunks
// too small to retrieve well; cutting only at the raw boundary splits words.
const boundaryFraction = 0.8

// Chunker splits text into overlapping chunks of roughly targetSize
// characters, preferring whitespace boundaries.
type Chunker struct {
	targetSize int
	overlap    int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithTargetSize sets the target chunk size in characters.
func WithTargetSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.targetSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		targetSize: DefaultTargetSize,
		overlap:    DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay strictly below the target size or the cursor
	// cannot advance.
	if c.overlap >= c.targetSize {
		c.overlap = c.targetSize / 4
	}

	return c
}

// TargetSize returns the configured chunk size.
func (c *Chunker) TargetSize() int { return c.targetSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split scans text left to right in windows of targetSize characters,
// cutting at the last whitespace in the final fifth of each window when
// one exists. Chunks are trimmed and empty results dropped. Empty input
// yields an empty result, never an error.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}

	boundary := int(float64(c.targetSize) * boundaryFraction)
	chunks := make([]string, 0, total/(c.targetSize-c.overlap)+1)

	start := 0
	for start < total {
		end := start + c.targetSize
		if end > total {
			end = total
		}
		window := runes[start:end]

		cut := len(window)
		advance := c.targetSize - c.overlap
		if last := lastWhitespace(window); last >= boundary {
			cut = last
			advance = last + 1 - c.overlap
		}

		// The cursor must strictly advance, even with pathological
		// overlap/size ratios, or the loop never terminates.
		if advance < 1 {
			advance = 1
		}

		piece := strings.TrimSpace(string(window[:cut]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		start += advance
	}

	return chunks
}

// lastWhitespace returns the index of the last whitespace rune in window,
// or -1 when there is none.
func lastWhitespace(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return -1
}
