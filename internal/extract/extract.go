// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package extract turns uploaded files into plain text ready for
// chunking.
package extract

import (
	"context"
	"io"
	"strings"

	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Extractor converts a named document stream into indexable text.
type Extractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (string, error)
}

// Compile-time interface check.
var _ Extractor = (*Plaintext)(nil)

// Plaintext reads the stream as-is. Markdown, source code, and any other
// text format pass straight through.
type Plaintext struct{}

// NewPlaintext creates a plain text extractor.
func NewPlaintext() *Plaintext {
	return &Plaintext{}
}

// Extract reads the full stream and rejects documents with no visible
// content.
func (p *Plaintext) Extract(_ context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", alcoveerr.Wrap(err, alcoveerr.CodeExtractReadFailure, "reading document",
			alcoveerr.FieldSource(name))
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", alcoveerr.New(alcoveerr.CodeExtractEmptySource, "document has no extractable text",
			alcoveerr.FieldSource(name))
	}

	return text, nil
}
