// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alcove-dev/alcove/internal/chat"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

func (s *Server) registerRoutes() {
	// Document endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "add-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents",
		Summary:     "Ingest a document into the index",
		Tags:        []string{"documents"},
	}, s.handleAddDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "List ingested documents",
		Tags:        []string{"documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "remove-document",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents/{source}",
		Summary:     "Remove a document from the index",
		Tags:        []string{"documents"},
	}, s.handleRemoveDocument)

	// Search endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Semantic search over the index",
		Tags:        []string{"search"},
	}, s.handleSearch)

	// Chat state endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "chat-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Engine lifecycle status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "chat-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/history",
		Summary:     "Conversation history",
		Tags:        []string{"chat"},
	}, s.handleHistory)
}

// humaError converts a service error into a huma status error using the
// error code taxonomy.
func humaError(err error) error {
	return huma.NewError(alcoveerr.HTTPStatus(err), err.Error())
}

// --- Request/Response types for huma ---

type addDocumentInput struct {
	Body struct {
		SourceID string `json:"source_id" minLength:"1" doc:"Document identifier, e.g. a filename"`
		Text     string `json:"text" minLength:"1" doc:"Document text"`
	}
}

type addDocumentOutput struct {
	Body struct {
		SourceID string `json:"source_id"`
		Chunks   int    `json:"chunks" doc:"Number of chunks ingested"`
	}
}

type listDocumentsOutput struct {
	Body struct {
		Documents []documentSummary `json:"documents"`
	}
}

type documentSummary struct {
	SourceID string `json:"source_id"`
	Chunks   int    `json:"chunks"`
}

type removeDocumentInput struct {
	Source string `path:"source" doc:"Document identifier"`
}

type removeDocumentOutput struct {
	Body struct {
		SourceID string `json:"source_id"`
		Removed  int    `json:"removed" doc:"Number of chunks removed"`
	}
}

type searchInput struct {
	Body struct {
		Query string `json:"query" minLength:"1" doc:"Search query"`
		K     int    `json:"k,omitempty" doc:"Maximum results, defaults to the configured top_k"`
	}
}

type searchOutput struct {
	Body struct {
		Results []searchHit `json:"results"`
	}
}

type searchHit struct {
	ChunkID  string  `json:"chunk_id"`
	SourceID string  `json:"source_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

type statusOutput struct {
	Body struct {
		Phase    string `json:"phase" enum:"uninitialized,loading,ready,failed"`
		Progress string `json:"progress,omitempty"`
		Error    string `json:"error,omitempty"`
		Busy     bool   `json:"busy"`
	}
}

type historyOutput struct {
	Body struct {
		Messages []historyMessage `json:"messages"`
	}
}

type historyMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

// --- Handlers ---

func (s *Server) handleAddDocument(ctx context.Context, input *addDocumentInput) (*addDocumentOutput, error) {
	n, err := s.index.AddDocument(ctx, input.Body.SourceID, input.Body.Text)
	if err != nil {
		return nil, humaError(err)
	}

	out := &addDocumentOutput{}
	out.Body.SourceID = input.Body.SourceID
	out.Body.Chunks = n
	return out, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ *struct{}) (*listDocumentsOutput, error) {
	infos, err := s.index.Sources(ctx)
	if err != nil {
		return nil, humaError(err)
	}

	out := &listDocumentsOutput{}
	out.Body.Documents = make([]documentSummary, len(infos))
	for i, info := range infos {
		out.Body.Documents[i] = documentSummary{SourceID: info.SourceID, Chunks: info.Chunks}
	}
	return out, nil
}

func (s *Server) handleRemoveDocument(ctx context.Context, input *removeDocumentInput) (*removeDocumentOutput, error) {
	removed, err := s.index.RemoveDocument(ctx, input.Source)
	if err != nil {
		return nil, humaError(err)
	}

	out := &removeDocumentOutput{}
	out.Body.SourceID = input.Source
	out.Body.Removed = removed
	return out, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	k := input.Body.K
	if k <= 0 {
		k = chat.DefaultTopK
	}

	results, err := s.index.Search(ctx, input.Body.Query, k)
	if err != nil {
		return nil, humaError(err)
	}

	out := &searchOutput{}
	out.Body.Results = make([]searchHit, len(results))
	for i, r := range results {
		out.Body.Results[i] = searchHit{
			ChunkID:  r.ChunkID,
			SourceID: r.SourceID,
			Text:     r.Text,
			Score:    r.Score,
		}
	}
	return out, nil
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	state := s.chat.State()

	out := &statusOutput{}
	out.Body.Phase = string(state.Phase)
	out.Body.Progress = state.Progress
	out.Body.Error = state.Err
	out.Body.Busy = state.Busy
	return out, nil
}

func (s *Server) handleHistory(_ context.Context, _ *struct{}) (*historyOutput, error) {
	msgs := s.chat.History()

	out := &historyOutput{}
	out.Body.Messages = make([]historyMessage, len(msgs))
	for i, m := range msgs {
		out.Body.Messages[i] = historyMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			Incomplete: m.Incomplete,
		}
	}
	return out, nil
}
