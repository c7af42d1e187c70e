// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alcove-dev/alcove/internal/chat"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// chatStreamRequest is the request body for the streaming endpoint.
type chatStreamRequest struct {
	Content string `json:"content"`
}

func (s *Server) registerSSERoute() {
	s.router.Post("/api/v1/chat/stream", s.handleChatStream)

	// Register the operation in the OpenAPI spec manually. The SSE
	// streaming handler needs raw http.ResponseWriter access, so it
	// cannot use Huma's standard handler signature. We keep the chi
	// route above for actual request handling and add the spec entry
	// here for documentation.
	minContentLen := 1
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "chat-stream",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat/stream",
		Summary:     "Stream a chat reply via SSE",
		Description: "Send a message and receive a streaming reply. Set Accept: text/event-stream for SSE, otherwise the final reply is returned as JSON.",
		Tags:        []string{"chat"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"application/json": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{"content"},
						Properties: map[string]*huma.Schema{
							"content": {
								Type:        "string",
								MinLength:   &minContentLen,
								Description: "Message content",
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Streaming reply (SSE or JSON depending on Accept header)",
				Content: map[string]*huma.MediaType{
					"text/event-stream": {
						Schema: &huma.Schema{
							Type:        "string",
							Description: "Server-sent event stream with delta, done, and error events",
						},
					},
					"application/json": {
						Schema: &huma.Schema{
							Type: "object",
							Properties: map[string]*huma.Schema{
								"content": {
									Type:        "string",
									Description: "Final assistant reply",
								},
							},
						},
					},
				},
			},
			"409": {Description: "A turn is already in progress"},
			"422": {Description: "Validation error (missing content)"},
			"503": {Description: "Engine not ready"},
		},
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusUnprocessableEntity)
		return
	}

	if s.chat == nil {
		http.Error(w, `{"error":"chat service not configured"}`, http.StatusServiceUnavailable)
		return
	}

	partials, err := s.chat.Converse(r.Context(), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.writeSSE(w, partials)
		return
	}
	s.writeJSON(w, partials)
}

// writeSSE forwards partials as SSE events. delta events carry only the
// new suffix; the final done event carries the full reply.
func (s *Server) writeSSE(w http.ResponseWriter, partials <-chan chat.Partial) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		// httptest.ResponseRecorder doesn't implement Flusher,
		// but we still write the events for testability.
		flusher = nil
	}

	sent := 0
	for p := range partials {
		if p.Err != nil {
			writeSSEEvent(w, flusher, "error", errorData(p.Err))
			return
		}

		if p.Done {
			data, _ := json.Marshal(map[string]string{"content": p.Content})
			writeSSEEvent(w, flusher, "done", string(data))
			return
		}

		if len(p.Content) > sent {
			data, _ := json.Marshal(map[string]string{"text": p.Content[sent:]})
			sent = len(p.Content)
			writeSSEEvent(w, flusher, "delta", string(data))
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
}

// writeJSON drains the stream and returns only the final reply.
func (s *Server) writeJSON(w http.ResponseWriter, partials <-chan chat.Partial) {
	var final chat.Partial
	for p := range partials {
		final = p
	}

	if final.Err != nil {
		writeError(w, final.Err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := struct {
		Content string `json:"content"`
	}{Content: final.Content}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(alcoveerr.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func errorData(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}
