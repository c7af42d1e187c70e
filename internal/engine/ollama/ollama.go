// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package ollama implements the engine contract against a local Ollama
// server, so generation never leaves the machine.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/alcove-dev/alcove/internal/engine"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Compile-time interface check.
var _ engine.Engine = (*Engine)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
)

// Config holds Ollama engine configuration.
type Config struct {
	BaseURL string
	Model   string
}

// Engine implements engine.Engine via the Ollama /api/chat endpoint.
// The HTTP client carries no global timeout: generation streams can
// legitimately run for minutes, cancellation comes from the context.
type Engine struct {
	client  *http.Client
	baseURL string
	model   string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// New creates an Ollama engine, filling unset config fields with defaults.
func New(cfg Config) *Engine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Engine{
		client:  &http.Client{},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

func (e *Engine) Name() string { return "ollama" }

// Stream starts a streaming chat against /api/chat. Ollama responds with
// newline-delimited JSON chunks.
func (e *Engine) Stream(ctx context.Context, req engine.Request) (<-chan engine.Event, error) {
	model := req.Model
	if model == "" {
		model = e.model
	}

	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   true,
		Options: chatOptions{
			Temperature: req.Options.Temperature,
			NumPredict:  req.Options.MaxTokens,
		},
	})
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "marshalling chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "creating chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "calling ollama",
			alcoveerr.FieldModel(model))
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, alcoveerr.Errorf(alcoveerr.CodeEngineUpstreamFailure,
			"ollama returned status %d: %s", resp.StatusCode, string(msg))
	}

	eventCh := make(chan engine.Event, 100)

	go func() {
		defer close(eventCh)
		defer resp.Body.Close()
		streamChunks(ctx, resp.Body, eventCh)
	}()

	return eventCh, nil
}

// streamChunks decodes NDJSON chunks from the response body into events.
func streamChunks(ctx context.Context, body io.Reader, ch chan<- engine.Event) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			ch <- engine.Event{Type: engine.EventTypeError, Error: "decoding chat chunk: " + err.Error()}
			return
		}

		if chunk.Error != "" {
			ch <- engine.Event{Type: engine.EventTypeError, Error: chunk.Error}
			return
		}

		if chunk.Message.Content != "" {
			select {
			case ch <- engine.Event{Type: engine.EventTypeTextDelta, Text: chunk.Message.Content}:
			case <-ctx.Done():
				return
			}
		}

		if chunk.Done {
			ch <- engine.Event{Type: engine.EventTypeDone}
			return
		}
	}

	if err := scanner.Err(); err != nil {
		ch <- engine.Event{Type: engine.EventTypeError, Error: err.Error()}
		return
	}

	// Body ended without a done chunk, still send done.
	ch <- engine.Event{Type: engine.EventTypeDone}
}

// Ping checks connectivity against /api/tags without running inference.
func (e *Engine) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "creating ping request")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "pinging ollama",
			alcoveerr.FieldProvider("ollama"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return alcoveerr.Errorf(alcoveerr.CodeEngineUpstreamFailure,
			"ollama returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Close releases resources. The HTTP client needs no explicit cleanup.
func (e *Engine) Close() error { return nil }
