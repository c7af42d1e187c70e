// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package anthropic implements the engine contract using the Anthropic
// Messages API.
package anthropic

import (
	"context"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alcove-dev/alcove/internal/engine"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Compile-time interface check.
var _ engine.Engine = (*Engine)(nil)

// defaultMaxTokens applies when the request does not set a limit; the
// Messages API requires max_tokens.
const defaultMaxTokens = 4096

// Config holds Anthropic engine configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Engine implements engine.Engine using the Anthropic Messages API.
type Engine struct {
	client anthropicsdk.Client
	config Config
}

// New creates a new Anthropic engine. Returns an error if the API key is missing.
func New(cfg Config) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, alcoveerr.New(alcoveerr.CodeConfigValidateInvalidValue, "anthropic: missing api_key in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Engine{client: anthropicsdk.NewClient(opts...), config: cfg}, nil
}

func (e *Engine) Name() string { return "anthropic" }

// Stream starts a streaming message generation.
func (e *Engine) Stream(ctx context.Context, req engine.Request) (<-chan engine.Event, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "anthropic: building request params")
	}

	eventCh := make(chan engine.Event, 100)

	go func() {
		defer close(eventCh)
		e.streamChat(ctx, params, eventCh)
	}()

	return eventCh, nil
}

// Ping verifies the API key by requesting the models listing.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.client.Models.List(ctx, anthropicsdk.ModelListParams{}); err != nil {
		return alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "pinging anthropic",
			alcoveerr.FieldProvider("anthropic"))
	}
	return nil
}

func (e *Engine) Close() error { return nil }

// buildParams converts an engine.Request into Anthropic SDK MessageNewParams.
func buildParams(req engine.Request) (anthropicsdk.MessageNewParams, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return anthropicsdk.MessageNewParams{}, err
	}

	maxTokens := int64(req.Options.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}

	if req.System != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.System},
		}
	}

	if req.Options.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(float64(req.Options.Temperature))
	}

	return params, nil
}

// convertMessages transforms engine.Message slices into Anthropic SDK
// MessageParam slices. System messages are carried in the top-level system
// param, not as individual messages.
func convertMessages(msgs []engine.Message) ([]anthropicsdk.MessageParam, error) {
	var result []anthropicsdk.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case engine.MessageRoleUser:
			result = append(result, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case engine.MessageRoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case engine.MessageRoleSystem:
			continue
		default:
			return nil, alcoveerr.Errorf(alcoveerr.CodeEngineUpstreamFailure,
				"anthropic: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}

// streamChat runs the streaming loop, converting SDK events into engine events.
func (e *Engine) streamChat(ctx context.Context, params anthropicsdk.MessageNewParams, ch chan<- engine.Event) {
	stream := e.client.Messages.NewStreaming(ctx, params)

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" {
				select {
				case ch <- engine.Event{Type: engine.EventTypeTextDelta, Text: event.Delta.Text}:
				case <-ctx.Done():
					return
				}
			}

		case "message_stop":
			ch <- engine.Event{Type: engine.EventTypeDone}
			return
		}
	}

	if err := stream.Err(); err != nil {
		ch <- engine.Event{Type: engine.EventTypeError, Error: err.Error()}
		return
	}

	// The stream ended without a message_stop, still send done.
	ch <- engine.Event{Type: engine.EventTypeDone}
}
