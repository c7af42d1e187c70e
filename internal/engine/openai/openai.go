// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package openai implements the engine contract using the OpenAI Chat
// Completions API.
package openai

import (
	"context"

	"github.com/alcove-dev/alcove/internal/engine"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// Compile-time interface check.
var _ engine.Engine = (*Engine)(nil)

// Config holds OpenAI engine configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Engine implements engine.Engine using the OpenAI Chat Completions API.
type Engine struct {
	client openaisdk.Client
	config Config
}

// New creates a new OpenAI engine. Returns an error if the API key is missing.
func New(cfg Config) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, alcoveerr.New(alcoveerr.CodeConfigValidateInvalidValue, "openai: missing api_key in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Engine{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (e *Engine) Name() string { return "openai" }

// Stream starts a streaming chat completion.
func (e *Engine) Stream(ctx context.Context, req engine.Request) (<-chan engine.Event, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "openai: building request params")
	}

	eventCh := make(chan engine.Event, 100)

	go func() {
		defer close(eventCh)
		e.streamChat(ctx, params, eventCh)
	}()

	return eventCh, nil
}

// Ping validates the API key by listing models, which runs no inference.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.client.Models.List(ctx); err != nil {
		return alcoveerr.Wrap(err, alcoveerr.CodeEngineUpstreamFailure, "pinging openai",
			alcoveerr.FieldProvider("openai"))
	}
	return nil
}

func (e *Engine) Close() error { return nil }

// buildParams converts an engine.Request into OpenAI SDK ChatCompletionNewParams.
func buildParams(req engine.Request) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := convertMessages(req.Messages, req.System)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: msgs,
	}

	if req.Options.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.Options.MaxTokens))
	}

	if req.Options.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Options.Temperature))
	}

	return params, nil
}

// convertMessages transforms engine.Message slices into OpenAI SDK message
// param slices. The system prompt is prepended as a system message if present.
func convertMessages(msgs []engine.Message, system string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	var result []openaisdk.ChatCompletionMessageParamUnion

	if system != "" {
		result = append(result, openaisdk.SystemMessage(system))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case engine.MessageRoleUser:
			result = append(result, openaisdk.UserMessage(msg.Content))
		case engine.MessageRoleAssistant:
			result = append(result, openaisdk.AssistantMessage(msg.Content))
		case engine.MessageRoleSystem:
			result = append(result, openaisdk.SystemMessage(msg.Content))
		default:
			return nil, alcoveerr.Errorf(alcoveerr.CodeEngineUpstreamFailure,
				"openai: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}

// streamChat runs the streaming loop, converting SDK chunks into engine events.
func (e *Engine) streamChat(ctx context.Context, params openaisdk.ChatCompletionNewParams, ch chan<- engine.Event) {
	stream := e.client.Chat.Completions.NewStreaming(ctx, params)

	for stream.Next() {
		chunk := stream.Current()

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				select {
				case ch <- engine.Event{Type: engine.EventTypeTextDelta, Text: choice.Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		ch <- engine.Event{Type: engine.EventTypeError, Error: err.Error()}
		return
	}

	ch <- engine.Event{Type: engine.EventTypeDone}
}
