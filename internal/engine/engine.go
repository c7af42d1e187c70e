// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package engine defines the contract for streaming chat backends.
package engine

import (
	"context"
)

// Engine is the core interface for chat generation backends.
type Engine interface {
	// Name returns the backend identifier, e.g. "openai" or "ollama".
	Name() string

	// Stream starts a generation and returns a channel of events. The
	// channel is closed after a done or error event. Implementations
	// stop producing when ctx is cancelled.
	Stream(ctx context.Context, req Request) (<-chan Event, error)

	// Ping validates the backend is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Request represents a generation request.
type Request struct {
	Model    string
	System   string
	Messages []Message
	Options  Options
}

// Options contains model configuration.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// Message represents a conversation message.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Event is a streaming response event.
type Event struct {
	Type  EventType
	Text  string
	Error string
}

// EventType defines the type of stream event.
type EventType string

const (
	EventTypeTextDelta EventType = "text_delta"
	EventTypeDone      EventType = "done"
	EventTypeError     EventType = "error"
)
