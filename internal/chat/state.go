// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package chat

// Phase tracks the engine lifecycle.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLoading       Phase = "loading"
	PhaseReady         Phase = "ready"
	PhaseFailed        Phase = "failed"
)

// State is a snapshot of the orchestrator's lifecycle, safe to hand to
// callers.
type State struct {
	Phase    Phase
	Progress string // human-readable loading progress
	Err      string // last initialization error, set when Phase is failed
	Busy     bool   // a turn is currently streaming
}

// Message is one entry of the conversation history.
type Message struct {
	Role    Role
	Content string
	// Incomplete marks an assistant message whose generation was
	// cancelled mid-stream.
	Incomplete bool
}

// Role identifies a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Partial is one update of a streaming assistant turn. Content always
// carries the full accumulated text so far, not a delta.
type Partial struct {
	Content string
	Done    bool
	Err     error
}
