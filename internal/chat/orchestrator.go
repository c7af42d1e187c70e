// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

// Package chat coordinates retrieval-grounded conversations over a
// streaming engine. One orchestrator owns one conversation history and
// runs at most one turn at a time.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/alcove-dev/alcove/internal/engine"
	"github.com/alcove-dev/alcove/internal/index"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// fallbackReply replaces the assistant message when generation fails
// mid-stream, so the history never ends on a half-formed answer.
const fallbackReply = "I encountered an error while processing that."

// Generation defaults.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1024
	DefaultTopK        = 4
)

// Retriever finds passages relevant to a query. *index.Index satisfies it.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]index.SearchResult, error)
}

// Config holds orchestrator tuning.
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
	TopK        int
}

// Orchestrator runs retrieval-grounded streaming turns.
type Orchestrator struct {
	engine    engine.Engine
	retriever Retriever
	cfg       Config
	logger    *slog.Logger

	mu           sync.Mutex
	phase        Phase
	progress     string
	initErr      error
	initializing bool
	busy         bool
	history      []Message
}

// New creates an orchestrator in the uninitialized phase, filling unset
// config fields with defaults.
func New(eng engine.Engine, retr Retriever, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		engine:    eng,
		retriever: retr,
		cfg:       cfg,
		logger:    logger.With("component", "chat"),
		phase:     PhaseUninitialized,
	}
}

// Initialize brings the engine to the ready phase. Concurrent and repeat
// calls while loading or after success are no-ops; a failed
// initialization may be retried. onProgress, when non-nil, receives
// human-readable status updates.
func (o *Orchestrator) Initialize(ctx context.Context, onProgress func(string)) error {
	o.mu.Lock()
	if o.phase == PhaseReady || o.initializing {
		o.mu.Unlock()
		return nil
	}
	o.initializing = true
	o.phase = PhaseLoading
	o.progress = "Preparing engine..."
	o.mu.Unlock()

	if onProgress != nil {
		onProgress("Preparing engine...")
	}

	err := o.engine.Ping(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.initializing = false

	if err != nil {
		o.phase = PhaseFailed
		o.initErr = err
		o.progress = ""
		o.logger.Error("engine initialization failed", "engine", o.engine.Name(), "error", err)
		return alcoveerr.Wrap(err, alcoveerr.CodeChatEngineInitFailure, "initializing engine",
			alcoveerr.FieldProvider(o.engine.Name()))
	}

	o.phase = PhaseReady
	o.initErr = nil
	o.progress = "Engine ready."
	if onProgress != nil {
		onProgress("Engine ready.")
	}
	o.logger.Info("engine ready", "engine", o.engine.Name(), "model", o.cfg.Model)
	return nil
}

// State returns a snapshot of the lifecycle.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := State{Phase: o.phase, Progress: o.progress, Busy: o.busy}
	if o.initErr != nil {
		s.Err = o.initErr.Error()
	}
	return s
}

// History returns a copy of the conversation so far.
func (o *Orchestrator) History() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Message, len(o.history))
	copy(out, o.history)
	return out
}

// Converse runs one retrieval-grounded turn. It returns a channel of
// partials where Content is always the full accumulated reply; the
// channel closes after the final partial. Exactly two messages are
// appended to the history per accepted turn: the user message and the
// assistant reply.
func (o *Orchestrator) Converse(ctx context.Context, userMsg string) (<-chan Partial, error) {
	if err := o.acquireTurn(userMsg); err != nil {
		return nil, err
	}

	// Retrieval failures abort the turn before it touches the history.
	results, err := o.retriever.Search(ctx, userMsg, o.cfg.TopK)
	if err != nil {
		o.setBusy(false)
		return nil, err
	}

	return o.startTurn(ctx, userMsg, results)
}

// ConverseWithContext runs one turn grounded in the given results,
// skipping retrieval. Otherwise identical to Converse.
func (o *Orchestrator) ConverseWithContext(ctx context.Context, userMsg string, results []index.SearchResult) (<-chan Partial, error) {
	if err := o.acquireTurn(userMsg); err != nil {
		return nil, err
	}
	return o.startTurn(ctx, userMsg, results)
}

// acquireTurn validates the message and claims the busy flag.
func (o *Orchestrator) acquireTurn(userMsg string) error {
	if strings.TrimSpace(userMsg) == "" {
		return alcoveerr.New(alcoveerr.CodeChatTurnInvalidInput, "empty user message")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseReady {
		return alcoveerr.New(alcoveerr.CodeChatEngineNotReady, "engine not ready",
			alcoveerr.Field("phase", string(o.phase)))
	}
	if o.busy {
		return alcoveerr.New(alcoveerr.CodeChatTurnBusy, "a turn is already in progress")
	}
	o.busy = true
	return nil
}

// startTurn appends the user message and an assistant placeholder, then
// begins streaming. The caller must already hold the busy flag.
func (o *Orchestrator) startTurn(ctx context.Context, userMsg string, results []index.SearchResult) (<-chan Partial, error) {
	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Text
	}

	o.mu.Lock()
	prior := make([]engine.Message, 0, len(o.history)+1)
	for _, m := range o.history {
		prior = append(prior, engine.Message{Role: engine.MessageRole(m.Role), Content: m.Content})
	}
	prior = append(prior, engine.Message{Role: engine.MessageRoleUser, Content: userMsg})

	o.history = append(o.history,
		Message{Role: RoleUser, Content: userMsg},
		Message{Role: RoleAssistant},
	)
	o.mu.Unlock()

	req := engine.Request{
		Model:    o.cfg.Model,
		System:   buildSystemPrompt(passages),
		Messages: prior,
		Options: engine.Options{
			Temperature: o.cfg.Temperature,
			MaxTokens:   o.cfg.MaxTokens,
		},
	}

	events, err := o.engine.Stream(ctx, req)
	if err != nil {
		o.updateAssistant(fallbackReply, false)
		o.setBusy(false)
		return nil, alcoveerr.Wrap(err, alcoveerr.CodeChatTurnGenerationFailure, "starting generation",
			alcoveerr.FieldModel(o.cfg.Model))
	}

	out := make(chan Partial, 16)
	go o.pump(ctx, events, out)
	return out, nil
}

// pump drains engine events into partials, keeping the assistant
// placeholder in the history current with the accumulated text.
func (o *Orchestrator) pump(ctx context.Context, events <-chan engine.Event, out chan<- Partial) {
	defer close(out)

	var acc strings.Builder

	for {
		select {
		case <-ctx.Done():
			o.updateAssistant(acc.String(), true)
			o.setBusy(false)
			out <- Partial{
				Content: acc.String(),
				Done:    true,
				Err: alcoveerr.Wrap(ctx.Err(), alcoveerr.CodeChatTurnCancelled,
					"generation cancelled"),
			}
			return

		case ev, ok := <-events:
			if !ok {
				// Engine closed without a done event; keep what we have.
				o.updateAssistant(acc.String(), false)
				o.setBusy(false)
				out <- Partial{Content: acc.String(), Done: true}
				return
			}

			switch ev.Type {
			case engine.EventTypeTextDelta:
				acc.WriteString(ev.Text)
				o.updateAssistant(acc.String(), false)
				select {
				case out <- Partial{Content: acc.String()}:
				case <-ctx.Done():
				}

			case engine.EventTypeDone:
				o.updateAssistant(acc.String(), false)
				o.setBusy(false)
				out <- Partial{Content: acc.String(), Done: true}
				return

			case engine.EventTypeError:
				o.logger.Error("generation failed", "error", ev.Error)
				o.updateAssistant(fallbackReply, false)
				o.setBusy(false)
				out <- Partial{
					Content: fallbackReply,
					Done:    true,
					Err: alcoveerr.Errorf(alcoveerr.CodeChatTurnGenerationFailure,
						"generation failed: %s", ev.Error),
				}
				return
			}
		}
	}
}

func (o *Orchestrator) updateAssistant(content string, incomplete bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.history) == 0 {
		return
	}
	last := &o.history[len(o.history)-1]
	if last.Role != RoleAssistant {
		return
	}
	last.Content = content
	last.Incomplete = incomplete
}

func (o *Orchestrator) setBusy(b bool) {
	o.mu.Lock()
	o.busy = b
	o.mu.Unlock()
}

// Close releases the engine.
func (o *Orchestrator) Close() error {
	return o.engine.Close()
}
