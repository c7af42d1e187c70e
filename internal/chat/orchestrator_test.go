// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alcove-dev/alcove/internal/chat"
	"github.com/alcove-dev/alcove/internal/engine"
	"github.com/alcove-dev/alcove/internal/index"
	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	pingErr   error
	streamErr error
	events    []engine.Event
	manual    chan engine.Event // when set, Stream returns it directly
	lastReq   engine.Request
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Stream(_ context.Context, req engine.Request) (<-chan engine.Event, error) {
	f.lastReq = req
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	if f.manual != nil {
		return f.manual, nil
	}

	ch := make(chan engine.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (f *fakeEngine) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeEngine) Close() error                 { return nil }

type fakeRetriever struct {
	results []index.SearchResult
	err     error
	lastK   int
}

func (f *fakeRetriever) Search(_ context.Context, _ string, k int) ([]index.SearchResult, error) {
	f.lastK = k
	return f.results, f.err
}

func ready(t *testing.T, eng *fakeEngine, retr *fakeRetriever) *chat.Orchestrator {
	t.Helper()

	o := chat.New(eng, retr, chat.Config{Model: "test-model"}, nil)
	require.NoError(t, o.Initialize(context.Background(), nil))
	return o
}

func collect(t *testing.T, ch <-chan chat.Partial) []chat.Partial {
	t.Helper()

	var partials []chat.Partial
	timeout := time.After(5 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return partials
			}
			partials = append(partials, p)
		case <-timeout:
			t.Fatal("timed out waiting for partials")
		}
	}
}

func TestInitialize(t *testing.T) {
	eng := &fakeEngine{}
	o := chat.New(eng, &fakeRetriever{}, chat.Config{}, nil)

	assert.Equal(t, chat.PhaseUninitialized, o.State().Phase)

	var updates []string
	require.NoError(t, o.Initialize(context.Background(), func(s string) {
		updates = append(updates, s)
	}))

	assert.Equal(t, chat.PhaseReady, o.State().Phase)
	assert.Contains(t, updates, "Engine ready.")

	// Repeat initialization is a no-op.
	require.NoError(t, o.Initialize(context.Background(), nil))
}

func TestInitialize_FailureAllowsRetry(t *testing.T) {
	eng := &fakeEngine{pingErr: alcoveerr.New(alcoveerr.CodeEngineUpstreamFailure, "down")}
	o := chat.New(eng, &fakeRetriever{}, chat.Config{}, nil)

	err := o.Initialize(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, alcoveerr.HasCode(err, alcoveerr.CodeChatEngineInitFailure))

	state := o.State()
	assert.Equal(t, chat.PhaseFailed, state.Phase)
	assert.NotEmpty(t, state.Err)

	eng.pingErr = nil
	require.NoError(t, o.Initialize(context.Background(), nil))
	assert.Equal(t, chat.PhaseReady, o.State().Phase)
}

func TestConverse_NotReady(t *testing.T) {
	o := chat.New(&fakeEngine{}, &fakeRetriever{}, chat.Config{}, nil)

	_, err := o.Converse(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsNotReady(err))
}

func TestConverse_EmptyMessage(t *testing.T) {
	o := ready(t, &fakeEngine{}, &fakeRetriever{})

	_, err := o.Converse(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsInvalidInput(err))
}

func TestConverse_StreamsAndRecordsHistory(t *testing.T) {
	eng := &fakeEngine{events: []engine.Event{
		{Type: engine.EventTypeTextDelta, Text: "The sky "},
		{Type: engine.EventTypeTextDelta, Text: "is blue."},
		{Type: engine.EventTypeDone},
	}}
	retr := &fakeRetriever{results: []index.SearchResult{
		{Text: "the sky is blue", SourceID: "sky.txt", Score: 0.9},
	}}
	o := ready(t, eng, retr)

	ch, err := o.Converse(context.Background(), "what color is the sky?")
	require.NoError(t, err)

	partials := collect(t, ch)
	require.NotEmpty(t, partials)

	// Every partial carries the full accumulated text so far.
	prev := ""
	for _, p := range partials {
		assert.True(t, strings.HasPrefix(p.Content, prev), "content must grow monotonically")
		prev = p.Content
	}

	final := partials[len(partials)-1]
	assert.True(t, final.Done)
	require.NoError(t, final.Err)
	assert.Equal(t, "The sky is blue.", final.Content)

	history := o.History()
	require.Len(t, history, 2)
	assert.Equal(t, chat.RoleUser, history[0].Role)
	assert.Equal(t, "what color is the sky?", history[0].Content)
	assert.Equal(t, chat.RoleAssistant, history[1].Role)
	assert.Equal(t, "The sky is blue.", history[1].Content)
	assert.False(t, history[1].Incomplete)

	// The retrieved passage grounds the system prompt.
	assert.Contains(t, eng.lastReq.System, "the sky is blue")
	assert.Equal(t, chat.DefaultTopK, retr.lastK)
	assert.False(t, o.State().Busy)
}

func TestConverse_NoContextUsesGeneralPrompt(t *testing.T) {
	eng := &fakeEngine{events: []engine.Event{
		{Type: engine.EventTypeTextDelta, Text: "hi"},
		{Type: engine.EventTypeDone},
	}}
	o := ready(t, eng, &fakeRetriever{})

	ch, err := o.Converse(context.Background(), "hello there")
	require.NoError(t, err)
	collect(t, ch)

	assert.NotContains(t, eng.lastReq.System, "CONTEXT:")
}

func TestConverseWithContext_SkipsRetrieval(t *testing.T) {
	eng := &fakeEngine{events: []engine.Event{
		{Type: engine.EventTypeTextDelta, Text: "ok"},
		{Type: engine.EventTypeDone},
	}}
	retr := &fakeRetriever{err: alcoveerr.New(alcoveerr.CodeIndexEmbedFailure, "embedder down")}
	o := ready(t, eng, retr)

	ch, err := o.ConverseWithContext(context.Background(), "what does the doc say?",
		[]index.SearchResult{{Text: "a passage supplied by the caller"}})
	require.NoError(t, err)
	collect(t, ch)

	// The broken retriever was never consulted.
	assert.Zero(t, retr.lastK)
	assert.Contains(t, eng.lastReq.System, "a passage supplied by the caller")

	history := o.History()
	require.Len(t, history, 2)
	assert.Equal(t, "ok", history[1].Content)
}

func TestConverse_BusyRejectsSecondTurn(t *testing.T) {
	eng := &fakeEngine{manual: make(chan engine.Event)}
	o := ready(t, eng, &fakeRetriever{})

	ch, err := o.Converse(context.Background(), "first")
	require.NoError(t, err)

	_, err = o.Converse(context.Background(), "second")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsBusy(err))

	eng.manual <- engine.Event{Type: engine.EventTypeDone}
	collect(t, ch)

	// The finished turn frees the orchestrator.
	assert.False(t, o.State().Busy)
}

func TestConverse_RetrievalFailureLeavesHistoryUntouched(t *testing.T) {
	retr := &fakeRetriever{err: alcoveerr.New(alcoveerr.CodeIndexEmbedFailure, "embedder down")}
	o := ready(t, &fakeEngine{}, retr)

	_, err := o.Converse(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, alcoveerr.IsEmbeddingFailure(err))

	assert.Empty(t, o.History())
	assert.False(t, o.State().Busy)
}

func TestConverse_MidStreamErrorFallsBack(t *testing.T) {
	eng := &fakeEngine{events: []engine.Event{
		{Type: engine.EventTypeTextDelta, Text: "partial answ"},
		{Type: engine.EventTypeError, Error: "connection reset"},
	}}
	o := ready(t, eng, &fakeRetriever{})

	ch, err := o.Converse(context.Background(), "hello")
	require.NoError(t, err)

	partials := collect(t, ch)
	final := partials[len(partials)-1]
	assert.True(t, final.Done)
	require.Error(t, final.Err)
	assert.True(t, alcoveerr.IsGenerationFailure(final.Err))

	history := o.History()
	require.Len(t, history, 2)
	assert.Equal(t, "I encountered an error while processing that.", history[1].Content)
	assert.False(t, o.State().Busy)
}

func TestConverse_CancellationMarksIncomplete(t *testing.T) {
	eng := &fakeEngine{manual: make(chan engine.Event)}
	o := ready(t, eng, &fakeRetriever{})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := o.Converse(ctx, "hello")
	require.NoError(t, err)

	eng.manual <- engine.Event{Type: engine.EventTypeTextDelta, Text: "part"}
	first := <-ch
	assert.Equal(t, "part", first.Content)

	cancel()

	partials := collect(t, ch)
	require.NotEmpty(t, partials)
	final := partials[len(partials)-1]
	assert.True(t, final.Done)
	require.Error(t, final.Err)
	assert.True(t, alcoveerr.IsCancelled(final.Err))

	history := o.History()
	require.Len(t, history, 2)
	assert.True(t, history[1].Incomplete)
	assert.Equal(t, "part", history[1].Content)
	assert.False(t, o.State().Busy)
}
