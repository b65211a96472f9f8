package transform

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/wireline/pkg/upstream"
)

// StreamEmitter renders upstream events as chat.completion.chunk objects.
// All chunks for a stream share one id, creation time and model; tool call
// fragments get a stable per-invocation index in arrival order. An emitter
// belongs to a single response stream.
type StreamEmitter struct {
	id      string
	created int64
	model   string

	sentRole  bool
	toolIndex map[string]int // tool call id -> index within tool_calls
}

// NewStreamEmitter creates an emitter for one streaming response.
func NewStreamEmitter(model string) *StreamEmitter {
	return &StreamEmitter{
		id:        "chatcmpl-" + uuid.NewString(),
		created:   time.Now().Unix(),
		model:     model,
		toolIndex: make(map[string]int),
	}
}

// Chunk maps one upstream event to a streaming chunk. Error events return
// nil: they terminate the stream through ErrorOutcome instead.
func (e *StreamEmitter) Chunk(ev upstream.Event) *StreamChunk {
	var delta Delta

	switch ev.Kind {
	case upstream.EventText:
		delta.Content = ev.Text
	case upstream.EventThinking:
		delta.ReasoningContent = ev.Text
	case upstream.EventToolCall:
		delta.ToolCalls = []DeltaToolCall{e.toolDelta(ev.ToolCall)}
	default:
		return nil
	}

	// The first chunk of the stream announces the assistant role.
	if !e.sentRole {
		delta.Role = "assistant"
		e.sentRole = true
	}

	return e.chunk(delta, nil)
}

// Final returns the closing chunk carrying the finish reason. The literal
// [DONE] marker is the transport's job, not the emitter's.
func (e *StreamEmitter) Final() *StreamChunk {
	finish := finishStop
	if len(e.toolIndex) > 0 {
		finish = finishToolCalls
	}
	return e.chunk(Delta{}, &finish)
}

func (e *StreamEmitter) toolDelta(call *upstream.ToolInvocation) DeltaToolCall {
	idx, seen := e.toolIndex[call.ID]
	if !seen {
		idx = len(e.toolIndex)
		e.toolIndex[call.ID] = idx
	}

	d := DeltaToolCall{
		Index: idx,
		Function: FunctionCall{
			Arguments: call.Arguments,
		},
	}
	// Only the first fragment of an invocation names it.
	if !seen {
		d.ID = call.ID
		d.Type = "function"
		d.Function.Name = call.Name
	}
	return d
}

func (e *StreamEmitter) chunk(delta Delta, finish *string) *StreamChunk {
	return &StreamChunk{
		ID:      e.id,
		Object:  objectChunk,
		Created: e.created,
		Model:   e.model,
		Choices: []DeltaChoice{{Delta: delta, FinishReason: finish}},
	}
}
