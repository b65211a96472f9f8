// Package transform renders extracted backend content in the caller-facing
// Chat Completions dialect: a single completion object for buffered
// responses, incremental chunk objects for streams, and typed error bodies
// for structured backend errors.
package transform

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/wireline/pkg/upstream"
)

const (
	objectCompletion = "chat.completion"
	objectChunk      = "chat.completion.chunk"

	finishStop      = "stop"
	finishToolCalls = "tool_calls"
)

// Outcome pairs an HTTP status with the JSON body to send for it. Backend
// errors are ordinary outcomes, not Go errors: the transformer never fails.
type Outcome struct {
	Status int
	Body   any
}

// Completion consumes a full buffered response body (one or more frames) and
// packages it as a single completion object. Text and reasoning fragments
// across frames concatenate; the last tool call wins. A structured backend
// error anywhere in the body short-circuits to the mapped error outcome.
func Completion(body []byte, model string) Outcome {
	parser := upstream.NewStreamParser()

	var content, reasoning strings.Builder
	var toolCall *upstream.ToolInvocation

	for _, ev := range parser.Push(body) {
		switch ev.Kind {
		case upstream.EventText:
			content.WriteString(ev.Text)
		case upstream.EventThinking:
			reasoning.WriteString(ev.Text)
		case upstream.EventToolCall:
			toolCall = ev.ToolCall
		case upstream.EventError:
			return ErrorOutcome(ev.Err)
		}
	}

	msg := CompletionMessage{
		Role:             "assistant",
		Content:          content.String(),
		ReasoningContent: reasoning.String(),
	}

	finish := finishStop
	if toolCall != nil {
		finish = finishToolCalls
		msg.ToolCalls = []ToolCall{{
			ID:   toolCall.ID,
			Type: "function",
			Function: FunctionCall{
				Name:      toolCall.Name,
				Arguments: toolCall.Arguments,
			},
		}}
	}

	return Outcome{
		Status: http.StatusOK,
		Body: CompletionResponse{
			ID:      completionID(),
			Object:  objectCompletion,
			Created: time.Now().Unix(),
			Model:   model,
			Choices: []Choice{{Message: msg, FinishReason: finish}},
		},
	}
}

// ErrorOutcome maps a backend error event to its caller-facing outcome.
func ErrorOutcome(err *upstream.ErrorEvent) Outcome {
	return Outcome{
		Status: err.Status,
		Body: ErrorResponse{
			Error: ErrorBody{
				Type:    err.Type,
				Message: err.Message,
			},
		},
	}
}

func completionID() string {
	return "chatcmpl-" + uuid.NewString()
}
