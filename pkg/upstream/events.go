package upstream

import "fmt"

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// EventText is a chunk of visible assistant text.
	EventText EventKind = iota

	// EventThinking is a chunk of assistant reasoning text.
	EventThinking

	// EventToolCall is a (possibly partial) tool invocation.
	EventToolCall

	// EventError is a structured backend error. It is a legitimate
	// application response, not a codec failure.
	EventError
)

// Event is one content event produced while consuming a response stream.
// Exactly one of the payload fields is populated, selected by Kind.
type Event struct {
	Kind EventKind

	// Text carries the chunk text for EventText and EventThinking.
	Text string

	// ToolCall carries the invocation for EventToolCall.
	ToolCall *ToolInvocation

	// Err carries the mapped backend error for EventError.
	Err *ErrorEvent
}

// ToolInvocation is a tool call extracted from a response message.
type ToolInvocation struct {
	ID        string
	Name      string
	Arguments string // JSON-encoded, "{}" when the backend sent none
	IsLast    bool   // final chunk of this invocation
}

// ErrorEvent is a backend error payload mapped to a caller-facing status.
type ErrorEvent struct {
	Status  int
	Type    string
	Message string
}

func (e *ErrorEvent) Error() string {
	return fmt.Sprintf("upstream error %d (%s): %s", e.Status, e.Type, e.Message)
}
