package upstream

import (
	"encoding/json"
	"net/http"

	"github.com/papercomputeco/wireline/pkg/frame"
	"github.com/papercomputeco/wireline/pkg/wire"
)

// StreamParser reassembles discrete frames from an arbitrarily-fragmented
// byte stream and turns each complete frame into content events. One parser
// serves exactly one response stream; Push calls must happen in arrival
// order and the carry buffer is not safe for concurrent use.
type StreamParser struct {
	// buf is the carry buffer: bytes received but not yet resolved into a
	// complete frame. cursor marks how far into buf frames have been
	// consumed; compact drops the consumed prefix after every push so the
	// buffer stays bounded on long-lived streams.
	buf    []byte
	cursor int
}

// NewStreamParser returns a parser with an empty carry buffer.
func NewStreamParser() *StreamParser {
	return &StreamParser{}
}

// Push appends chunk to the carry buffer and resolves as many complete
// frames as are now buffered, returning their events in arrival order.
// An incomplete trailing frame consumes nothing: the same header is re-read
// on the next push. A backend error frame emits a single error event and
// stops the push; frames queued behind it stay buffered.
func (p *StreamParser) Push(chunk []byte) []Event {
	p.buf = append(p.buf, chunk...)
	defer p.compact()

	var events []Event
	for {
		payload, consumed, ok := frame.Parse(p.buf[p.cursor:])
		if !ok {
			break
		}
		p.cursor += consumed

		if errEvent := classifyError(payload); errEvent != nil {
			events = append(events, Event{Kind: EventError, Err: errEvent})
			break
		}

		content := ExtractContent(wire.Decode(payload))
		if content.Text != "" {
			events = append(events, Event{Kind: EventText, Text: content.Text})
		}
		if content.Thinking != "" {
			events = append(events, Event{Kind: EventThinking, Text: content.Thinking})
		}
		if content.ToolCall != nil {
			events = append(events, Event{Kind: EventToolCall, ToolCall: content.ToolCall})
		}
	}

	return events
}

// HasPartial reports whether unconsumed bytes remain in the carry buffer.
// True at stream close means the response was truncated mid-frame.
func (p *StreamParser) HasPartial() bool {
	return p.cursor < len(p.buf)
}

// compact drops the fully-consumed prefix of the carry buffer.
func (p *StreamParser) compact() {
	if p.cursor == 0 {
		return
	}
	n := copy(p.buf, p.buf[p.cursor:])
	p.buf = p.buf[:n]
	p.cursor = 0
}

// backendError is the JSON error body the backend sends in place of an
// encoded message.
type backendError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// backend error codes with a dedicated caller-facing mapping.
const codeResourceExhausted = "resource_exhausted"

// classifyError returns the mapped error event when payload is a structured
// backend error, and nil for ordinary encoded messages.
func classifyError(payload []byte) *ErrorEvent {
	if len(payload) == 0 || payload[0] != '{' {
		return nil
	}

	var be backendError
	if err := json.Unmarshal(payload, &be); err != nil || be.Error.Code == "" {
		return nil
	}

	if be.Error.Code == codeResourceExhausted {
		return &ErrorEvent{
			Status:  http.StatusTooManyRequests,
			Type:    "rate_limit_error",
			Message: be.Error.Message,
		}
	}

	return &ErrorEvent{
		Status:  http.StatusInternalServerError,
		Type:    "api_error",
		Message: be.Error.Message,
	}
}
