// Package upstreamtest synthesizes backend response frames for tests. The
// field numbers here mirror the backend's response encoding (see the field
// tables in pkg/upstream); they are duplicated deliberately so that fixtures
// state the wire layout a test depends on.
package upstreamtest

import (
	"fmt"

	"github.com/papercomputeco/wireline/pkg/frame"
	"github.com/papercomputeco/wireline/pkg/wire"
)

// Response-side field numbers as the backend emits them.
const (
	fieldBody     uint32 = 3
	fieldToolCall uint32 = 12

	fieldBodyText     uint32 = 1
	fieldBodyThinking uint32 = 5
	fieldThinkingText uint32 = 1

	fieldCallID      uint32 = 1
	fieldCallName    uint32 = 2
	fieldCallIsLast  uint32 = 3
	fieldCallRawArgs uint32 = 4
	fieldCallParams  uint32 = 5
	fieldEntryParams uint32 = 1
	fieldParamsName  uint32 = 1
	fieldParamsArgs  uint32 = 2
)

// TextFrame frames a response carrying only visible text.
func TextFrame(text string) []byte {
	return ResponseFrame(text, "")
}

// ThinkingFrame frames a response carrying only reasoning text.
func ThinkingFrame(thinking string) []byte {
	return ResponseFrame("", thinking)
}

// ResponseFrame frames a response body with the given text and thinking
// content; either may be empty.
func ResponseFrame(text, thinking string) []byte {
	return frame.Wrap(responseMessage(text, thinking), false)
}

// CompressedResponseFrame is ResponseFrame with a gzip-compressed payload.
func CompressedResponseFrame(text, thinking string) []byte {
	return frame.Wrap(responseMessage(text, thinking), true)
}

// ToolCallFrame frames a tool call using the flat raw-arguments field.
func ToolCallFrame(id, name, rawArgs string, isLast bool) []byte {
	var call []byte
	call = wire.AppendString(call, fieldCallID, id)
	call = wire.AppendString(call, fieldCallName, name)
	if isLast {
		call = wire.AppendBool(call, fieldCallIsLast, true)
	}
	if rawArgs != "" {
		call = wire.AppendString(call, fieldCallRawArgs, rawArgs)
	}
	return frame.Wrap(wire.AppendBytes(nil, fieldToolCall, call), false)
}

// NestedToolCallFrame frames a tool call whose authoritative payload rides
// the nested params path, overriding the top-level name.
func NestedToolCallFrame(id, topName, paramsName, paramsArgs string) []byte {
	var params []byte
	params = wire.AppendString(params, fieldParamsName, paramsName)
	params = wire.AppendString(params, fieldParamsArgs, paramsArgs)
	entry := wire.AppendBytes(nil, fieldEntryParams, params)

	var call []byte
	call = wire.AppendString(call, fieldCallID, id)
	call = wire.AppendString(call, fieldCallName, topName)
	call = wire.AppendBytes(call, fieldCallParams, entry)
	return frame.Wrap(wire.AppendBytes(nil, fieldToolCall, call), false)
}

// ErrorFrame frames an uncompressed backend JSON error body.
func ErrorFrame(code, message string) []byte {
	body := fmt.Sprintf(`{"error":{"code":%q,"message":%q}}`, code, message)
	return frame.Wrap([]byte(body), false)
}

func responseMessage(text, thinking string) []byte {
	var body []byte
	if text != "" {
		body = wire.AppendString(body, fieldBodyText, text)
	}
	if thinking != "" {
		inner := wire.AppendString(nil, fieldThinkingText, thinking)
		body = wire.AppendBytes(body, fieldBodyThinking, inner)
	}
	return wire.AppendBytes(nil, fieldBody, body)
}
