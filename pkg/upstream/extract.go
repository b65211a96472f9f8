package upstream

import (
	"strings"

	"github.com/papercomputeco/wireline/pkg/utils"
	"github.com/papercomputeco/wireline/pkg/wire"
)

// Content is the best-effort extraction of one decoded response message.
// Any combination of fields may be empty; a zero Content means the message
// carried nothing recognizable. Extraction never fails.
type Content struct {
	Text     string
	Thinking string
	ToolCall *ToolInvocation
}

// Empty reports whether nothing was extracted.
func (c Content) Empty() bool {
	return c.Text == "" && c.Thinking == "" && c.ToolCall == nil
}

// ExtractContent reads the two top-level fields a response message may
// carry — a tool call or a response body — and pulls out text, reasoning
// text, and tool invocation content. Missing or malformed fields resolve to
// their zero values; each step reports presence explicitly so that
// "malformed" and "absent" stay distinguishable here even though both
// collapse to an empty result at the boundary.
func ExtractContent(msg wire.Message) Content {
	var c Content

	if call, ok := msg.Inner(respToolCall); ok {
		c.ToolCall = extractToolCall(call)
	}

	if body, ok := msg.Inner(respBody); ok {
		if text, ok := body.Text(bodyText); ok {
			c.Text = text
		}
		if thinking, ok := body.Inner(bodyThinking); ok {
			if text, ok := thinking.Text(thinkingText); ok {
				c.Thinking = text
			}
		}
	}

	return c
}

// extractToolCall decodes a tool call sub-message. The id field is only
// meaningful up to its first newline: the backend appends diagnostic text
// after it. Arguments resolve by precedence: the nested params entry wins
// (including its name override), then the flat raw-arguments field, then the
// empty JSON object. A call without both an id and a name is discarded.
func extractToolCall(call wire.Message) *ToolInvocation {
	inv := &ToolInvocation{Arguments: "{}"}

	if id, ok := call.Text(callID); ok {
		inv.ID = strings.TrimSpace(utils.FirstLine(id))
	}
	if name, ok := call.Text(callName); ok {
		inv.Name = name
	}
	inv.IsLast = call.Bool(callIsLast)

	params, hasParams := nestedParams(call)
	switch {
	case hasParams:
		if name, ok := params.Text(paramsName); ok && name != "" {
			inv.Name = name
		}
		if args, ok := params.Text(paramsArgs); ok && args != "" {
			inv.Arguments = args
		}
	default:
		if raw, ok := call.Text(callRawArgs); ok && raw != "" {
			inv.Arguments = raw
		}
	}

	if inv.ID == "" || inv.Name == "" {
		return nil
	}
	return inv
}

// nestedParams walks the authoritative params path: first entry of the
// params list, then its nested params message.
func nestedParams(call wire.Message) (wire.Message, bool) {
	entries := call.GetRepeated(callParamsList)
	if len(entries) == 0 || entries[0].Type != wire.TypeLen {
		return wire.Message{}, false
	}
	entry := wire.Decode(entries[0].Bytes)
	return entry.Inner(entryParams)
}
