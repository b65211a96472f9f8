package upstream

import (
	"github.com/google/uuid"

	"github.com/papercomputeco/wireline/pkg/frame"
	"github.com/papercomputeco/wireline/pkg/llm"
	"github.com/papercomputeco/wireline/pkg/wire"
)

// BuildRequest composes one framed request body from a parsed conversation.
// The result is ready to POST to the backend as application/connect+proto.
//
// Every turn receives a freshly generated unique id, the final turn carries
// the is-last flag, and tool results from "tool" role messages attach to the
// next user or assistant turn. Declaring any tool switches the request into
// agent mode, which requires four fields toggled together (see schema.go).
func BuildRequest(req *llm.ChatRequest) []byte {
	return frame.Wrap(buildRequestPayload(req), false)
}

// BuildRequestCompressed is BuildRequest with the frame payload gzipped and
// the compression flag set.
func BuildRequestCompressed(req *llm.ChatRequest) []byte {
	return frame.Wrap(buildRequestPayload(req), true)
}

func buildRequestPayload(req *llm.ChatRequest) []byte {
	var buf []byte

	buf = wire.AppendString(buf, reqModel, req.Model)

	turns := collectTurns(req.Messages)
	for i, t := range turns {
		t.isLast = i == len(turns)-1
		buf = wire.AppendBytes(buf, reqTurns, encodeTurn(t))
	}

	for _, tool := range req.Tools {
		buf = wire.AppendBytes(buf, reqTools, encodeToolDecl(tool))
	}

	// The four mode fields move in lockstep: agentic marker, supported-tools
	// marker, mode enum, mode name.
	if len(req.Tools) > 0 {
		buf = wire.AppendBool(buf, reqAgenticMode, true)
		buf = wire.AppendBool(buf, reqSupportsTools, true)
		buf = wire.AppendVarint(buf, reqModeKind, modeAgent)
		buf = wire.AppendString(buf, reqModeName, modeNameAgent)
	} else {
		buf = wire.AppendVarint(buf, reqModeKind, modeChat)
		buf = wire.AppendString(buf, reqModeName, modeNameChat)
	}

	buf = wire.AppendVarint(buf, reqThinkingLevel, thinkingLevel(req.ReasoningEffort))

	for _, s := range requestSentinels {
		buf = wire.AppendVarint(buf, s.num, s.value)
	}

	return buf
}

// turn is the outbound shape of one conversation turn.
type turn struct {
	role        uint32
	text        string
	isLast      bool
	toolResults []llm.ContentBlock
}

// collectTurns flattens messages into outbound turns. Tool-role messages do
// not become turns of their own: their results are held pending and attached
// to the next user or assistant turn. Pending results left at the end of the
// conversation ride on a trailing empty user turn so they are never dropped.
func collectTurns(messages []llm.Message) []turn {
	var turns []turn
	var pending []llm.ContentBlock

	for _, msg := range messages {
		if msg.Role == "tool" {
			pending = append(pending, msg.ToolResults()...)
			continue
		}

		t := turn{
			role: turnRoleOf(msg.Role),
			text: msg.GetText(),
		}
		// Assistant tool_use blocks echo back as pending results only when
		// the caller supplied outputs; the declarations themselves are not
		// re-sent.
		pending = append(pending, msg.ToolResults()...)
		t.toolResults = pending
		pending = nil
		turns = append(turns, t)
	}

	if len(pending) > 0 {
		turns = append(turns, turn{role: roleUser, toolResults: pending})
	}

	return turns
}

func turnRoleOf(role string) uint32 {
	switch role {
	case "assistant":
		return roleAssistant
	case "system":
		return roleSystem
	default:
		return roleUser
	}
}

func encodeTurn(t turn) []byte {
	var buf []byte
	buf = wire.AppendString(buf, turnID, uuid.NewString())
	buf = wire.AppendVarint(buf, turnRole, t.role)
	buf = wire.AppendString(buf, turnText, t.text)
	if t.isLast {
		buf = wire.AppendBool(buf, turnIsLast, true)
	}
	for _, res := range t.toolResults {
		buf = wire.AppendBytes(buf, turnToolResults, encodeToolResult(res))
	}
	return buf
}

func encodeToolResult(res llm.ContentBlock) []byte {
	var buf []byte
	buf = wire.AppendString(buf, toolResultID, res.ToolResultID)
	buf = wire.AppendString(buf, toolResultBody, res.ToolOutput)
	if res.IsError {
		buf = wire.AppendBool(buf, toolResultIsError, true)
	}
	return buf
}

func encodeToolDecl(tool llm.Tool) []byte {
	var buf []byte
	buf = wire.AppendString(buf, toolDeclName, tool.Name)
	if tool.Description != "" {
		buf = wire.AppendString(buf, toolDeclDesc, tool.Description)
	}
	if len(tool.Parameters) > 0 {
		buf = wire.AppendBytes(buf, toolDeclSchema, tool.Parameters)
	}
	return buf
}

// thinkingLevel maps the caller's reasoning-effort hint onto the backend's
// three-valued enum. Anything that is not "medium" or "high" means low.
func thinkingLevel(effort string) uint32 {
	switch effort {
	case "medium":
		return thinkingMedium
	case "high":
		return thinkingHigh
	default:
		return thinkingLow
	}
}
