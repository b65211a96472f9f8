// Package upstream implements the binary protocol spoken by the completion
// backend: building outbound request messages from the generic conversation
// model, extracting content from decoded response messages, and reassembling
// framed responses from an arbitrarily-chunked byte stream.
//
// The backend publishes no schema. The field tables below are closed,
// hand-maintained constants recovered from the wire; every field access in
// this package goes through them so the raw numbers appear exactly once.
package upstream

// Request envelope fields. The backend rejects requests missing the sentinel
// fields listed in requestSentinels, even though their values never vary.
const (
	reqModel         uint32 = 1  // string model name
	reqTurns         uint32 = 2  // repeated chat turn message
	reqTools         uint32 = 5  // repeated tool declaration message
	reqAgenticMode   uint32 = 8  // bool, set when any tool is declared
	reqSupportsTools uint32 = 9  // bool, set when any tool is declared
	reqModeKind      uint32 = 16 // enum modeChat/modeAgent
	reqModeName      uint32 = 17 // human-readable mode name string
	reqThinkingLevel uint32 = 24 // enum thinkingLow/Medium/High
)

// Chat-vs-agent mode enum for reqModeKind, with the reqModeName string the
// backend expects alongside each value. The four mode fields (reqAgenticMode,
// reqSupportsTools, reqModeKind, reqModeName) must toggle in lockstep;
// partial toggling makes the backend misbehave.
const (
	modeChat  uint32 = 1
	modeAgent uint32 = 2

	modeNameChat  = "CHAT"
	modeNameAgent = "AGENT"
)

// Thinking-level enum for reqThinkingLevel.
const (
	thinkingLow    uint32 = 1
	thinkingMedium uint32 = 2
	thinkingHigh   uint32 = 3
)

// requestSentinels are the fixed varint fields the backend requires for
// acceptance, independent of the conversation content. Numbers interleave
// with the semantic fields across 1-54.
var requestSentinels = []struct {
	num   uint32
	value uint32
}{
	{3, 1},  // wire schema revision
	{10, 1}, // client capability: streaming
	{21, 0}, // reserved routing hint
	{33, 1}, // accept-compressed marker
	{54, 1}, // envelope terminator the backend checks for
}

// Chat turn message fields (nested under reqTurns).
const (
	turnID          uint32 = 1 // string, fresh unique id per turn
	turnRole        uint32 = 2 // enum roleUser/roleAssistant/roleSystem
	turnText        uint32 = 3 // string content
	turnIsLast      uint32 = 4 // bool, set on the final turn only
	turnToolResults uint32 = 6 // repeated tool result message
)

// Turn role enum for turnRole.
const (
	roleUser      uint32 = 1
	roleAssistant uint32 = 2
	roleSystem    uint32 = 3
)

// Tool result message fields (nested under turnToolResults).
const (
	toolResultID      uint32 = 1 // string, references the originating call id
	toolResultBody    uint32 = 2 // string output
	toolResultIsError uint32 = 3 // bool
)

// Tool declaration message fields (nested under reqTools).
const (
	toolDeclName   uint32 = 1 // string
	toolDeclDesc   uint32 = 2 // string
	toolDeclSchema uint32 = 3 // string, JSON schema forwarded verbatim
)

// Response envelope fields. Exactly two top-level fields matter: a tool call
// or a response body; either may be absent.
const (
	respBody     uint32 = 3  // nested response body message
	respToolCall uint32 = 12 // nested tool call message
)

// Response body message fields (nested under respBody).
const (
	bodyText     uint32 = 1 // string visible text
	bodyThinking uint32 = 5 // nested thinking message
)

// Thinking message fields (nested under bodyThinking).
const (
	thinkingText uint32 = 1 // string reasoning text
)

// Tool call message fields (nested under respToolCall).
const (
	callID         uint32 = 1 // string; backend appends diagnostics after a newline
	callName       uint32 = 2 // string
	callIsLast     uint32 = 3 // bool, final chunk of this invocation
	callRawArgs    uint32 = 4 // string, flat JSON arguments (fallback)
	callParamsList uint32 = 5 // repeated params entry message (authoritative)
)

// Params entry message fields (nested under callParamsList).
const (
	entryParams uint32 = 1 // nested params message
)

// Params message fields (nested under entryParams).
const (
	paramsName uint32 = 1 // string, overrides the top-level call name
	paramsArgs uint32 = 2 // string, JSON arguments
)
