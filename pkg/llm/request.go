package llm

import "encoding/json"

// ChatRequest represents a provider-agnostic chat completion request.
// This is the internal representation used by the gateway after parsing
// the caller's request format.
type ChatRequest struct {
	// Model name requested by the caller
	Model string `json:"model"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Whether to stream the response
	Stream *bool `json:"stream,omitempty"`

	// System prompt (some callers send this separately from messages)
	System string `json:"system,omitempty"`

	// Tool declarations the assistant may invoke
	Tools []Tool `json:"tools,omitempty"`

	// ReasoningEffort is the caller's reasoning-effort hint
	// ("low", "medium", "high"). Empty means default.
	ReasoningEffort string `json:"reasoning_effort,omitempty"`

	// Generation parameters
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`

	// RawRequest preserves the original request payload for cases where
	// parsing is incomplete or for debugging.
	RawRequest json.RawMessage `json:"raw_request,omitempty"`
}

// Tool is a single tool declaration offered to the assistant.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Parameters is the JSON-schema object describing the tool arguments,
	// kept opaque since the gateway forwards it verbatim.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}
