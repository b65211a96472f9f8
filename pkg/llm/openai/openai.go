// Package openai parses inbound OpenAI-format chat completion requests into
// the gateway's internal conversation model. This is the caller-facing edge:
// wireline speaks the Chat Completions dialect to its clients while the
// upstream backend speaks a binary protocol.
package openai

import (
	"encoding/json"

	"github.com/papercomputeco/wireline/pkg/llm"
)

// ParseRequest converts an OpenAI-format chat completion request into the
// internal format. Returns an error if the payload cannot be parsed.
func ParseRequest(payload []byte) (*llm.ChatRequest, error) {
	var req openaiRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		converted := llm.Message{Role: msg.Role}

		switch content := msg.Content.(type) {
		case string:
			converted.Content = []llm.ContentBlock{{Type: "text", Text: content}}
		case []any:
			// Multi-part content: keep the text parts.
			for _, item := range content {
				if part, ok := item.(map[string]any); ok {
					if text, ok := part["text"].(string); ok {
						converted.Content = append(converted.Content, llm.ContentBlock{Type: "text", Text: text})
					}
				}
			}
		case nil:
			// Empty content (can happen with tool calls)
			converted.Content = []llm.ContentBlock{}
		}

		// Tool calls in assistant messages
		for _, tc := range msg.ToolCalls {
			converted.Content = append(converted.Content, llm.ContentBlock{
				Type:      "tool_use",
				ToolUseID: tc.ID,
				ToolName:  tc.Function.Name,
				ToolArgs:  tc.Function.Arguments,
			})
		}

		// Tool results
		if msg.Role == "tool" && msg.ToolCallID != "" {
			text := ""
			if s, ok := msg.Content.(string); ok {
				text = s
			}
			converted.Content = []llm.ContentBlock{{
				Type:         "tool_result",
				ToolResultID: msg.ToolCallID,
				ToolOutput:   text,
			}}
		}

		messages = append(messages, converted)
	}

	// Parse stop sequences
	var stop []string
	switch s := req.Stop.(type) {
	case string:
		stop = []string{s}
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok {
				stop = append(stop, str)
			}
		}
	}

	// Tool declarations arrive wrapped in a "function" object.
	var tools []llm.Tool
	for _, t := range req.Tools {
		if t.Function.Name == "" {
			continue
		}
		tools = append(tools, llm.Tool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		})
	}

	return &llm.ChatRequest{
		Model:           req.Model,
		Messages:        messages,
		Tools:           tools,
		ReasoningEffort: req.ReasoningEffort,
		MaxTokens:       req.MaxTokens,
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		Stop:            stop,
		Stream:          req.Stream,
		RawRequest:      payload,
	}, nil
}
