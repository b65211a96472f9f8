package transform

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wireline/pkg/upstream"
	"github.com/papercomputeco/wireline/pkg/upstream/upstreamtest"
)

var _ = Describe("Completion", func() {
	It("packages extracted text as a completion at success status", func() {
		outcome := Completion(upstreamtest.TextFrame("hello caller"), "sonnet-lite")
		Expect(outcome.Status).To(Equal(http.StatusOK))

		resp, ok := outcome.Body.(CompletionResponse)
		Expect(ok).To(BeTrue())
		Expect(resp.Object).To(Equal("chat.completion"))
		Expect(resp.Model).To(Equal("sonnet-lite"))
		Expect(resp.ID).To(HavePrefix("chatcmpl-"))
		Expect(resp.Choices).To(HaveLen(1))
		Expect(resp.Choices[0].Message.Role).To(Equal("assistant"))
		Expect(resp.Choices[0].Message.Content).To(Equal("hello caller"))
		Expect(resp.Choices[0].Message.ReasoningContent).To(BeEmpty())
		Expect(resp.Choices[0].FinishReason).To(Equal("stop"))
	})

	It("defaults content to the empty string when nothing decoded", func() {
		outcome := Completion(upstreamtest.ResponseFrame("", ""), "m")
		resp := outcome.Body.(CompletionResponse)
		Expect(resp.Choices[0].Message.Content).To(Equal(""))
		Expect(resp.Choices[0].FinishReason).To(Equal("stop"))
	})

	It("carries reasoning content alongside text", func() {
		outcome := Completion(upstreamtest.ResponseFrame("answer", "chain of thought"), "m")
		resp := outcome.Body.(CompletionResponse)
		Expect(resp.Choices[0].Message.Content).To(Equal("answer"))
		Expect(resp.Choices[0].Message.ReasoningContent).To(Equal("chain of thought"))
	})

	It("concatenates text across multiple frames", func() {
		body := append(upstreamtest.TextFrame("first "), upstreamtest.TextFrame("second")...)
		resp := Completion(body, "m").Body.(CompletionResponse)
		Expect(resp.Choices[0].Message.Content).To(Equal("first second"))
	})

	It("shapes a tool call with the tool_calls finish reason", func() {
		body := upstreamtest.ToolCallFrame("call_1", "read_file", `{"path":"a"}`, true)
		resp := Completion(body, "m").Body.(CompletionResponse)
		Expect(resp.Choices[0].FinishReason).To(Equal("tool_calls"))
		Expect(resp.Choices[0].Message.ToolCalls).To(HaveLen(1))

		tc := resp.Choices[0].Message.ToolCalls[0]
		Expect(tc.ID).To(Equal("call_1"))
		Expect(tc.Type).To(Equal("function"))
		Expect(tc.Function.Name).To(Equal("read_file"))
		Expect(tc.Function.Arguments).To(Equal(`{"path":"a"}`))
	})

	It("handles compressed response frames", func() {
		outcome := Completion(upstreamtest.CompressedResponseFrame("zipped", ""), "m")
		resp := outcome.Body.(CompletionResponse)
		Expect(resp.Choices[0].Message.Content).To(Equal("zipped"))
	})

	It("maps a framed rate-limit error body to 429 rate_limit_error", func() {
		body := upstreamtest.ErrorFrame("resource_exhausted", "Rate limit exceeded")
		outcome := Completion(body, "m")
		Expect(outcome.Status).To(Equal(http.StatusTooManyRequests))

		er, ok := outcome.Body.(ErrorResponse)
		Expect(ok).To(BeTrue())
		Expect(er.Error.Type).To(Equal("rate_limit_error"))
		Expect(er.Error.Message).To(Equal("Rate limit exceeded"))
	})

	It("maps unknown backend errors to 500 api_error", func() {
		outcome := Completion(upstreamtest.ErrorFrame("unavailable", "backend down"), "m")
		Expect(outcome.Status).To(Equal(http.StatusInternalServerError))
		Expect(outcome.Body.(ErrorResponse).Error.Type).To(Equal("api_error"))
	})
})

var _ = Describe("StreamEmitter", func() {
	var e *StreamEmitter

	BeforeEach(func() {
		e = NewStreamEmitter("sonnet-lite")
	})

	chunkFor := func(b []byte) *StreamChunk {
		events := upstream.NewStreamParser().Push(b)
		Expect(events).To(HaveLen(1))
		return e.Chunk(events[0])
	}

	It("announces the assistant role on the first chunk only", func() {
		first := chunkFor(upstreamtest.TextFrame("a"))
		Expect(first.Choices[0].Delta.Role).To(Equal("assistant"))

		second := chunkFor(upstreamtest.TextFrame("b"))
		Expect(second.Choices[0].Delta.Role).To(BeEmpty())
	})

	It("shares id, model and creation time across chunks", func() {
		first := chunkFor(upstreamtest.TextFrame("a"))
		second := chunkFor(upstreamtest.TextFrame("b"))
		Expect(second.ID).To(Equal(first.ID))
		Expect(second.Created).To(Equal(first.Created))
		Expect(second.Model).To(Equal("sonnet-lite"))
		Expect(first.Object).To(Equal("chat.completion.chunk"))
	})

	It("puts thinking text in reasoning_content with the content delta shape", func() {
		chunk := chunkFor(upstreamtest.ThinkingFrame("pondering"))
		Expect(chunk.Choices[0].Delta.ReasoningContent).To(Equal("pondering"))
		Expect(chunk.Choices[0].Delta.Content).To(BeEmpty())
		Expect(chunk.Choices[0].FinishReason).To(BeNil())
	})

	It("names a tool call only on its first fragment", func() {
		first := chunkFor(upstreamtest.ToolCallFrame("call_1", "search", `{"q":`, false))
		Expect(first.Choices[0].Delta.ToolCalls).To(HaveLen(1))
		Expect(first.Choices[0].Delta.ToolCalls[0].ID).To(Equal("call_1"))
		Expect(first.Choices[0].Delta.ToolCalls[0].Type).To(Equal("function"))
		Expect(first.Choices[0].Delta.ToolCalls[0].Function.Name).To(Equal("search"))
		Expect(first.Choices[0].Delta.ToolCalls[0].Index).To(Equal(0))

		second := chunkFor(upstreamtest.ToolCallFrame("call_1", "search", `"go"}`, true))
		Expect(second.Choices[0].Delta.ToolCalls[0].ID).To(BeEmpty())
		Expect(second.Choices[0].Delta.ToolCalls[0].Function.Name).To(BeEmpty())
		Expect(second.Choices[0].Delta.ToolCalls[0].Function.Arguments).To(Equal(`"go"}`))
		Expect(second.Choices[0].Delta.ToolCalls[0].Index).To(Equal(0))
	})

	It("assigns increasing indexes to distinct tool calls", func() {
		chunkFor(upstreamtest.ToolCallFrame("call_1", "a", "{}", false))
		chunk := chunkFor(upstreamtest.ToolCallFrame("call_2", "b", "{}", false))
		Expect(chunk.Choices[0].Delta.ToolCalls[0].Index).To(Equal(1))
	})

	It("closes with stop when no tools were called", func() {
		chunkFor(upstreamtest.TextFrame("done"))
		final := e.Final()
		Expect(final.Choices[0].FinishReason).NotTo(BeNil())
		Expect(*final.Choices[0].FinishReason).To(Equal("stop"))
		Expect(final.Choices[0].Delta).To(Equal(Delta{}))
	})

	It("closes with tool_calls when a tool was called", func() {
		chunkFor(upstreamtest.ToolCallFrame("call_1", "a", "{}", true))
		Expect(*e.Final().Choices[0].FinishReason).To(Equal("tool_calls"))
	})
})
