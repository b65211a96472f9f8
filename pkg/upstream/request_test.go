package upstream

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wireline/pkg/frame"
	"github.com/papercomputeco/wireline/pkg/llm"
	"github.com/papercomputeco/wireline/pkg/wire"
)

// decodeRequest unwraps and decodes a built request body.
func decodeRequest(framed []byte) wire.Message {
	payload, consumed, ok := frame.Parse(framed)
	Expect(ok).To(BeTrue())
	Expect(consumed).To(Equal(len(framed)))
	return wire.Decode(payload)
}

var _ = Describe("BuildRequest", func() {
	var req *llm.ChatRequest

	BeforeEach(func() {
		req = &llm.ChatRequest{
			Model: "sonnet-lite",
			Messages: []llm.Message{
				llm.NewTextMessage("system", "be terse"),
				llm.NewTextMessage("user", "hello"),
			},
		}
	})

	It("frames the body uncompressed", func() {
		framed := BuildRequest(req)
		Expect(framed[0]).To(Equal(frame.FlagNone))
	})

	It("carries the model name", func() {
		msg := decodeRequest(BuildRequest(req))
		model, ok := msg.Text(reqModel)
		Expect(ok).To(BeTrue())
		Expect(model).To(Equal("sonnet-lite"))
	})

	It("emits one turn per non-tool message, in order", func() {
		turns := decodeRequest(BuildRequest(req)).GetRepeated(reqTurns)
		Expect(turns).To(HaveLen(2))

		first := wire.Decode(turns[0].Bytes)
		role, _ := first.Uint(turnRole)
		Expect(role).To(Equal(roleSystem))
		text, _ := first.Text(turnText)
		Expect(text).To(Equal("be terse"))

		second := wire.Decode(turns[1].Bytes)
		role, _ = second.Uint(turnRole)
		Expect(role).To(Equal(roleUser))
	})

	It("flags only the final turn", func() {
		turns := decodeRequest(BuildRequest(req)).GetRepeated(reqTurns)
		Expect(wire.Decode(turns[0].Bytes).Bool(turnIsLast)).To(BeFalse())
		Expect(wire.Decode(turns[1].Bytes).Bool(turnIsLast)).To(BeTrue())
	})

	It("gives every turn a fresh unique id", func() {
		turns := decodeRequest(BuildRequest(req)).GetRepeated(reqTurns)
		first, _ := wire.Decode(turns[0].Bytes).Text(turnID)
		second, _ := wire.Decode(turns[1].Bytes).Text(turnID)
		Expect(first).NotTo(BeEmpty())
		Expect(second).NotTo(BeEmpty())
		Expect(first).NotTo(Equal(second))

		// A rebuilt request must not reuse ids either.
		again := decodeRequest(BuildRequest(req)).GetRepeated(reqTurns)
		rebuilt, _ := wire.Decode(again[0].Bytes).Text(turnID)
		Expect(rebuilt).NotTo(Equal(first))
	})

	It("always writes the acceptance sentinels", func() {
		msg := decodeRequest(BuildRequest(req))
		for _, s := range requestSentinels {
			v, ok := msg.Uint(s.num)
			Expect(ok).To(BeTrue(), "sentinel field %d", s.num)
			Expect(v).To(Equal(s.value), "sentinel field %d", s.num)
		}
	})

	Describe("tool results", func() {
		BeforeEach(func() {
			req.Messages = []llm.Message{
				llm.NewTextMessage("user", "read the file"),
				{
					Role: "assistant",
					Content: []llm.ContentBlock{
						{Type: "tool_use", ToolUseID: "call_1", ToolName: "read_file", ToolArgs: `{"path":"a.txt"}`},
					},
				},
				{
					Role: "tool",
					Content: []llm.ContentBlock{
						{Type: "tool_result", ToolResultID: "call_1", ToolOutput: "contents"},
					},
				},
				llm.NewTextMessage("user", "now summarize"),
			}
		})

		It("attaches pending tool results to the next user turn", func() {
			turns := decodeRequest(BuildRequest(req)).GetRepeated(reqTurns)
			Expect(turns).To(HaveLen(3)) // tool message folds into the next turn

			last := wire.Decode(turns[2].Bytes)
			results := last.GetRepeated(turnToolResults)
			Expect(results).To(HaveLen(1))

			res := wire.Decode(results[0].Bytes)
			id, _ := res.Text(toolResultID)
			Expect(id).To(Equal("call_1"))
			body, _ := res.Text(toolResultBody)
			Expect(body).To(Equal("contents"))
		})

		It("carries trailing tool results on a synthetic final turn", func() {
			req.Messages = req.Messages[:3] // conversation ends on the tool message
			turns := decodeRequest(BuildRequest(req)).GetRepeated(reqTurns)
			Expect(turns).To(HaveLen(3))

			last := wire.Decode(turns[2].Bytes)
			role, _ := last.Uint(turnRole)
			Expect(role).To(Equal(roleUser))
			Expect(last.Bool(turnIsLast)).To(BeTrue())
			Expect(last.GetRepeated(turnToolResults)).To(HaveLen(1))
		})

		It("marks errored tool results", func() {
			req.Messages[2].Content[0].IsError = true
			turns := decodeRequest(BuildRequest(req)).GetRepeated(reqTurns)
			results := wire.Decode(turns[2].Bytes).GetRepeated(turnToolResults)
			res := wire.Decode(results[0].Bytes)
			Expect(res.Bool(toolResultIsError)).To(BeTrue())
		})
	})

	Describe("tool declarations and mode coupling", func() {
		schema := json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}}}`)

		BeforeEach(func() {
			req.Tools = []llm.Tool{
				{Name: "read_file", Description: "Read a file", Parameters: schema},
			}
		})

		It("encodes each declared tool", func() {
			tools := decodeRequest(BuildRequest(req)).GetRepeated(reqTools)
			Expect(tools).To(HaveLen(1))

			decl := wire.Decode(tools[0].Bytes)
			name, _ := decl.Text(toolDeclName)
			Expect(name).To(Equal("read_file"))
			desc, _ := decl.Text(toolDeclDesc)
			Expect(desc).To(Equal("Read a file"))
			raw, _ := decl.Bytes(toolDeclSchema)
			Expect(raw).To(Equal([]byte(schema)))
		})

		It("toggles all four agent-mode fields together", func() {
			msg := decodeRequest(BuildRequest(req))
			Expect(msg.Bool(reqAgenticMode)).To(BeTrue())
			Expect(msg.Bool(reqSupportsTools)).To(BeTrue())
			mode, _ := msg.Uint(reqModeKind)
			Expect(mode).To(Equal(modeAgent))
			name, _ := msg.Text(reqModeName)
			Expect(name).To(Equal(modeNameAgent))
		})

		It("stays in chat mode without tools", func() {
			req.Tools = nil
			msg := decodeRequest(BuildRequest(req))
			_, hasAgentic := msg.GetOptional(reqAgenticMode)
			Expect(hasAgentic).To(BeFalse())
			_, hasSupports := msg.GetOptional(reqSupportsTools)
			Expect(hasSupports).To(BeFalse())
			mode, _ := msg.Uint(reqModeKind)
			Expect(mode).To(Equal(modeChat))
			name, _ := msg.Text(reqModeName)
			Expect(name).To(Equal(modeNameChat))
		})
	})

	Describe("reasoning effort", func() {
		It("maps medium and high onto the thinking enum", func() {
			req.ReasoningEffort = "medium"
			level, _ := decodeRequest(BuildRequest(req)).Uint(reqThinkingLevel)
			Expect(level).To(Equal(thinkingMedium))

			req.ReasoningEffort = "high"
			level, _ = decodeRequest(BuildRequest(req)).Uint(reqThinkingLevel)
			Expect(level).To(Equal(thinkingHigh))
		})

		It("defaults everything else to low", func() {
			for _, effort := range []string{"", "low", "maximum"} {
				req.ReasoningEffort = effort
				level, _ := decodeRequest(BuildRequest(req)).Uint(reqThinkingLevel)
				Expect(level).To(Equal(thinkingLow), "effort %q", effort)
			}
		})
	})
})
