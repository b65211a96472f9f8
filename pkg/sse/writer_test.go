package sse

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("pipe closed")
}

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer
	var w *Writer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		w = NewWriter(buf)
	})

	It("emits one data event per call, blank-line delimited", func() {
		Expect(w.WriteEvent(map[string]string{"k": "v"})).To(Succeed())
		Expect(buf.String()).To(Equal("data: {\"k\":\"v\"}\n\n"))
	})

	It("emits consecutive events back to back", func() {
		Expect(w.WriteEvent(1)).To(Succeed())
		Expect(w.WriteEvent(2)).To(Succeed())
		Expect(buf.String()).To(Equal("data: 1\n\ndata: 2\n\n"))
	})

	It("terminates the stream with the [DONE] marker", func() {
		Expect(w.WriteDone()).To(Succeed())
		Expect(buf.String()).To(Equal("data: [DONE]\n\n"))
	})

	It("propagates write failures", func() {
		w = NewWriter(failingWriter{})
		Expect(w.WriteEvent("x")).To(MatchError("pipe closed"))
		Expect(w.WriteDone()).To(MatchError("pipe closed"))
	})

	It("rejects unmarshalable values", func() {
		Expect(w.WriteEvent(func() {})).To(HaveOccurred())
		Expect(buf.Len()).To(BeZero())
	})
})
