package wire

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Varint", func() {
	Describe("AppendUvarint", func() {
		It("encodes single-byte values", func() {
			Expect(AppendUvarint(nil, 0)).To(Equal([]byte{0x00}))
			Expect(AppendUvarint(nil, 1)).To(Equal([]byte{0x01}))
			Expect(AppendUvarint(nil, 127)).To(Equal([]byte{0x7F}))
		})

		It("encodes 300 as [0xAC, 0x02]", func() {
			Expect(AppendUvarint(nil, 300)).To(Equal([]byte{0xAC, 0x02}))
		})

		It("sets the continuation bit on every byte but the last", func() {
			enc := AppendUvarint(nil, 1<<31)
			Expect(enc).To(HaveLen(5))
			for _, b := range enc[:4] {
				Expect(b & 0x80).To(Equal(byte(0x80)))
			}
			Expect(enc[4] & 0x80).To(Equal(byte(0)))
		})

		It("appends to an existing buffer", func() {
			dst := []byte{0xFF}
			Expect(AppendUvarint(dst, 300)).To(Equal([]byte{0xFF, 0xAC, 0x02}))
		})
	})

	Describe("Uvarint", func() {
		It("decodes 300 from [0xAC, 0x02]", func() {
			v, next, ok := Uvarint([]byte{0xAC, 0x02}, 0)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint32(300)))
			Expect(next).To(Equal(2))
		})

		It("round-trips across value sizes", func() {
			for _, n := range []uint32{0, 1, 127, 128, 300, 16383, 16384, 1<<21 - 1, 1 << 28, 1<<32 - 1} {
				enc := AppendUvarint(nil, n)
				v, next, ok := Uvarint(enc, 0)
				Expect(ok).To(BeTrue(), "value %d", n)
				Expect(v).To(Equal(n), "value %d", n)
				Expect(next).To(Equal(len(enc)), "value %d", n)
				Expect(next).To(Equal(UvarintLen(n)), "value %d", n)
			}
		})

		It("decodes from a non-zero offset", func() {
			buf := []byte{0x00, 0x00, 0xAC, 0x02}
			v, next, ok := Uvarint(buf, 2)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint32(300)))
			Expect(next).To(Equal(4))
		})

		It("reports incomplete without advancing when the terminator is missing", func() {
			v, next, ok := Uvarint([]byte{0xAC}, 0)
			Expect(ok).To(BeFalse())
			Expect(v).To(BeZero())
			Expect(next).To(Equal(0))
		})

		It("reports incomplete on an empty buffer", func() {
			_, next, ok := Uvarint(nil, 0)
			Expect(ok).To(BeFalse())
			Expect(next).To(Equal(0))
		})

		It("stops after five bytes even with the continuation bit still set", func() {
			buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
			v, next, ok := Uvarint(buf, 0)
			Expect(ok).To(BeTrue())
			Expect(next).To(Equal(MaxVarintLen))
			Expect(v).To(Equal(uint32(1<<32 - 1)))
		})
	})
})
