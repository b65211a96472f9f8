package wire

// MaxVarintLen is the maximum number of bytes a varint may occupy on this
// wire. The backend protocol carries 32-bit-bounded integers, so five 7-bit
// groups always suffice; the decoder hard-stops there rather than consuming
// further continuation bytes.
const MaxVarintLen = 5

// AppendUvarint appends the base-128 varint encoding of n to dst and returns
// the extended slice. Each byte carries 7 data bits, least-significant group
// first, with the continuation bit (0x80) set on every byte but the last.
func AppendUvarint(dst []byte, n uint32) []byte {
	for n >= 0x80 {
		dst = append(dst, byte(n)|0x80)
		n >>= 7
	}
	return append(dst, byte(n))
}

// Uvarint decodes a varint from buf starting at offset. It returns the
// decoded value, the offset of the first byte after the varint, and whether
// a complete varint was present.
//
// At most MaxVarintLen bytes are consumed; a fifth byte terminates the value
// even if its continuation bit is set. If buf ends before a terminating byte
// the decode is incomplete: ok is false and the returned offset equals the
// input offset, so the caller can retry once more bytes arrive.
func Uvarint(buf []byte, offset int) (value uint32, next int, ok bool) {
	var shift uint
	i := offset
	for i < len(buf) && i-offset < MaxVarintLen {
		b := buf[i]
		value |= uint32(b&0x7F) << shift
		i++
		if b&0x80 == 0 {
			return value, i, true
		}
		shift += 7
	}
	if i-offset == MaxVarintLen {
		// 32-bit cap: five bytes consumed, stop regardless of the
		// continuation bit on the last one.
		return value, i, true
	}
	return 0, offset, false
}

// UvarintLen reports how many bytes AppendUvarint would emit for n.
func UvarintLen(n uint32) int {
	l := 1
	for n >= 0x80 {
		n >>= 7
		l++
	}
	return l
}
