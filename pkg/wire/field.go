package wire

import "encoding/binary"

// AppendTag appends the tag varint for a field: the field number shifted
// left three bits, ORed with the wire type.
func AppendTag(dst []byte, num uint32, wt WireType) []byte {
	return AppendUvarint(dst, num<<3|uint32(wt))
}

// AppendVarint appends a varint field.
func AppendVarint(dst []byte, num uint32, v uint32) []byte {
	dst = AppendTag(dst, num, TypeVarint)
	return AppendUvarint(dst, v)
}

// AppendBool appends a varint field holding 0 or 1.
func AppendBool(dst []byte, num uint32, v bool) []byte {
	var u uint32
	if v {
		u = 1
	}
	return AppendVarint(dst, num, u)
}

// AppendBytes appends a length-delimited field with a raw byte payload.
func AppendBytes(dst []byte, num uint32, b []byte) []byte {
	dst = AppendTag(dst, num, TypeLen)
	dst = AppendUvarint(dst, uint32(len(b)))
	return append(dst, b...)
}

// AppendString appends a length-delimited field with a UTF-8 string payload.
func AppendString(dst []byte, num uint32, s string) []byte {
	dst = AppendTag(dst, num, TypeLen)
	dst = AppendUvarint(dst, uint32(len(s)))
	return append(dst, s...)
}

// AppendFixed32 appends a 4-byte little-endian field.
func AppendFixed32(dst []byte, num uint32, v uint32) []byte {
	dst = AppendTag(dst, num, TypeFixed32)
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendFixed64 appends an 8-byte little-endian field.
func AppendFixed64(dst []byte, num uint32, v uint64) []byte {
	dst = AppendTag(dst, num, TypeFixed64)
	return binary.LittleEndian.AppendUint64(dst, v)
}

// decodeField decodes one field occurrence starting at offset. It returns
// the field, the offset of the byte after it, and whether decoding may
// continue.
//
// Decoding is fail-closed: a length-delimited field whose declared length
// exceeds the remaining buffer, or a fixed-width field without its full
// width, ends the decode of the whole message rather than yielding a
// partial value. Fields with an unrecognized wire type carry no value and
// decoding continues after the tag.
func decodeField(buf []byte, offset int) (Field, int, bool) {
	tag, next, ok := Uvarint(buf, offset)
	if !ok {
		return Field{}, offset, false
	}

	f := Field{
		Number: tag >> 3,
		Type:   WireType(tag & 0x7),
	}

	switch f.Type {
	case TypeVarint:
		v, n, ok := Uvarint(buf, next)
		if !ok {
			return Field{}, offset, false
		}
		f.Uint = v
		return f, n, true

	case TypeLen:
		length, n, ok := Uvarint(buf, next)
		if !ok || int(length) > len(buf)-n {
			return Field{}, offset, false
		}
		f.Bytes = buf[n : n+int(length)]
		return f, n + int(length), true

	case TypeFixed32:
		if len(buf)-next < 4 {
			return Field{}, offset, false
		}
		f.Bytes = buf[next : next+4]
		return f, next + 4, true

	case TypeFixed64:
		if len(buf)-next < 8 {
			return Field{}, offset, false
		}
		f.Bytes = buf[next : next+8]
		return f, next + 8, true
	}

	// Unknown wire type: no way to know the payload width. Skip the value
	// entirely and keep scanning after the tag.
	return f, next, true
}
