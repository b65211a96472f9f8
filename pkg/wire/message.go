package wire

// Message is the decoded form of one wire message: an ordered multimap from
// field number to the occurrences of that field, in arrival order. Protobuf
// fields may legally repeat, so a Message never collapses occurrences;
// callers state singular intent with GetOptional and repeated intent with
// GetRepeated.
//
// A Message is ephemeral: it aliases the buffer it was decoded from and is
// meant to be consumed and discarded within the decode call chain.
type Message struct {
	fields map[uint32][]Field
}

// Decode decodes buf into a Message. It never fails: field decoding stops at
// the first malformed or truncated tail, and everything decoded up to that
// point is returned.
func Decode(buf []byte) Message {
	m := Message{fields: make(map[uint32][]Field)}
	offset := 0
	for offset < len(buf) {
		f, next, ok := decodeField(buf, offset)
		if !ok {
			break
		}
		m.fields[f.Number] = append(m.fields[f.Number], f)
		offset = next
	}
	return m
}

// GetOptional returns the first occurrence of the field, for fields that are
// semantically singular.
func (m Message) GetOptional(num uint32) (Field, bool) {
	occ := m.fields[num]
	if len(occ) == 0 {
		return Field{}, false
	}
	return occ[0], true
}

// GetRepeated returns every occurrence of the field in arrival order.
func (m Message) GetRepeated(num uint32) []Field {
	return m.fields[num]
}

// Len reports the number of distinct field numbers present.
func (m Message) Len() int {
	return len(m.fields)
}

// Uint returns the field's varint value. It is zero with ok=false when the
// field is absent or not a varint.
func (m Message) Uint(num uint32) (uint32, bool) {
	f, ok := m.GetOptional(num)
	if !ok || f.Type != TypeVarint {
		return 0, false
	}
	return f.Uint, true
}

// Bool reports whether the field is present as a non-zero varint.
func (m Message) Bool(num uint32) bool {
	v, ok := m.Uint(num)
	return ok && v != 0
}

// Bytes returns the field's length-delimited payload.
func (m Message) Bytes(num uint32) ([]byte, bool) {
	f, ok := m.GetOptional(num)
	if !ok || f.Type != TypeLen {
		return nil, false
	}
	return f.Bytes, true
}

// Text returns the field's length-delimited payload as a string.
func (m Message) Text(num uint32) (string, bool) {
	b, ok := m.Bytes(num)
	if !ok {
		return "", false
	}
	return string(b), true
}

// Inner decodes the field's length-delimited payload as a nested message.
func (m Message) Inner(num uint32) (Message, bool) {
	b, ok := m.Bytes(num)
	if !ok {
		return Message{}, false
	}
	return Decode(b), true
}
