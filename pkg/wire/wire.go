// Package wire implements the schema-less protobuf wire codec spoken by the
// upstream completion backend. There is no compiled schema and no generated
// code: messages are encoded field by field from integer field numbers, and
// decoded into an ordered multimap of raw field occurrences that callers
// interpret through fixed field tables.
//
// Every decode path in this package is fail-closed and non-panicking. A
// truncated or malformed buffer truncates the decoded result; it never
// produces an error and never reads out of bounds.
package wire

// WireType is the 3-bit physical encoding discriminator carried in the low
// bits of a field tag.
type WireType uint8

const (
	// TypeVarint is a base-128 variable-length unsigned integer.
	TypeVarint WireType = 0

	// TypeFixed64 is an 8-byte little-endian value.
	TypeFixed64 WireType = 1

	// TypeLen is a length-prefixed byte sequence (strings, bytes, nested
	// messages).
	TypeLen WireType = 2

	// TypeFixed32 is a 4-byte little-endian value.
	TypeFixed32 WireType = 5
)

// Field is a single decoded field occurrence: the field number, how the
// value was physically encoded, and the value itself. Varint fields populate
// Uint; length-delimited and fixed-width fields populate Bytes. A field with
// an unknown wire type carries neither.
type Field struct {
	Number uint32
	Type   WireType

	// Uint holds the value for TypeVarint fields.
	Uint uint32

	// Bytes holds the raw payload for TypeLen, TypeFixed32 and TypeFixed64
	// fields. The slice aliases the decode input buffer.
	Bytes []byte
}
