// Package frame implements the 5-byte connect-style message envelope used by
// the upstream backend: one flag byte followed by a big-endian 32-bit payload
// length, then the payload itself. Payloads are optionally gzip-compressed.
//
// Parsing is non-throwing throughout. Short buffers report "incomplete" and
// decompression failures degrade to the raw or empty payload, matching how
// the backend behaves in practice.
package frame

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
)

// HeaderLen is the fixed envelope header size: flags + big-endian length.
const HeaderLen = 5

// Flag values observed on the wire. 1, 2 and 3 all mark a compressed
// payload and all decompress identically.
const (
	FlagNone       byte = 0
	FlagCompressed byte = 1
)

// Compressed reports whether the flag byte marks a compressed payload.
func Compressed(flags byte) bool {
	return flags == 1 || flags == 2 || flags == 3
}

// Wrap frames payload into an envelope. When compress is true the payload is
// gzip-compressed first, and the header length reflects the bytes actually
// written.
func Wrap(payload []byte, compress bool) []byte {
	flags := FlagNone
	body := payload

	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err == nil && zw.Close() == nil {
			flags = FlagCompressed
			body = buf.Bytes()
		} else {
			zw.Close()
		}
	}

	out := make([]byte, HeaderLen, HeaderLen+len(body))
	out[0] = flags
	binary.BigEndian.PutUint32(out[1:HeaderLen], uint32(len(body)))
	return append(out, body...)
}

// Parse extracts one complete frame from the front of buf. It returns the
// (decompressed) payload, the number of bytes the frame occupied, and
// whether a complete frame was present. When buf holds fewer than HeaderLen
// bytes, or fewer than the declared payload length, Parse reports incomplete
// and consumes nothing, so the caller can retry with more bytes.
//
// A compressed payload that fails to decompress is returned raw rather than
// failing the parse.
func Parse(buf []byte) (payload []byte, consumed int, ok bool) {
	if len(buf) < HeaderLen {
		return nil, 0, false
	}

	flags := buf[0]
	length := int(binary.BigEndian.Uint32(buf[1:HeaderLen]))
	if len(buf) < HeaderLen+length {
		return nil, 0, false
	}

	body := buf[HeaderLen : HeaderLen+length]
	if needsDecompression(body, flags) {
		if inflated, err := gunzip(body); err == nil {
			body = inflated
		}
	}

	return body, HeaderLen + length, true
}

// Decompress applies the envelope decompression rule to a bare payload. It
// returns the payload unchanged when the flags do not mark compression, and
// an empty slice (never an error) when decompression fails.
func Decompress(payload []byte, flags byte) []byte {
	if !needsDecompression(payload, flags) {
		return payload
	}
	inflated, err := gunzip(payload)
	if err != nil {
		return []byte{}
	}
	return inflated
}

// needsDecompression applies the observed backend quirk: error bodies are
// sometimes sent uncompressed with a stale compression flag, so a payload
// that already opens a JSON object is taken at face value.
func needsDecompression(payload []byte, flags byte) bool {
	if !Compressed(flags) {
		return false
	}
	if len(payload) > 0 && payload[0] == '{' {
		return false
	}
	return true
}

func gunzip(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	return out, nil
}
