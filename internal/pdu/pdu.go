// Package pdu implements the 9-byte fixed-header PDU framing described in
// spec.md §4.1: a version tag, a big-endian protobuf length, and a
// big-endian value length, followed by the protobuf bytes and an optional
// raw value blob.
package pdu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// VersionTag is the single fixed byte every PDU header starts with.
const VersionTag byte = 0x46 // 'F'

// HeaderLen is the size in bytes of the fixed PDU header.
const HeaderLen = 9

// MaxProtobufLen is the largest protobuf payload a PDU may carry
// (spec.md §3: "protobuf_length ≤ 1 MiB").
const MaxProtobufLen = 1 << 20 // 1 MiB

// ErrInvalidPDU is returned for any header that fails the version tag or
// length-bound checks (spec.md §4.1).
var ErrInvalidPDU = errors.New("pdu: invalid PDU")

// Header is the decoded 9-byte fixed header.
type Header struct {
	Version     byte
	ProtobufLen uint32
	ValueLen    uint32
}

func (h Header) encode() [HeaderLen]byte {
	var b [HeaderLen]byte
	b[0] = h.Version
	binary.BigEndian.PutUint32(b[1:5], h.ProtobufLen)
	binary.BigEndian.PutUint32(b[5:9], h.ValueLen)
	return b
}

func decodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("%w: short header (%d bytes)", ErrInvalidPDU, len(b))
	}
	h := Header{
		Version:     b[0],
		ProtobufLen: binary.BigEndian.Uint32(b[1:5]),
		ValueLen:    binary.BigEndian.Uint32(b[5:9]),
	}
	if h.Version != VersionTag {
		return Header{}, fmt.Errorf("%w: version tag 0x%02x, want 0x%02x", ErrInvalidPDU, h.Version, VersionTag)
	}
	if h.ProtobufLen > MaxProtobufLen {
		return Header{}, fmt.Errorf("%w: protobuf length %d exceeds max %d", ErrInvalidPDU, h.ProtobufLen, MaxProtobufLen)
	}
	return h, nil
}

// EncodeTo writes header(len(protobuf), len(value)), protobuf, value to w
// as a single writev-style call when w supports buffered vector writes
// (net.Buffers falls back to sequential Write otherwise). Callers hold the
// session's write mutex around this call so framing stays atomic across
// the writer goroutine and any other writer (spec.md §4.1).
func EncodeTo(w io.Writer, protobuf, value []byte) error {
	if len(protobuf) > MaxProtobufLen {
		return fmt.Errorf("%w: protobuf length %d exceeds max %d", ErrInvalidPDU, len(protobuf), MaxProtobufLen)
	}
	h := Header{Version: VersionTag, ProtobufLen: uint32(len(protobuf)), ValueLen: uint32(len(value))}
	head := h.encode()

	bufs := net.Buffers{head[:], protobuf}
	if len(value) > 0 {
		bufs = append(bufs, value)
	}
	_, err := bufs.WriteTo(w)
	return err
}

// Frame is a fully decoded PDU: its header, the raw protobuf bytes (the
// Message envelope, still undecoded — that is the message builder's job),
// and the raw value blob.
type Frame struct {
	Header   Header
	Protobuf []byte
	Value    []byte
}

// Decode reads exactly one PDU from r. Partial reads loop via io.ReadFull;
// an EOF or short read mid-PDU fails with the underlying error, which the
// caller (the session reader loop) treats as session-fatal per spec.md
// §4.1's edge policy.
//
// The value blob is always read into a freshly allocated slice, returned
// as Frame.Value. If valueOut is non-nil, that slice is also copied into
// it via Append (truncating with overrun=true rather than growing), so a
// caller that already owns an output buffer receives the value there too
// (spec.md §4.1).
func Decode(r io.Reader, valueOut interface {
	Append([]byte) (int, bool)
}) (*Frame, error) {
	var headBuf [HeaderLen]byte
	if _, err := io.ReadFull(r, headBuf[:]); err != nil {
		return nil, fmt.Errorf("pdu: read header: %w", err)
	}
	h, err := decodeHeader(headBuf[:])
	if err != nil {
		return nil, err
	}

	protobuf := make([]byte, h.ProtobufLen)
	if h.ProtobufLen > 0 {
		if _, err := io.ReadFull(r, protobuf); err != nil {
			return nil, fmt.Errorf("pdu: read protobuf: %w", err)
		}
	}

	var value []byte
	if h.ValueLen > 0 {
		raw := make([]byte, h.ValueLen)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("pdu: read value: %w", err)
		}
		if valueOut != nil {
			valueOut.Append(raw)
		}
		value = raw
	}

	return &Frame{Header: h, Protobuf: protobuf, Value: value}, nil
}
