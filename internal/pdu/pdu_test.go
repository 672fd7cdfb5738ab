package pdu

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	protobuf := []byte("serialised-command-bytes")
	value := []byte("value\x01\x02\x03\x04")

	if err := EncodeTo(&buf, protobuf, value); err != nil {
		t.Fatalf("EncodeTo() error = %v", err)
	}

	frame, err := Decode(&buf, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(frame.Protobuf, protobuf) {
		t.Fatalf("Protobuf = %q, want %q", frame.Protobuf, protobuf)
	}
	if !bytes.Equal(frame.Value, value) {
		t.Fatalf("Value = %q, want %q", frame.Value, value)
	}
	if frame.Header.Version != VersionTag {
		t.Fatalf("Version = 0x%02x, want 0x%02x", frame.Header.Version, VersionTag)
	}
}

func TestDecodeNoValue(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, []byte("abc"), nil); err != nil {
		t.Fatalf("EncodeTo() error = %v", err)
	}
	frame, err := Decode(&buf, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(frame.Value) != 0 {
		t.Fatalf("Value = %q, want empty", frame.Value)
	}
}

func TestDecodeRejectsBadVersionTag(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, []byte("abc"), nil); err != nil {
		t.Fatalf("EncodeTo() error = %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[0] = 0x00

	_, err := Decode(bytes.NewReader(corrupted), nil)
	if !errors.Is(err, ErrInvalidPDU) {
		t.Fatalf("Decode() error = %v, want ErrInvalidPDU", err)
	}
}

func TestDecodeAcceptsMaxProtobufLen(t *testing.T) {
	var buf bytes.Buffer
	protobuf := bytes.Repeat([]byte{0x01}, MaxProtobufLen)
	if err := EncodeTo(&buf, protobuf, nil); err != nil {
		t.Fatalf("EncodeTo() error = %v", err)
	}
	frame, err := Decode(&buf, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v, want success at exactly MaxProtobufLen", err)
	}
	if len(frame.Protobuf) != MaxProtobufLen {
		t.Fatalf("Protobuf len = %d, want %d", len(frame.Protobuf), MaxProtobufLen)
	}
}

func TestDecodeRejectsOverMaxProtobufLen(t *testing.T) {
	h := Header{Version: VersionTag, ProtobufLen: MaxProtobufLen + 1, ValueLen: 0}
	encoded := h.encode()

	_, err := Decode(bytes.NewReader(encoded[:]), nil)
	if !errors.Is(err, ErrInvalidPDU) {
		t.Fatalf("Decode() error = %v, want ErrInvalidPDU", err)
	}
}

func TestDecodeMidPDUEOFFails(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, []byte("hello world"), nil); err != nil {
		t.Fatalf("EncodeTo() error = %v", err)
	}
	truncated := buf.Bytes()[:HeaderLen+3]

	_, err := Decode(bytes.NewReader(truncated), nil)
	if err == nil {
		t.Fatal("Decode() error = nil, want error on truncated PDU")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		t.Fatalf("Decode() error = %v, want an EOF-flavoured error", err)
	}
}
