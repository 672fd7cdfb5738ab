package kineticpb

import (
	"bytes"
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	cmd := &Command{
		Header: &Header{
			ClusterVersion: 1,
			ConnectionID:   42,
			Sequence:       7,
			AckSequence:    0,
			MessageType:    MessageTypePut,
			Timeout:        20000,
		},
		Body: &Body{
			KeyValue: &KeyValue{
				Key:             []byte("key"),
				Tag:             []byte{1, 2, 3, 4},
				Algorithm:       AlgorithmSHA1,
				Synchronization: SynchronizationWriteThrough,
			},
		},
	}

	encoded := cmd.Marshal()

	got := &Command{}
	if err := got.Unmarshal(encoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.Header.ConnectionID != 42 || got.Header.Sequence != 7 {
		t.Fatalf("Header mismatch: %+v", got.Header)
	}
	if got.Header.MessageType != MessageTypePut {
		t.Fatalf("MessageType = %v, want Put", got.Header.MessageType)
	}
	if !bytes.Equal(got.Body.KeyValue.Key, []byte("key")) {
		t.Fatalf("Key = %q", got.Body.KeyValue.Key)
	}
	if got.Body.KeyValue.Algorithm != AlgorithmSHA1 {
		t.Fatalf("Algorithm = %v", got.Body.KeyValue.Algorithm)
	}
}

func TestMessageRoundTripWithHMAC(t *testing.T) {
	msg := &Message{
		AuthType: AuthTypeHMACAuth,
		HMACAuth: &HMACAuth{
			Identity: 1,
			HMAC:     bytes.Repeat([]byte{0xAB}, 20),
		},
		CommandBytes: []byte("opaque-command-bytes"),
	}

	encoded := msg.Marshal()

	got := &Message{}
	if err := got.Unmarshal(encoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.AuthType != AuthTypeHMACAuth {
		t.Fatalf("AuthType = %v", got.AuthType)
	}
	if got.HMACAuth.Identity != 1 {
		t.Fatalf("Identity = %d", got.HMACAuth.Identity)
	}
	if !bytes.Equal(got.HMACAuth.HMAC, bytes.Repeat([]byte{0xAB}, 20)) {
		t.Fatalf("HMAC mismatch")
	}
	if !bytes.Equal(got.CommandBytes, []byte("opaque-command-bytes")) {
		t.Fatalf("CommandBytes mismatch")
	}
}

func TestRangeRoundTripWithKeys(t *testing.T) {
	r := &Range{
		StartKey:          []byte("a"),
		StartKeyInclusive: true,
		EndKey:            []byte("z"),
		MaxReturned:       100,
		Keys:              [][]byte{[]byte("a"), []byte("b"), []byte("c")},
	}
	encoded := r.Marshal()
	got := &Range{}
	if err := got.Unmarshal(encoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got.Keys) != 3 {
		t.Fatalf("Keys = %v, want 3 entries", got.Keys)
	}
}

func TestP2POperationRoundTrip(t *testing.T) {
	op := &P2POperation{
		Peer: &P2PPeer{Host: "peer.example", Port: 8123, TLS: false},
		Operations: []*P2PSubOperation{
			{Key: []byte("k1")},
			{Key: []byte("k2"), Force: true},
		},
	}
	encoded := op.Marshal()
	got := &P2POperation{}
	if err := got.Unmarshal(encoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Peer.Host != "peer.example" || got.Peer.Port != 8123 {
		t.Fatalf("Peer mismatch: %+v", got.Peer)
	}
	if len(got.Operations) != 2 || !got.Operations[1].Force {
		t.Fatalf("Operations mismatch: %+v", got.Operations)
	}
}
