// Package kauth implements the HMAC-SHA1 message authentication described
// in spec.md §4.2: sign and verify the exact byte sequence
// len32be(|P|) || P, where P is the serialised Command envelope.
package kauth

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // protocol-mandated algorithm, not our choice
	"encoding/binary"
)

// Sign computes HMAC-SHA1(key, len32be(len(payload)) || payload).
func Sign(key, payload []byte) []byte {
	mac := hmac.New(sha1.New, key)
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))
	mac.Write(lenPrefix[:])
	mac.Write(payload)
	return mac.Sum(nil)
}

// Verify recomputes the HMAC over payload and compares it against want in
// constant time (spec.md §8 invariant 5: "no early-exit branch on byte
// mismatch"). hmac.Equal is defined to run in constant time regardless of
// match.
func Verify(key, payload, want []byte) bool {
	got := Sign(key, payload)
	return hmac.Equal(got, want)
}
