package kauth

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	key := []byte("asdfasdf")
	payload := []byte("serialised command bytes")

	mac := Sign(key, payload)
	if !Verify(key, payload, mac) {
		t.Fatal("Verify() = false for matching HMAC")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	key := []byte("asdfasdf")
	payload := []byte("serialised command bytes")
	mac := Sign(key, payload)

	if Verify(key, []byte("tampered command bytes!!"), mac) {
		t.Fatal("Verify() = true for tampered payload")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	payload := []byte("serialised command bytes")
	mac := Sign([]byte("correct-key"), payload)

	if Verify([]byte("wrong-key"), payload, mac) {
		t.Fatal("Verify() = true for wrong key")
	}
}
