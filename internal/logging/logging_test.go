package logging

import "testing"

func TestNewReturnsUsableLogger(t *testing.T) {
	logger := New("debug", "", false)
	if logger == nil {
		t.Fatal("New() = nil")
	}
	logger.Infow("test message", "k", "v")
}

func TestNewJSONLogsSwitchesEncoding(t *testing.T) {
	logger := New("info", "", true)
	if logger == nil {
		t.Fatal("New() = nil")
	}
	logger.Infow("test message", "k", "v")
}
