package config

import "testing"

func TestValidateRejectsEmptyHost(t *testing.T) {
	cfg := &SessionConfig{HMACKey: []byte("k")}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty host")
	}
}

func TestValidateRejectsMissingHMACKey(t *testing.T) {
	cfg := &SessionConfig{Host: "127.0.0.1"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing hmac key")
	}
}

func TestValidateDefaultsPortByUseTLS(t *testing.T) {
	dataCfg := &SessionConfig{Host: "127.0.0.1", HMACKey: []byte("k")}
	if err := dataCfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if dataCfg.Port != DefaultDataPort {
		t.Errorf("Port = %d, want %d", dataCfg.Port, DefaultDataPort)
	}

	adminCfg := &SessionConfig{Host: "127.0.0.1", HMACKey: []byte("k"), UseTLS: true}
	if err := adminCfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if adminCfg.Port != DefaultAdminPort {
		t.Errorf("Port = %d, want %d", adminCfg.Port, DefaultAdminPort)
	}
}

func TestValidateLeavesExplicitPortAlone(t *testing.T) {
	cfg := &SessionConfig{Host: "127.0.0.1", HMACKey: []byte("k"), Port: 9999}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.MaxThreadpoolThreads != DefaultMaxThreadpoolThreads {
		t.Errorf("MaxThreadpoolThreads = %d, want %d", cfg.MaxThreadpoolThreads, DefaultMaxThreadpoolThreads)
	}
}
