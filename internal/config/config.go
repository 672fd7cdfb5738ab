// Package config holds the two configuration shapes the engine accepts:
// ClientConfig for process-wide defaults (logging, worker-pool sizing)
// and SessionConfig for a single drive connection (spec.md §6).
package config

import (
	"flag"
	"fmt"
)

// ClientConfig carries process-wide defaults shared by every Session a
// Client creates (spec.md §6 "ClientConfig options").
type ClientConfig struct {
	LogFile              string // empty means stdout
	LogLevel             string // "debug", "info", "warn", "error"
	JSONLogs             bool   // structured JSON output instead of colorized console text
	WriterThreads        int
	ReaderThreads        int
	MaxThreadpoolThreads int
}

const (
	DefaultWriterThreads        = 4
	DefaultReaderThreads        = 4
	DefaultMaxThreadpoolThreads = 8
)

// DefaultClientConfig returns a ClientConfig populated with the defaults
// spec.md §6 documents.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		LogLevel:             "info",
		WriterThreads:        DefaultWriterThreads,
		ReaderThreads:        DefaultReaderThreads,
		MaxThreadpoolThreads: DefaultMaxThreadpoolThreads,
	}
}

// SessionConfig carries the per-drive connection parameters passed to
// CreateSession (spec.md §6 "SessionConfig options").
type SessionConfig struct {
	Host           string
	Port           int
	ClusterVersion int64
	Identity       int64
	HMACKey        []byte
	UseTLS         bool // dials the admin TLS port; required for PIN-authenticated commands
}

// Validate checks the fields execute() needs before ever touching the
// wire (spec.md §7 "Validation errors at the public API return
// synchronously without ever touching the wire").
func (c *SessionConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if c.Port == 0 {
		if c.UseTLS {
			c.Port = DefaultAdminPort
		} else {
			c.Port = DefaultDataPort
		}
	}
	if len(c.HMACKey) == 0 {
		return fmt.Errorf("config: hmacKey must not be empty")
	}
	return nil
}

// Default wire ports (spec.md §6: "Default data port 8123, admin TLS
// port 8443").
const (
	DefaultDataPort  = 8123
	DefaultAdminPort = 8443
)

// LoadClientConfig reads ClientConfig from flags, used by cmd/kinetic-cli
// (teacher's flag-based Load() pattern, generalized from RTR's
// listen/loglevel/rpki-url flags to this engine's logFile/logLevel/
// thread-count options).
func LoadClientConfig() (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	logFile := flag.String("logfile", cfg.LogFile, "Path to write logs to (empty for stdout)")
	logLevel := flag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	jsonLogs := flag.Bool("json-logs", cfg.JSONLogs, "Emit structured JSON logs instead of colorized console text")
	writerThreads := flag.Int("writer-threads", cfg.WriterThreads, "Stored in ClientConfig; sessions do not read it and run one writer goroutine each")
	readerThreads := flag.Int("reader-threads", cfg.ReaderThreads, "Stored in ClientConfig; sessions do not read it and run one reader goroutine each")
	maxThreadpool := flag.Int("max-threadpool-threads", cfg.MaxThreadpoolThreads, "Shared worker-pool size")

	flag.Parse()

	cfg.LogFile = *logFile
	cfg.LogLevel = *logLevel
	cfg.JSONLogs = *jsonLogs
	cfg.WriterThreads = *writerThreads
	cfg.ReaderThreads = *readerThreads
	cfg.MaxThreadpoolThreads = *maxThreadpool

	return cfg, nil
}
