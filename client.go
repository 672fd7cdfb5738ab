package kinetic

import (
	"go.uber.org/zap"

	"github.com/Abioy/kinetic-go/internal/bus"
	"github.com/Abioy/kinetic-go/internal/logging"
	"github.com/Abioy/kinetic-go/internal/session"
	"github.com/Abioy/kinetic-go/internal/status"
)

// Client owns the process-wide logger and worker pool shared by every
// Session it creates (spec.md §6 "init(config) → Client").
type Client struct {
	cfg    *ClientConfig
	logger *zap.SugaredLogger
	bus    *bus.Bus
}

// Init constructs a Client from cfg, defaulting it when nil
// (spec.md §6). The worker pool is sized from cfg.MaxThreadpoolThreads.
func Init(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	return &Client{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, cfg.LogFile, cfg.JSONLogs),
		bus:    bus.New(cfg.MaxThreadpoolThreads),
	}
}

// Shutdown drains the worker pool and releases the Client's resources
// (spec.md §6 "shutdown(Client)", §8 invariant 6: "no threads remain").
// Sessions created from this Client must be destroyed first.
func (c *Client) Shutdown() error {
	return c.bus.Shutdown()
}

// CreateSession dials host:port and performs the unsolicited-status
// handshake, returning a ready Session (spec.md §6
// "create_session(Client, SessionConfig) → Session | Error").
func (c *Client) CreateSession(cfg SessionConfig) (*Session, error) {
	if cfg.Host == "" {
		return nil, &Error{Status: status.HOST_EMPTY}
	}
	if len(cfg.HMACKey) == 0 {
		return nil, &Error{Status: status.HMAC_REQUIRED}
	}

	inner, err := session.Dial(cfg, c.cfg, c.logger, c.bus)
	if err != nil {
		return nil, &Error{Status: status.CONNECTION_ERROR, Err: err}
	}
	return &Session{inner: inner}, nil
}
