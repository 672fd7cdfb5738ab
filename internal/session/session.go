// Package session implements the per-drive connection state machine:
// dial, the unsolicited-status handshake, the writer/reader goroutine
// pair sharing one socket, and the timeout sweep (spec.md §3 "Entity:
// Session", §4.5-§4.7).
package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Abioy/kinetic-go/internal/bus"
	"github.com/Abioy/kinetic-go/internal/config"
	"github.com/Abioy/kinetic-go/internal/kauth"
	"github.com/Abioy/kinetic-go/internal/kineticpb"
	"github.com/Abioy/kinetic-go/internal/message"
	"github.com/Abioy/kinetic-go/internal/operation"
	"github.com/Abioy/kinetic-go/internal/pdu"
	"github.com/Abioy/kinetic-go/internal/status"
)

// State is the Session's connection-lifecycle state (spec.md §3:
// "INIT → CONNECTING → READY → CLOSING → CLOSED", split here into
// CONNECTING and AWAIT_UNSOLICITED to name the handshake step that waits
// on the drive's unsolicited status PDU before the connectionID is
// known; the CLOSING step is named DRAINING here).
type State int32

const (
	StateInit State = iota
	StateConnecting
	StateAwaitUnsolicited
	StateReady
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitUnsolicited:
		return "AWAIT_UNSOLICITED"
	case StateReady:
		return "READY"
	case StateDraining:
		return "DRAINING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// handshakeTimeout bounds how long Dial waits for the drive's unsolicited
// status PDU before giving up (spec.md §4.5 handshake step).
const handshakeTimeout = 10 * time.Second

// sweepInterval is the cadence of the timeout-reaping sweep (spec.md §4.7).
const sweepInterval = 1 * time.Second

// sendQueueDepth bounds the writer's pending-PDU channel. It is sized at
// twice MaxOutstanding: every Operation is registered (and so counted
// against MaxOutstanding) before it is queued, and the extra room covers
// operations swept from the registry while still waiting in the queue.
const sendQueueDepth = operation.MaxOutstanding * 2

// Session is one connected-drive endpoint (spec.md §3).
type Session struct {
	cfg    config.SessionConfig
	conn   net.Conn
	logger *zap.SugaredLogger
	bus    *bus.Bus

	registry *operation.Registry

	connectionID int64 // set once, atomically, from the handshake

	state atomic.Int32

	writeMu sync.Mutex
	sendCh  chan *operation.Operation

	closeOnce sync.Once
	doneCh    chan struct{}

	handshakeOnce sync.Once
	handshakeCh   chan struct{}

	sweepCancel context.CancelFunc
}

// Dial opens a TCP (or, for admin connections, TLS) connection to the
// drive named by cfg, performs the unsolicited-status handshake, and
// returns a Session in the READY state (spec.md §4.5, §6 create_session).
func Dial(cfg config.SessionConfig, clientCfg *config.ClientConfig, logger *zap.SugaredLogger, workBus *bus.Bus) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var conn net.Conn
	var err error
	if cfg.UseTLS {
		conn, err = tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("session: dial %s: %w", addr, err)
	}

	s := &Session{
		cfg:         cfg,
		conn:        conn,
		logger:      logger.With("session", addr),
		bus:         workBus,
		registry:    operation.NewRegistry(),
		sendCh:      make(chan *operation.Operation, sendQueueDepth),
		doneCh:      make(chan struct{}),
		handshakeCh: make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))

	go s.readerLoop()
	go s.writerLoop()
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateAwaitUnsolicited))

	select {
	case <-s.handshakeCh:
	case <-time.After(handshakeTimeout):
		s.fail(status.CONNECTION_ERROR)
		return nil, fmt.Errorf("session: timed out waiting for unsolicited status")
	case <-s.doneCh:
		return nil, fmt.Errorf("session: connection failed during handshake")
	}

	s.state.Store(int32(StateReady))
	ctx, cancel := context.WithCancel(context.Background())
	s.sweepCancel = cancel
	go s.sweepLoop(ctx)

	s.logger.Infow("session ready", "connectionID", atomic.LoadInt64(&s.connectionID))
	return s, nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// IsAdminPort reports whether this session was dialed against the
// TLS-protected admin port, the only port that accepts PIN-authenticated
// requests (spec.md §4.2).
func (s *Session) IsAdminPort() bool { return s.cfg.UseTLS }

// buildContext returns the BuildContext a message builder needs,
// snapshotting the session's current connectionID. It does not allocate a
// sequence number: that happens inside Dispatch, atomically with
// registration, so a rejected Dispatch never burns one (spec.md §4.3).
func (s *Session) buildContext() message.BuildContext {
	return message.BuildContext{
		ClusterVersion: s.cfg.ClusterVersion,
		ConnectionID:   atomic.LoadInt64(&s.connectionID),
		Identity:       s.cfg.Identity,
		HMACKey:        s.cfg.HMACKey,
		IsAdminPort:    s.cfg.UseTLS,
	}
}

// BuildContext exposes buildContext to the message package's callers in
// the public kinetic package, which owns composing BuildContext +
// message.BuildXxx + Dispatch per call.
func (s *Session) BuildContext() message.BuildContext { return s.buildContext() }

// Dispatch allocates the next sequence number, builds the request with
// it, and registers the resulting Operation — all inside
// Registry.Allocate's single critical section — then enqueues it for the
// writer and either blocks for the synchronous result (no closure
// supplied) or returns SUCCESS_PENDING immediately once the Operation is
// safely queued (spec.md §4.4, §6: "Closure == nil selects the
// synchronous path").
//
// build is called with the sequence number to assign exactly once, only
// if the registry has room; a rejection here (or the SESSION_INVALID
// check below) therefore never burns a sequence number that is never
// sent on the wire (spec.md §3 invariant 2, §4.3).
func (s *Session) Dispatch(build func(sequence int64) (message.Built, error)) status.Status {
	if s.State() != StateReady {
		return status.SESSION_INVALID
	}

	op, err := s.registry.Allocate(func(seq int64) (*operation.Operation, error) {
		built, berr := build(seq)
		if berr != nil {
			return nil, berr
		}
		return built.Op, nil
	})
	switch {
	case errors.Is(err, operation.ErrAtCapacity):
		return status.MAX_OUTSTANDING_EXCEEDED
	case err != nil:
		return status.NOT_AUTHORIZED
	}

	select {
	case s.sendCh <- op:
	default:
		s.registry.Remove(op.Sequence)
		return status.DEVICE_BUSY
	}

	if op.Callback == nil {
		return op.Wait()
	}
	return status.SUCCESS_PENDING
}

// dispatchNil posts closure to the worker pool with a nil ClosureData,
// the shape used whenever an operation resolves without ever decoding a
// response (socket failure, timeout) — spec.md §7 "transport errors...
// fail every currently-registered operation with the same terminal code".
func (s *Session) dispatchNil(closure operation.Closure, st status.Status) {
	s.bus.Post(func() { closure(st, nil) })
}

// fail resolves every outstanding operation with st, tears the
// connection down, and moves the session to CLOSED. It is idempotent.
func (s *Session) fail(st status.Status) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.registry.FailAll(st, s.dispatchNil)
		if s.sweepCancel != nil {
			s.sweepCancel()
		}
		_ = s.conn.Close()
		close(s.doneCh)
	})
}

// Close gracefully drains and tears down the session (spec.md §3:
// "... → CLOSING → CLOSED"). In DRAINING, Dispatch rejects new work with
// SESSION_INVALID while outstanding operations are given until their
// deadlines to complete; any that expire resolve with OPERATION_TIMEDOUT.
func (s *Session) Close() error {
	if s.State() == StateClosed {
		return nil
	}
	s.state.Store(int32(StateDraining))
	for s.registry.Count() > 0 {
		select {
		case <-s.doneCh:
			return nil
		case <-time.After(10 * time.Millisecond):
		}
		s.registry.Sweep(time.Now(), s.dispatchNil)
	}
	s.fail(status.SESSION_INVALID)
	return nil
}

// sweepLoop periodically reaps timed-out operations. It runs on a
// rate.Limiter-paced loop rather than a bare time.Ticker so the cadence
// is expressed the same way the rest of the pack throttles periodic
// background work.
func (s *Session) sweepLoop(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(sweepInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if s.State() != StateReady {
			return
		}
		if n := s.registry.Sweep(time.Now(), s.dispatchNil); n > 0 {
			s.logger.Debugw("swept timed-out operations", "count", n)
		}
	}
}

// writerLoop serialises queued operations onto the socket one at a time
// under writeMu, matching spec.md §4.5's single-writer-goroutine design.
func (s *Session) writerLoop() {
	for {
		select {
		case op, ok := <-s.sendCh:
			if !ok {
				return
			}
			var value []byte
			if op.SendValue {
				value = op.RequestValue
			}
			s.writeMu.Lock()
			err := pdu.EncodeTo(s.conn, op.RequestProtobuf, value)
			s.writeMu.Unlock()
			if err != nil {
				s.logger.Warnw("write failed, failing session", "error", err)
				s.fail(status.SOCKET_ERROR)
				return
			}
		case <-s.doneCh:
			return
		}
	}
}

// readerLoop decodes one PDU at a time, dispatches the unsolicited
// handshake message, verifies HMACs, and correlates ordinary responses
// to their Operation by ack-sequence (spec.md §4.6).
func (s *Session) readerLoop() {
	for {
		frame, err := pdu.Decode(s.conn, nil)
		if err != nil {
			select {
			case <-s.doneCh:
			default:
				s.logger.Warnw("read failed, failing session", "error", err)
				s.fail(status.SOCKET_ERROR)
			}
			return
		}

		msg := &kineticpb.Message{}
		if err := msg.Unmarshal(frame.Protobuf); err != nil {
			s.logger.Warnw("discarding malformed message envelope", "error", err)
			continue
		}

		cmd := &kineticpb.Command{}
		if len(msg.CommandBytes) > 0 {
			if err := cmd.Unmarshal(msg.CommandBytes); err != nil {
				s.logger.Warnw("discarding malformed command", "error", err)
				continue
			}
		}

		if msg.AuthType == kineticpb.AuthTypeUnsolicitedStatus {
			s.handleUnsolicited(cmd)
			continue
		}

		if msg.HMACAuth != nil {
			if !kauth.Verify(s.cfg.HMACKey, msg.CommandBytes, msg.HMACAuth.HMAC) {
				s.logger.Errorw("HMAC verification failed, failing session")
				s.fail(status.DATA_ERROR)
				return
			}
		}

		s.handleResponse(cmd, frame.Value)
	}
}

// handleUnsolicited records the server-assigned connectionID from the
// drive's first, unrequested message and unblocks Dial (spec.md §4.5).
func (s *Session) handleUnsolicited(cmd *kineticpb.Command) {
	if cmd == nil || cmd.Header == nil {
		return
	}
	atomic.StoreInt64(&s.connectionID, cmd.Header.ConnectionID)
	s.handshakeOnce.Do(func() { close(s.handshakeCh) })
}

// handleResponse resolves the Operation named by cmd's ack-sequence, if
// any is still registered, running its OnReply translator before
// finalising the status (spec.md §4.6). A response with no matching
// Operation is a late or spurious reply and is discarded.
func (s *Session) handleResponse(cmd *kineticpb.Command, value []byte) {
	if cmd == nil || cmd.Header == nil {
		return
	}
	ackSeq := cmd.Header.AckSequence

	op := s.registry.Lookup(ackSeq)
	if op == nil {
		s.logger.Debugw("discarding response for unknown sequence", "ackSequence", ackSeq)
		return
	}

	wireStatus := status.SUCCESS
	if cmd.Status != nil {
		wireStatus = status.FromWireCode(status.WireCode(cmd.Status.Code))
	}
	resolved := op.OnReply(wireStatus, cmd, value)

	s.registry.Complete(ackSeq, resolved, func(closure operation.Closure, st status.Status) {
		s.bus.Post(func() { closure(st, op.Output) })
	})
}
