// Package kinetictest implements a minimal in-process Kinetic drive,
// enough of the wire protocol to drive the kinetic package's own tests
// through real TCP round trips without a physical drive.
//
// Grounded on the teacher's clienttest package (raw net.Conn dial,
// hand-decoded PDU reads), turned around to play the server side of the
// same wire protocol.
package kinetictest

import (
	"net"
	"sync"

	"github.com/Abioy/kinetic-go/internal/kauth"
	"github.com/Abioy/kinetic-go/internal/kineticpb"
	"github.com/Abioy/kinetic-go/internal/pdu"
	"github.com/Abioy/kinetic-go/internal/status"
)

// record is one stored key-value entry.
type record struct {
	value     []byte
	dbVersion []byte
	tag       []byte
	algorithm kineticpb.Algorithm
}

// Drive is a fake Kinetic drive listening on a loopback port. It keeps an
// in-memory key-value store and speaks just enough of the PDU/HMAC/Command
// protocol to exercise a real Session end to end.
type Drive struct {
	ln           net.Listener
	hmacKey      []byte
	connectionID int64

	mu    sync.Mutex
	store map[string]*record

	// DenyAdmin makes every PIN-authenticated request fail with
	// NOT_AUTHORIZED, simulating a drive that rejects admin operations.
	DenyAdmin bool
}

// Start listens on 127.0.0.1:0 and begins serving connections in the
// background. hmacKey must match the one in the SessionConfig the caller
// will dial with.
func Start(hmacKey []byte) (*Drive, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	d := &Drive{
		ln:           ln,
		hmacKey:      hmacKey,
		connectionID: 1,
		store:        make(map[string]*record),
	}
	go d.acceptLoop()
	return d, nil
}

// Addr returns the host and port the drive is listening on.
func (d *Drive) Addr() (string, int) {
	tcpAddr := d.ln.Addr().(*net.TCPAddr)
	return tcpAddr.IP.String(), tcpAddr.Port
}

// Close stops accepting new connections.
func (d *Drive) Close() error { return d.ln.Close() }

func (d *Drive) acceptLoop() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		go d.serve(conn)
	}
}

func (d *Drive) serve(conn net.Conn) {
	defer conn.Close()

	unsolicited := &kineticpb.Message{
		AuthType:     kineticpb.AuthTypeUnsolicitedStatus,
		CommandBytes: (&kineticpb.Command{Header: &kineticpb.Header{ConnectionID: d.connectionID}}).Marshal(),
	}
	if err := pdu.EncodeTo(conn, unsolicited.Marshal(), nil); err != nil {
		return
	}

	for {
		frame, err := pdu.Decode(conn, nil)
		if err != nil {
			return
		}
		msg := &kineticpb.Message{}
		if err := msg.Unmarshal(frame.Protobuf); err != nil {
			return
		}
		cmd := &kineticpb.Command{}
		if len(msg.CommandBytes) > 0 {
			if err := cmd.Unmarshal(msg.CommandBytes); err != nil {
				return
			}
		}

		respCmd, respValue := d.handle(msg, cmd, frame.Value)
		respCommandBytes := respCmd.Marshal()
		respMsg := &kineticpb.Message{
			AuthType: kineticpb.AuthTypeHMACAuth,
			HMACAuth: &kineticpb.HMACAuth{
				Identity: 1,
				HMAC:     kauth.Sign(d.hmacKey, respCommandBytes),
			},
			CommandBytes: respCommandBytes,
		}
		if err := pdu.EncodeTo(conn, respMsg.Marshal(), respValue); err != nil {
			return
		}
	}
}

// handle dispatches one decoded Command to its in-memory implementation,
// returning the response Command and an optional response value blob.
func (d *Drive) handle(msg *kineticpb.Message, cmd *kineticpb.Command, value []byte) (*kineticpb.Command, []byte) {
	var seq int64
	if cmd.Header != nil {
		seq = cmd.Header.Sequence
	}
	resp := &kineticpb.Command{
		Header: &kineticpb.Header{AckSequence: seq},
		Status: &kineticpb.Status{Code: int32(status.WireSuccess)},
	}

	msgType := kineticpb.MessageTypeInvalid
	if cmd.Header != nil {
		msgType = cmd.Header.MessageType
	}

	if isAdminMessage(msgType) && d.DenyAdmin {
		resp.Status.Code = int32(status.WireNotAuthorized)
		return resp, nil
	}

	switch msgType {
	case kineticpb.MessageTypeNoOp, kineticpb.MessageTypeFlush:
		// status only

	case kineticpb.MessageTypePut:
		d.mu.Lock()
		kv := cmd.Body.KeyValue
		d.store[string(kv.Key)] = &record{value: value, dbVersion: kv.NewVersion, tag: kv.Tag, algorithm: kv.Algorithm}
		d.mu.Unlock()
		resp.Body = &kineticpb.Body{KeyValue: &kineticpb.KeyValue{NewVersion: kv.NewVersion}}

	case kineticpb.MessageTypeGet, kineticpb.MessageTypeGetNext, kineticpb.MessageTypeGetPrevious:
		kv := cmd.Body.KeyValue
		key := d.resolveKey(msgType, kv.Key)
		d.mu.Lock()
		rec, ok := d.store[key]
		d.mu.Unlock()
		if !ok {
			resp.Status.Code = int32(status.WireNotFound)
			break
		}
		resp.Body = &kineticpb.Body{KeyValue: &kineticpb.KeyValue{
			Key: []byte(key), DbVersion: rec.dbVersion, Tag: rec.tag, Algorithm: rec.algorithm,
		}}
		return resp, rec.value

	case kineticpb.MessageTypeDelete:
		d.mu.Lock()
		delete(d.store, string(cmd.Body.KeyValue.Key))
		d.mu.Unlock()

	case kineticpb.MessageTypeGetKeyRange:
		d.mu.Lock()
		keys := make([][]byte, 0, len(d.store))
		for k := range d.store {
			keys = append(keys, []byte(k))
		}
		d.mu.Unlock()
		resp.Body = &kineticpb.Body{Range: &kineticpb.Range{Keys: keys}}

	case kineticpb.MessageTypeSetACL, kineticpb.MessageTypeSetErasePin, kineticpb.MessageTypeSetLockPin,
		kineticpb.MessageTypeSecureErase, kineticpb.MessageTypeInstantErase:
		// accepted unconditionally unless DenyAdmin, handled above

	case kineticpb.MessageTypeGetLog:
		resp.Body = &kineticpb.Body{GetLog: &kineticpb.GetLog{
			Types:    cmd.Body.GetLog.Types,
			Messages: [][]byte{[]byte("kinetictest fake drive")},
		}}

	default:
		resp.Status.Code = int32(status.WireHeaderRequiredFailure)
	}

	return resp, nil
}

// resolveKey approximates GetNext/GetPrevious by picking the
// lexicographically nearest stored key, which is all a single-key fake
// drive can usefully emulate.
func (d *Drive) resolveKey(msgType kineticpb.MessageType, key []byte) string {
	if msgType == kineticpb.MessageTypeGet {
		return string(key)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var best string
	found := false
	for k := range d.store {
		if msgType == kineticpb.MessageTypeGetNext {
			if k > string(key) && (!found || k < best) {
				best, found = k, true
			}
		} else {
			if k < string(key) && (!found || k > best) {
				best, found = k, true
			}
		}
	}
	return best
}

func isAdminMessage(t kineticpb.MessageType) bool {
	switch t {
	case kineticpb.MessageTypeSetACL, kineticpb.MessageTypeSetErasePin, kineticpb.MessageTypeSetLockPin,
		kineticpb.MessageTypeSecureErase, kineticpb.MessageTypeInstantErase:
		return true
	default:
		return false
	}
}
