// Package message implements the per-command message builders
// (spec.md §4.3, §4.9). Each builder is a small, mostly mechanical
// function over a BuildContext and an operation record — spec.md §1
// treats command-specific builders as "pure functions over a connection
// handle and an operation record", so this package is kept thin relative
// to the core transport engine.
package message

import (
	"fmt"
	"time"

	"github.com/Abioy/kinetic-go/internal/kauth"
	"github.com/Abioy/kinetic-go/internal/kbuf"
	"github.com/Abioy/kinetic-go/internal/kinetictypes"
	"github.com/Abioy/kinetic-go/internal/kineticpb"
	"github.com/Abioy/kinetic-go/internal/operation"
	"github.com/Abioy/kinetic-go/internal/status"
)

// BuildContext carries the per-session fields every builder needs to
// populate a Command header and sign its envelope (spec.md §4.3 step 2).
type BuildContext struct {
	ClusterVersion int64
	ConnectionID   int64
	Identity       int64
	HMACKey        []byte
	IsAdminPort    bool
}

// Built is the result of a builder call: the operation record ready to
// register and dispatch, plus the wire Message it will send.
type Built struct {
	Op      *operation.Operation
	Message *kineticpb.Message
}

// newHeader builds the Command header for sequence, which the caller must
// have already allocated (spec.md §4.3 step 2; sequence allocation itself
// lives in operation.Registry.Allocate, not here, so that a rejected
// Dispatch never burns a sequence number — spec.md §3 invariant 2).
func newHeader(ctx BuildContext, msgType kineticpb.MessageType, sequence int64) *kineticpb.Header {
	return &kineticpb.Header{
		ClusterVersion: ctx.ClusterVersion,
		ConnectionID:   ctx.ConnectionID,
		Sequence:       sequence,
		MessageType:    msgType,
		Timeout:        int64(operation.DefaultTimeout / time.Millisecond),
	}
}

// sign builds the final HMAC-authenticated Message for cmd and sets op's
// RequestProtobuf to the marshaled envelope, ready for the writer to send
// alongside op.RequestValue (spec.md §4.1, §4.3).
func sign(ctx BuildContext, cmd *kineticpb.Command, op *operation.Operation) *kineticpb.Message {
	commandBytes := cmd.Marshal()
	mac := kauth.Sign(ctx.HMACKey, commandBytes)
	msg := &kineticpb.Message{
		AuthType: kineticpb.AuthTypeHMACAuth,
		HMACAuth: &kineticpb.HMACAuth{
			Identity: ctx.Identity,
			HMAC:     mac,
		},
		CommandBytes: commandBytes,
	}
	op.RequestProtobuf = msg.Marshal()
	return msg
}

// signPin builds a PIN-authenticated Message for admin commands, failing
// if the session was not dialed on the admin port (spec.md §4.2: "PIN
// auth ... only permitted on the admin port").
func signPin(ctx BuildContext, cmd *kineticpb.Command, pin []byte, op *operation.Operation) (*kineticpb.Message, error) {
	if !ctx.IsAdminPort {
		return nil, fmt.Errorf("message: PIN-authenticated command requires the admin port")
	}
	if len(pin) == 0 {
		return nil, fmt.Errorf("message: missing PIN")
	}
	commandBytes := cmd.Marshal()
	msg := &kineticpb.Message{
		AuthType:     kineticpb.AuthTypePinAuth,
		PinAuth:      &kineticpb.PinAuth{Pin: pin},
		CommandBytes: commandBytes,
	}
	op.RequestProtobuf = msg.Marshal()
	return msg, nil
}

// toWireAlgorithm converts the caller-facing Algorithm enum to its wire
// counterpart. The two enumerations share ordinal values (both start at
// "unspecified" = 0), so this is a direct cast.
func toWireAlgorithm(a kinetictypes.Algorithm) kineticpb.Algorithm { return kineticpb.Algorithm(a) }

// toWireSync converts Synchronization; unlike Algorithm, the wire enum
// reserves 0 for SynchronizationInvalid, so the caller-facing values are
// offset by one on the wire.
func toWireSync(s kinetictypes.Synchronization) kineticpb.Synchronization {
	switch s {
	case kinetictypes.WriteThrough:
		return kineticpb.SynchronizationWriteThrough
	case kinetictypes.WriteBack:
		return kineticpb.SynchronizationWriteBack
	case kinetictypes.Flush:
		return kineticpb.SynchronizationFlush
	default:
		return kineticpb.SynchronizationInvalid
	}
}

// toWireGetLogType converts GetLogType; the wire enum reserves 0 for
// GetLogTypeInvalid, offsetting the caller-facing values by one.
func toWireGetLogType(t kinetictypes.GetLogType) kineticpb.GetLogType {
	return kineticpb.GetLogType(t + 1)
}

// fromWireGetLogType is the inverse of toWireGetLogType.
func fromWireGetLogType(t kineticpb.GetLogType) kinetictypes.GetLogType {
	if t == kineticpb.GetLogTypeInvalid {
		return kinetictypes.GetLogType(-1)
	}
	return kinetictypes.GetLogType(t - 1)
}

// BuildNoOp builds the NoOp command: status only (spec.md §4.9).
func BuildNoOp(ctx BuildContext, sequence int64, closure operation.Closure) Built {
	header := newHeader(ctx, kineticpb.MessageTypeNoOp, sequence)
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{}}

	op := operation.New(header.Sequence)
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status {
		return st
	}
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}

// BuildPut builds the Put command (spec.md §4.3 policy: "Put sets
// send_value = true and carries the value payload"). On success, the
// callback propagates the drive-assigned new version back into entry.
func BuildPut(ctx BuildContext, sequence int64, entry *kinetictypes.Entry, closure operation.Closure) Built {
	header := newHeader(ctx, kineticpb.MessageTypePut, sequence)
	kv := &kineticpb.KeyValue{
		Key:             entry.Key,
		NewVersion:      entry.NewVersion,
		Tag:             entry.Tag,
		Algorithm:       toWireAlgorithm(entry.Algorithm),
		Force:           entry.Force,
		Synchronization: toWireSync(entry.Synchronization),
	}
	if !entry.Force {
		kv.DbVersion = entry.DBVersion
	}
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{KeyValue: kv}}

	op := operation.New(header.Sequence)
	op.RequestValue = entry.Value
	op.SendValue = true
	op.Output = entry
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status {
		if st == status.SUCCESS && cmd != nil && cmd.Body != nil && cmd.Body.KeyValue != nil {
			entry.DBVersion = cmd.Body.KeyValue.NewVersion
		}
		return st
	}
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}

// BuildGet builds Get/GetNext/GetPrevious (spec.md §4.3: "Get sets
// value_enabled = true unless metadataOnly"). msgType selects which of
// the three wire message types to send.
func BuildGet(ctx BuildContext, sequence int64, msgType kineticpb.MessageType, entry *kinetictypes.Entry, closure operation.Closure) Built {
	header := newHeader(ctx, msgType, sequence)
	kv := &kineticpb.KeyValue{
		Key:          entry.Key,
		MetadataOnly: entry.MetadataOnly,
	}
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{KeyValue: kv}}

	op := operation.New(header.Sequence)
	op.ValueEnabled = !entry.MetadataOnly
	op.Output = entry
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status {
		if st == status.SUCCESS && cmd != nil && cmd.Body != nil && cmd.Body.KeyValue != nil {
			kv := cmd.Body.KeyValue
			entry.Tag = kv.Tag
			entry.DBVersion = kv.DbVersion
			entry.Algorithm = kinetictypes.Algorithm(kv.Algorithm)
			if !entry.MetadataOnly {
				entry.Value = value
			}
		}
		return st
	}
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}

// BuildDelete builds Delete (spec.md §4.9: no value direction).
func BuildDelete(ctx BuildContext, sequence int64, entry *kinetictypes.Entry, closure operation.Closure) Built {
	header := newHeader(ctx, kineticpb.MessageTypeDelete, sequence)
	kv := &kineticpb.KeyValue{
		Key:   entry.Key,
		Force: entry.Force,
	}
	if !entry.Force {
		kv.DbVersion = entry.DBVersion
	}
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{KeyValue: kv}}

	op := operation.New(header.Sequence)
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status { return st }
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}

// BuildFlush builds Flush: no body fields, no value (spec.md §4.9).
func BuildFlush(ctx BuildContext, sequence int64, closure operation.Closure) Built {
	header := newHeader(ctx, kineticpb.MessageTypeFlush, sequence)
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{}}

	op := operation.New(header.Sequence)
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status { return st }
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}

// BuildGetKeyRange builds GetKeyRange (spec.md §4.3 policy: "produces a
// response with a list of keys that the response handler copies into the
// caller's ByteBufferArray, truncating if capacity is exceeded and
// reporting overflow in status").
func BuildGetKeyRange(ctx BuildContext, sequence int64, kr *kinetictypes.KeyRange, out *kbuf.Array, closure operation.Closure) Built {
	header := newHeader(ctx, kineticpb.MessageTypeGetKeyRange, sequence)
	body := &kineticpb.Body{Range: &kineticpb.Range{
		StartKey:          kr.StartKey,
		StartKeyInclusive: kr.StartKeyInclusive,
		EndKey:            kr.EndKey,
		EndKeyInclusive:   kr.EndKeyInclusive,
		Reverse:           kr.Reverse,
		MaxReturned:       kr.MaxReturned,
	}}
	cmd := &kineticpb.Command{Header: header, Body: body}

	op := operation.New(header.Sequence)
	op.Output = out
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status {
		if st != status.SUCCESS || cmd == nil || cmd.Body == nil || cmd.Body.Range == nil {
			return st
		}
		overrun := false
		for _, k := range cmd.Body.Range.Keys {
			if out.Append(k) {
				overrun = true
			}
		}
		if overrun {
			return status.BUFFER_OVERRUN
		}
		return st
	}
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}

// BuildP2POperation builds the peer-to-peer copy command. Per spec.md §9
// open question 2, each leaf's status is reported back onto its own
// P2PSubOperation, and the returned status is the worst-case across all
// leaves.
func BuildP2POperation(ctx BuildContext, sequence int64, p2p *kinetictypes.P2POperation, closure operation.Closure) Built {
	header := newHeader(ctx, kineticpb.MessageTypeP2POperation, sequence)
	wireOps := make([]*kineticpb.P2PSubOperation, len(p2p.Operations))
	for i, o := range p2p.Operations {
		wireOps[i] = &kineticpb.P2PSubOperation{
			Key:     o.Key,
			Version: o.Version,
			NewKey:  o.NewKey,
			Force:   o.Force,
		}
	}
	body := &kineticpb.Body{P2POperation: &kineticpb.P2POperation{
		Peer: &kineticpb.P2PPeer{
			Host: p2p.Peer.Host,
			Port: p2p.Peer.Port,
			TLS:  p2p.Peer.TLS,
		},
		Operations: wireOps,
	}}
	cmd := &kineticpb.Command{Header: header, Body: body}

	op := operation.New(header.Sequence)
	op.Output = p2p
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status {
		if cmd == nil || cmd.Body == nil || cmd.Body.P2POperation == nil {
			for _, o := range p2p.Operations {
				o.Status = st
			}
			return st
		}
		worst := status.SUCCESS
		wire := cmd.Body.P2POperation.Operations
		for i, o := range p2p.Operations {
			leafStatus := status.SUCCESS
			if i < len(wire) {
				leafStatus = status.FromWireCode(status.WireCode(wire[i].StatusCode))
			}
			o.Status = leafStatus
			worst = status.Worst(worst, leafStatus)
		}
		if st != status.SUCCESS {
			worst = status.Worst(worst, st)
		}
		return worst
	}
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}

// BuildSetACL builds the PIN-authenticated SetACL admin command
// (spec.md §4.9).
func BuildSetACL(ctx BuildContext, sequence int64, aclBytes, pin []byte, closure operation.Closure) (Built, error) {
	header := newHeader(ctx, kineticpb.MessageTypeSetACL, sequence)
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{Security: &kineticpb.Security{ACLBytes: aclBytes}}}

	op := operation.New(header.Sequence)
	msg, err := signPin(ctx, cmd, pin, op)
	if err != nil {
		return Built{}, err
	}
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status { return st }
	return Built{Op: op, Message: msg}, nil
}

// BuildPinOp builds SetErasePin/SetLockPin/SecureErase/InstantErase, all
// PIN-authenticated admin commands differing only in PinOpType and
// message type (spec.md §4.9).
func BuildPinOp(ctx BuildContext, sequence int64, msgType kineticpb.MessageType, opType kineticpb.PinOpType, oldPin, newPin, authPin []byte, closure operation.Closure) (Built, error) {
	header := newHeader(ctx, msgType, sequence)
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{PinOp: &kineticpb.PinOperation{
		OldPin: oldPin,
		NewPin: newPin,
		Type:   opType,
	}}}

	op := operation.New(header.Sequence)
	msg, err := signPin(ctx, cmd, authPin, op)
	if err != nil {
		return Built{}, err
	}
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status { return st }
	return Built{Op: op, Message: msg}, nil
}

// BuildGetLog builds GetLog, populating the caller's DeviceInfo output on
// success (spec.md §4.9).
func BuildGetLog(ctx BuildContext, sequence int64, types []kinetictypes.GetLogType, out *kinetictypes.DeviceInfo, closure operation.Closure) Built {
	header := newHeader(ctx, kineticpb.MessageTypeGetLog, sequence)
	wireTypes := make([]kineticpb.GetLogType, len(types))
	for i, t := range types {
		wireTypes[i] = toWireGetLogType(t)
	}
	cmd := &kineticpb.Command{Header: header, Body: &kineticpb.Body{GetLog: &kineticpb.GetLog{Types: wireTypes}}}

	op := operation.New(header.Sequence)
	op.Output = out
	op.Callback = closure
	op.OnReply = func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status {
		if st == status.SUCCESS && cmd != nil && cmd.Body != nil && cmd.Body.GetLog != nil {
			respTypes := make([]kinetictypes.GetLogType, len(cmd.Body.GetLog.Types))
			for i, t := range cmd.Body.GetLog.Types {
				respTypes[i] = fromWireGetLogType(t)
			}
			out.Types = respTypes
			out.Messages = cmd.Body.GetLog.Messages
		}
		return st
	}
	return Built{Op: op, Message: sign(ctx, cmd, op)}
}
