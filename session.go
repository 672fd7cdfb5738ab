package kinetic

import (
	"github.com/Abioy/kinetic-go/internal/kineticpb"
	"github.com/Abioy/kinetic-go/internal/message"
	"github.com/Abioy/kinetic-go/internal/session"
	"github.com/Abioy/kinetic-go/internal/status"
)

// Session is one connected-drive endpoint, exposing the full
// data-plane and admin-plane operation surface (spec.md §6).
type Session struct {
	inner *session.Session
}

// DestroySession tears the connection down (spec.md §6
// "destroy_session(Session) → Status").
func (s *Session) DestroySession() Status {
	if err := s.inner.Close(); err != nil {
		return status.SESSION_INVALID
	}
	return status.SUCCESS
}

// NoOp issues a no-op request, the simplest round trip through the
// transport engine (spec.md §4.9).
func (s *Session) NoOp(closure Closure) Status {
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildNoOp(s.inner.BuildContext(), seq, closure), nil
	})
}

// Put writes entry, sending its Value as the PDU's raw value blob
// (spec.md §4.9). On success entry.DBVersion is updated to the
// drive-assigned version.
func (s *Session) Put(entry *Entry, closure Closure) Status {
	if entry == nil || len(entry.Key) == 0 {
		return status.MISSING_KEY
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildPut(s.inner.BuildContext(), seq, entry, closure), nil
	})
}

// Get fetches entry.Key, populating Tag/DBVersion/Algorithm/Value on
// success (or only metadata when entry.MetadataOnly is set).
func (s *Session) Get(entry *Entry, closure Closure) Status {
	return s.get(kineticpb.MessageTypeGet, entry, closure)
}

// GetNext is Get's successor-key variant (spec.md §4.9).
func (s *Session) GetNext(entry *Entry, closure Closure) Status {
	return s.get(kineticpb.MessageTypeGetNext, entry, closure)
}

// GetPrevious is Get's predecessor-key variant (spec.md §4.9).
func (s *Session) GetPrevious(entry *Entry, closure Closure) Status {
	return s.get(kineticpb.MessageTypeGetPrevious, entry, closure)
}

func (s *Session) get(msgType kineticpb.MessageType, entry *Entry, closure Closure) Status {
	if entry == nil || len(entry.Key) == 0 {
		return status.MISSING_KEY
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildGet(s.inner.BuildContext(), seq, msgType, entry, closure), nil
	})
}

// Delete removes entry.Key (spec.md §4.9).
func (s *Session) Delete(entry *Entry, closure Closure) Status {
	if entry == nil || len(entry.Key) == 0 {
		return status.MISSING_KEY
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildDelete(s.inner.BuildContext(), seq, entry, closure), nil
	})
}

// Flush requests the drive persist any buffered writes (spec.md §4.9).
func (s *Session) Flush(closure Closure) Status {
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildFlush(s.inner.BuildContext(), seq, closure), nil
	})
}

// GetKeyRange fills out with the keys in [kr.StartKey, kr.EndKey],
// truncating and reporting BUFFER_OVERRUN if out runs out of room
// (spec.md §4.9).
func (s *Session) GetKeyRange(kr *KeyRange, out *ByteBufferArray, closure Closure) Status {
	if out == nil {
		return status.MISSING_VALUE_BUFFER
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildGetKeyRange(s.inner.BuildContext(), seq, kr, out, closure), nil
	})
}

// P2POperation requests the drive copy keys directly to a peer drive,
// rolling per-leaf statuses back onto p2p.Operations (spec.md §4.9).
func (s *Session) P2POperation(p2p *P2POperation, closure Closure) Status {
	if p2p == nil || len(p2p.Operations) == 0 {
		return status.INVALID_REQUEST
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildP2POperation(s.inner.BuildContext(), seq, p2p, closure), nil
	})
}

// GetLog fetches one or more device logs into out (spec.md §4.9).
func (s *Session) GetLog(types []GetLogType, out *DeviceInfo, closure Closure) Status {
	if out == nil {
		return status.MEMORY_ERROR
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildGetLog(s.inner.BuildContext(), seq, types, out, closure), nil
	})
}

// SetACL installs a new ACL document, PIN-authenticated and only
// permitted on the admin port (spec.md §4.2, §4.9).
func (s *Session) SetACL(list *ACLList, pin []byte, closure Closure) Status {
	if len(pin) == 0 {
		return status.MISSING_PIN
	}
	if !s.inner.IsAdminPort() {
		return status.NOT_AUTHORIZED
	}
	data, err := list.Encode()
	if err != nil {
		return status.ACL_ERROR
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildSetACL(s.inner.BuildContext(), seq, data, pin, closure)
	})
}

// SetErasePin changes the PIN required for SecureErase/InstantErase,
// authenticated with the currently-set oldPin (spec.md §4.9).
func (s *Session) SetErasePin(oldPin, newPin []byte, closure Closure) Status {
	return s.pinOp(kineticpb.MessageTypeSetErasePin, kineticpb.PinOpSetErasePin, oldPin, newPin, oldPin, closure)
}

// SetLockPin changes the PIN required to lock/unlock the device
// (spec.md §4.9).
func (s *Session) SetLockPin(oldPin, newPin []byte, closure Closure) Status {
	return s.pinOp(kineticpb.MessageTypeSetLockPin, kineticpb.PinOpSetLockPin, oldPin, newPin, oldPin, closure)
}

// SecureErase wipes the device securely, authenticated by the current
// erase PIN (spec.md §4.9).
func (s *Session) SecureErase(pin []byte, closure Closure) Status {
	return s.pinOp(kineticpb.MessageTypeSecureErase, kineticpb.PinOpSecureErase, nil, nil, pin, closure)
}

// InstantErase wipes the device immediately without a secure-overwrite
// pass, authenticated by the current erase PIN (spec.md §4.9).
func (s *Session) InstantErase(pin []byte, closure Closure) Status {
	return s.pinOp(kineticpb.MessageTypeInstantErase, kineticpb.PinOpInstantErase, nil, nil, pin, closure)
}

func (s *Session) pinOp(msgType kineticpb.MessageType, opType kineticpb.PinOpType, oldPin, newPin, authPin []byte, closure Closure) Status {
	if len(authPin) == 0 {
		return status.MISSING_PIN
	}
	if !s.inner.IsAdminPort() {
		return status.NOT_AUTHORIZED
	}
	return s.inner.Dispatch(func(seq int64) (message.Built, error) {
		return message.BuildPinOp(s.inner.BuildContext(), seq, msgType, opType, oldPin, newPin, authPin, closure)
	})
}
