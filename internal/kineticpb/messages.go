package kineticpb

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is the outermost envelope on the wire (spec.md §6): an auth
// block plus the serialised Command bytes the HMAC is computed over.
type Message struct {
	AuthType     AuthType
	HMACAuth     *HMACAuth
	PinAuth      *PinAuth
	CommandBytes []byte
}

// HMACAuth carries the identity and the 20-byte HMAC-SHA1 of CommandBytes.
type HMACAuth struct {
	Identity int64
	HMAC     []byte
}

// PinAuth substitutes a PIN for the HMAC on security-sensitive admin
// messages (spec.md §4.2).
type PinAuth struct {
	Pin []byte
}

func (m *Message) Marshal() []byte {
	var b []byte
	b = appendInt64Field(b, fieldMessageAuthType, int64(m.AuthType))
	if m.HMACAuth != nil {
		inner := m.HMACAuth.Marshal()
		b = protowire.AppendTag(b, fieldMessageHMACAuth, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	if m.PinAuth != nil {
		inner := m.PinAuth.Marshal()
		b = protowire.AppendTag(b, fieldMessagePinAuth, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	b = appendBytesField(b, fieldMessageCommandBytes, m.CommandBytes)
	return b
}

func (m *Message) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldMessageAuthType:
			m.AuthType = AuthType(decodeVarint(raw))
		case fieldMessageHMACAuth:
			m.HMACAuth = &HMACAuth{}
			return m.HMACAuth.Unmarshal(raw)
		case fieldMessagePinAuth:
			m.PinAuth = &PinAuth{}
			return m.PinAuth.Unmarshal(raw)
		case fieldMessageCommandBytes:
			m.CommandBytes = append([]byte(nil), raw...)
		}
		return nil
	})
}

func (h *HMACAuth) Marshal() []byte {
	var b []byte
	b = appendInt64Field(b, fieldHMACIdentity, h.Identity)
	b = appendBytesField(b, fieldHMACHmac, h.HMAC)
	return b
}

func (h *HMACAuth) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldHMACIdentity:
			h.Identity = decodeVarint(raw)
		case fieldHMACHmac:
			h.HMAC = append([]byte(nil), raw...)
		}
		return nil
	})
}

func (p *PinAuth) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, fieldPinAuthPin, p.Pin)
	return b
}

func (p *PinAuth) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		if num == fieldPinAuthPin {
			p.Pin = append([]byte(nil), raw...)
		}
		return nil
	})
}

// Command is the decoded contents of Message.CommandBytes: Header + Body
// + Status (spec.md §6).
type Command struct {
	Header *Header
	Body   *Body
	Status *Status
}

func (c *Command) Marshal() []byte {
	var b []byte
	if c.Header != nil {
		inner := c.Header.Marshal()
		b = protowire.AppendTag(b, fieldCommandHeader, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	if c.Body != nil {
		inner := c.Body.Marshal()
		b = protowire.AppendTag(b, fieldCommandBody, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	if c.Status != nil {
		inner := c.Status.Marshal()
		b = protowire.AppendTag(b, fieldCommandStatus, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b
}

func (c *Command) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldCommandHeader:
			c.Header = &Header{}
			return c.Header.Unmarshal(raw)
		case fieldCommandBody:
			c.Body = &Body{}
			return c.Body.Unmarshal(raw)
		case fieldCommandStatus:
			c.Status = &Status{}
			return c.Status.Unmarshal(raw)
		}
		return nil
	})
}

// Header carries the fields spec.md §6 lists for Command.Header.
type Header struct {
	ClusterVersion int64
	ConnectionID   int64
	Sequence       int64
	AckSequence    int64
	MessageType    MessageType
	Timeout        int64
	Priority       int32
	TimeQuanta     int64
	BatchID        int32
}

func (h *Header) Marshal() []byte {
	var b []byte
	b = appendInt64Field(b, fieldHeaderClusterVersion, h.ClusterVersion)
	b = appendInt64Field(b, fieldHeaderConnectionID, h.ConnectionID)
	b = appendInt64Field(b, fieldHeaderSequence, h.Sequence)
	b = appendInt64Field(b, fieldHeaderAckSequence, h.AckSequence)
	b = appendInt64Field(b, fieldHeaderMessageType, int64(h.MessageType))
	b = appendInt64Field(b, fieldHeaderTimeout, h.Timeout)
	b = appendInt64Field(b, fieldHeaderPriority, int64(h.Priority))
	b = appendInt64Field(b, fieldHeaderTimeQuanta, h.TimeQuanta)
	b = appendInt64Field(b, fieldHeaderBatchID, int64(h.BatchID))
	return b
}

func (h *Header) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldHeaderClusterVersion:
			h.ClusterVersion = decodeVarint(raw)
		case fieldHeaderConnectionID:
			h.ConnectionID = decodeVarint(raw)
		case fieldHeaderSequence:
			h.Sequence = decodeVarint(raw)
		case fieldHeaderAckSequence:
			h.AckSequence = decodeVarint(raw)
		case fieldHeaderMessageType:
			h.MessageType = MessageType(decodeVarint(raw))
		case fieldHeaderTimeout:
			h.Timeout = decodeVarint(raw)
		case fieldHeaderPriority:
			h.Priority = int32(decodeVarint(raw))
		case fieldHeaderTimeQuanta:
			h.TimeQuanta = decodeVarint(raw)
		case fieldHeaderBatchID:
			h.BatchID = int32(decodeVarint(raw))
		}
		return nil
	})
}

// Body is a union of the per-command-family sub-messages (spec.md §4.9).
// At most one field is populated per command; NoOp and Flush send an
// empty Body.
type Body struct {
	KeyValue     *KeyValue
	Range        *Range
	Setup        *Setup
	P2POperation *P2POperation
	GetLog       *GetLog
	Security     *Security
	PinOp        *PinOperation
}

func (bd *Body) Marshal() []byte {
	var b []byte
	appendSub := func(num protowire.Number, m interface{ Marshal() []byte }) {
		if isNilMarshaler(m) {
			return
		}
		inner := m.Marshal()
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	appendSub(fieldBodyKeyValue, bd.KeyValue)
	appendSub(fieldBodyRange, bd.Range)
	appendSub(fieldBodySetup, bd.Setup)
	appendSub(fieldBodyP2POperation, bd.P2POperation)
	appendSub(fieldBodyGetLog, bd.GetLog)
	appendSub(fieldBodySecurity, bd.Security)
	appendSub(fieldBodyPinOp, bd.PinOp)
	return b
}

// isNilMarshaler reports whether a typed *T interface value holds a nil
// pointer, since a non-nil interface wrapping a nil *T is not itself nil.
func isNilMarshaler(m interface{ Marshal() []byte }) bool {
	switch v := m.(type) {
	case *KeyValue:
		return v == nil
	case *Range:
		return v == nil
	case *Setup:
		return v == nil
	case *P2POperation:
		return v == nil
	case *GetLog:
		return v == nil
	case *Security:
		return v == nil
	case *PinOperation:
		return v == nil
	default:
		return m == nil
	}
}

func (bd *Body) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldBodyKeyValue:
			bd.KeyValue = &KeyValue{}
			return bd.KeyValue.Unmarshal(raw)
		case fieldBodyRange:
			bd.Range = &Range{}
			return bd.Range.Unmarshal(raw)
		case fieldBodySetup:
			bd.Setup = &Setup{}
			return bd.Setup.Unmarshal(raw)
		case fieldBodyP2POperation:
			bd.P2POperation = &P2POperation{}
			return bd.P2POperation.Unmarshal(raw)
		case fieldBodyGetLog:
			bd.GetLog = &GetLog{}
			return bd.GetLog.Unmarshal(raw)
		case fieldBodySecurity:
			bd.Security = &Security{}
			return bd.Security.Unmarshal(raw)
		case fieldBodyPinOp:
			bd.PinOp = &PinOperation{}
			return bd.PinOp.Unmarshal(raw)
		}
		return nil
	})
}

// Algorithm enumerates Entry.Algorithm (spec.md §3).
type Algorithm int32

const (
	AlgorithmInvalid Algorithm = iota
	AlgorithmSHA1
	AlgorithmSHA2
	AlgorithmSHA3
	AlgorithmCRC32
	AlgorithmCRC64
)

// Synchronization enumerates Entry.Synchronization (spec.md §3).
type Synchronization int32

const (
	SynchronizationInvalid Synchronization = iota
	SynchronizationWriteThrough
	SynchronizationWriteBack
	SynchronizationFlush
)

// KeyValue carries the Entry metadata for Put/Get/GetNext/GetPrevious/
// Delete (spec.md §4.9). The value payload itself travels as the PDU's
// raw value blob, never inside the protobuf (spec.md §4.1).
type KeyValue struct {
	Key             []byte
	NewVersion      []byte
	DbVersion       []byte
	Tag             []byte
	Algorithm       Algorithm
	Force           bool
	Synchronization Synchronization
	MetadataOnly    bool
}

func (kv *KeyValue) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, fieldKVKey, kv.Key)
	b = appendBytesField(b, fieldKVNewVersion, kv.NewVersion)
	b = appendBytesField(b, fieldKVDbVersion, kv.DbVersion)
	b = appendBytesField(b, fieldKVTag, kv.Tag)
	b = appendInt64Field(b, fieldKVAlgorithm, int64(kv.Algorithm))
	b = appendBoolField(b, fieldKVForce, kv.Force)
	b = appendInt64Field(b, fieldKVSynchronization, int64(kv.Synchronization))
	b = appendBoolField(b, fieldKVMetadataOnly, kv.MetadataOnly)
	return b
}

func (kv *KeyValue) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldKVKey:
			kv.Key = append([]byte(nil), raw...)
		case fieldKVNewVersion:
			kv.NewVersion = append([]byte(nil), raw...)
		case fieldKVDbVersion:
			kv.DbVersion = append([]byte(nil), raw...)
		case fieldKVTag:
			kv.Tag = append([]byte(nil), raw...)
		case fieldKVAlgorithm:
			kv.Algorithm = Algorithm(decodeVarint(raw))
		case fieldKVForce:
			kv.Force = decodeBool(raw)
		case fieldKVSynchronization:
			kv.Synchronization = Synchronization(decodeVarint(raw))
		case fieldKVMetadataOnly:
			kv.MetadataOnly = decodeBool(raw)
		}
		return nil
	})
}

// Range carries GetKeyRange's request fields and, on the response, the
// matched keys (spec.md §4.9).
type Range struct {
	StartKey          []byte
	StartKeyInclusive bool
	EndKey            []byte
	EndKeyInclusive   bool
	Reverse           bool
	MaxReturned       int32
	Keys              [][]byte
}

func (r *Range) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, fieldRangeStartKey, r.StartKey)
	b = appendBoolField(b, fieldRangeStartKeyInclusive, r.StartKeyInclusive)
	b = appendBytesField(b, fieldRangeEndKey, r.EndKey)
	b = appendBoolField(b, fieldRangeEndKeyInclusive, r.EndKeyInclusive)
	b = appendBoolField(b, fieldRangeReverse, r.Reverse)
	b = appendInt64Field(b, fieldRangeMaxReturned, int64(r.MaxReturned))
	for _, k := range r.Keys {
		b = protowire.AppendTag(b, fieldRangeKeys, protowire.BytesType)
		b = protowire.AppendBytes(b, k)
	}
	return b
}

func (r *Range) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldRangeStartKey:
			r.StartKey = append([]byte(nil), raw...)
		case fieldRangeStartKeyInclusive:
			r.StartKeyInclusive = decodeBool(raw)
		case fieldRangeEndKey:
			r.EndKey = append([]byte(nil), raw...)
		case fieldRangeEndKeyInclusive:
			r.EndKeyInclusive = decodeBool(raw)
		case fieldRangeReverse:
			r.Reverse = decodeBool(raw)
		case fieldRangeMaxReturned:
			r.MaxReturned = int32(decodeVarint(raw))
		case fieldRangeKeys:
			r.Keys = append(r.Keys, append([]byte(nil), raw...))
		}
		return nil
	})
}

// Setup is reserved for connection setup parameters; the engine currently
// has no fields to populate here but keeps the slot because spec.md §6
// lists "setup" as one of the Body oneof members.
type Setup struct{}

func (s *Setup) Marshal() []byte { return nil }
func (s *Setup) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error { return nil })
}

// P2PPeer names the destination drive for a peer-to-peer copy.
type P2PPeer struct {
	Host string
	Port int32
	TLS  bool
}

func (p *P2PPeer) Marshal() []byte {
	var b []byte
	b = appendStringField(b, fieldP2PPeerHost, p.Host)
	b = appendInt64Field(b, fieldP2PPeerPort, int64(p.Port))
	b = appendBoolField(b, fieldP2PPeerTLS, p.TLS)
	return b
}

func (p *P2PPeer) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldP2PPeerHost:
			p.Host = string(raw)
		case fieldP2PPeerPort:
			p.Port = int32(decodeVarint(raw))
		case fieldP2PPeerTLS:
			p.TLS = decodeBool(raw)
		}
		return nil
	})
}

// P2PSubOperation is one leaf of a P2POperation's operation tree
// (spec.md §4.9, §9 open question 2): a single key to copy, plus (on the
// response) its own status code.
type P2PSubOperation struct {
	Key        []byte
	Version    []byte
	NewKey     []byte
	Force      bool
	StatusCode int32
}

func (o *P2PSubOperation) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, fieldP2PSubOpKey, o.Key)
	b = appendBytesField(b, fieldP2PSubOpVersion, o.Version)
	b = appendBytesField(b, fieldP2PSubOpNewKey, o.NewKey)
	b = appendBoolField(b, fieldP2PSubOpForce, o.Force)
	b = appendInt64Field(b, fieldP2PSubOpStatusCode, int64(o.StatusCode))
	return b
}

func (o *P2PSubOperation) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldP2PSubOpKey:
			o.Key = append([]byte(nil), raw...)
		case fieldP2PSubOpVersion:
			o.Version = append([]byte(nil), raw...)
		case fieldP2PSubOpNewKey:
			o.NewKey = append([]byte(nil), raw...)
		case fieldP2PSubOpForce:
			o.Force = decodeBool(raw)
		case fieldP2PSubOpStatusCode:
			o.StatusCode = int32(decodeVarint(raw))
		}
		return nil
	})
}

// P2POperation is the request body for peer-to-peer copy (spec.md §4.9).
type P2POperation struct {
	Peer       *P2PPeer
	Operations []*P2PSubOperation
}

func (p *P2POperation) Marshal() []byte {
	var b []byte
	if p.Peer != nil {
		inner := p.Peer.Marshal()
		b = protowire.AppendTag(b, fieldP2POpPeer, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	for _, op := range p.Operations {
		inner := op.Marshal()
		b = protowire.AppendTag(b, fieldP2POpOperations, protowire.BytesType)
		b = protowire.AppendBytes(b, inner)
	}
	return b
}

func (p *P2POperation) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldP2POpPeer:
			p.Peer = &P2PPeer{}
			return p.Peer.Unmarshal(raw)
		case fieldP2POpOperations:
			sub := &P2PSubOperation{}
			if err := sub.Unmarshal(raw); err != nil {
				return err
			}
			p.Operations = append(p.Operations, sub)
		}
		return nil
	})
}

// GetLogType enumerates the kinds of device log GetLog can request.
type GetLogType int32

const (
	GetLogTypeInvalid GetLogType = iota
	GetLogTypeUtilizations
	GetLogTypeTemperatures
	GetLogTypeCapacities
	GetLogTypeConfiguration
	GetLogTypeStatistics
	GetLogTypeMessages
	GetLogTypeLimits
	GetLogTypeDevice
)

// GetLog requests (Types) or carries (Messages) device-info log entries
// for the GetLog command family (spec.md §4.9).
type GetLog struct {
	Types    []GetLogType
	Messages [][]byte
}

func (g *GetLog) Marshal() []byte {
	var b []byte
	for _, t := range g.Types {
		b = protowire.AppendTag(b, fieldGetLogTypes, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(t))
	}
	for _, m := range g.Messages {
		b = protowire.AppendTag(b, fieldGetLogMessages, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}
	return b
}

func (g *GetLog) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldGetLogTypes:
			g.Types = append(g.Types, GetLogType(decodeVarint(raw)))
		case fieldGetLogMessages:
			g.Messages = append(g.Messages, append([]byte(nil), raw...))
		}
		return nil
	})
}

// Security carries an opaque, already-serialised ACL document for SetACL.
// The JSON -> wire encoding is the external collaborator's job (spec.md
// §6); this package only transports the resulting bytes.
type Security struct {
	ACLBytes []byte
}

func (s *Security) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, fieldSecurityACLBytes, s.ACLBytes)
	return b
}

func (s *Security) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		if num == fieldSecurityACLBytes {
			s.ACLBytes = append([]byte(nil), raw...)
		}
		return nil
	})
}

// PinOpType enumerates which PIN-authenticated admin operation a
// PinOperation requests.
type PinOpType int32

const (
	PinOpInvalid PinOpType = iota
	PinOpSetErasePin
	PinOpSetLockPin
	PinOpSecureErase
	PinOpInstantErase
)

// PinOperation carries the old/new PIN pair for erase-pin/lock-pin admin
// calls, and the bare PIN for secure/instant erase (spec.md §4.9).
type PinOperation struct {
	OldPin []byte
	NewPin []byte
	Type   PinOpType
}

func (p *PinOperation) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, fieldPinOpOldPin, p.OldPin)
	b = appendBytesField(b, fieldPinOpNewPin, p.NewPin)
	b = appendInt64Field(b, fieldPinOpType, int64(p.Type))
	return b
}

func (p *PinOperation) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldPinOpOldPin:
			p.OldPin = append([]byte(nil), raw...)
		case fieldPinOpNewPin:
			p.NewPin = append([]byte(nil), raw...)
		case fieldPinOpType:
			p.Type = PinOpType(decodeVarint(raw))
		}
		return nil
	})
}

// Status is Command.Status: the wire-level outcome of a request
// (spec.md §6).
type Status struct {
	Code            int32
	StatusMessage   string
	DetailedMessage []byte
}

func (s *Status) Marshal() []byte {
	var b []byte
	b = appendInt64Field(b, fieldStatusCode, int64(s.Code))
	b = appendStringField(b, fieldStatusStatusMessage, s.StatusMessage)
	b = appendBytesField(b, fieldStatusDetailedMessage, s.DetailedMessage)
	return b
}

func (s *Status) Unmarshal(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, raw []byte) error {
		switch num {
		case fieldStatusCode:
			s.Code = int32(decodeVarint(raw))
		case fieldStatusStatusMessage:
			s.StatusMessage = string(raw)
		case fieldStatusDetailedMessage:
			s.DetailedMessage = append([]byte(nil), raw...)
		}
		return nil
	})
}
