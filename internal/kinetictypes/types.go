// Package kinetictypes holds the caller-facing domain types shared by the
// public kinetic package and the internal message builder, broken out
// into their own package purely to avoid an import cycle between them
// (spec.md §3: Entry, KeyRange, and their relations).
package kinetictypes

// Algorithm enumerates Entry.Algorithm (spec.md §3).
type Algorithm int32

const (
	AlgorithmUnspecified Algorithm = iota
	AlgorithmSHA1
	AlgorithmSHA2
	AlgorithmSHA3
	AlgorithmCRC32
	AlgorithmCRC64
)

// Synchronization enumerates Entry.Synchronization (spec.md §3, GLOSSARY).
type Synchronization int32

const (
	// WriteThrough waits for persistence before acknowledging.
	WriteThrough Synchronization = iota
	// WriteBack acknowledges on buffer, persisting later.
	WriteBack
	// Flush requests a drive-wide flush.
	Flush
)

// Entry is the caller-visible key-value record consumed by Put/Delete and
// produced by Get/GetNext/GetPrevious (spec.md §3 "Entity: Entry").
type Entry struct {
	Key             []byte
	DBVersion       []byte
	NewVersion      []byte
	Tag             []byte
	Algorithm       Algorithm
	Value           []byte
	Force           bool
	Synchronization Synchronization
	MetadataOnly    bool
}

// KeyRange describes a GetKeyRange query and, after the call returns,
// holds no state itself — matched keys are written into the caller's
// ByteBufferArray output parameter (spec.md §3 "Entity: KeyRange").
type KeyRange struct {
	StartKey          []byte
	StartKeyInclusive bool
	EndKey            []byte
	EndKeyInclusive   bool
	Reverse           bool
	MaxReturned       int32
}

// P2PPeer names a peer drive for a peer-to-peer copy operation.
type P2PPeer struct {
	Host string
	Port int32
	TLS  bool
}

// P2PSubOperation is one leaf of a P2POperation's tree: a single key to
// copy to the peer, plus (after the call returns) its own per-leaf
// status, per spec.md §9 open question 2.
type P2PSubOperation struct {
	Key     []byte
	Version []byte
	NewKey  []byte
	Force   bool

	// Status is populated after the call returns; it uses `any` to avoid
	// this low-level package depending on internal/status, and is
	// type-asserted back to status.Status by kinetic.P2POperation.
	Status any
}

// P2POperation is the request/response record for the P2P command family
// (spec.md §4.9).
type P2POperation struct {
	Peer       P2PPeer
	Operations []*P2PSubOperation
}

// GetLogType enumerates which device log GetLog should fetch.
type GetLogType int32

const (
	GetLogUtilizations GetLogType = iota
	GetLogTemperatures
	GetLogCapacities
	GetLogConfiguration
	GetLogStatistics
	GetLogMessages
	GetLogLimits
	GetLogDevice
)

// DeviceInfo is the output target for GetLog (spec.md §4.9).
type DeviceInfo struct {
	Types    []GetLogType
	Messages [][]byte
}
