// Package kinetic is the public client library for the Kinetic
// network-attached key-value storage protocol: session management plus
// the full data-plane (Put/Get/GetNext/GetPrevious/Delete/GetKeyRange/
// Flush/NoOp/P2P) and admin-plane (ACL/PIN/erase) operation surface
// (spec.md §6 "Public API surface").
package kinetic

import (
	"github.com/Abioy/kinetic-go/internal/acl"
	"github.com/Abioy/kinetic-go/internal/config"
	"github.com/Abioy/kinetic-go/internal/kbuf"
	"github.com/Abioy/kinetic-go/internal/kinetictypes"
	"github.com/Abioy/kinetic-go/internal/operation"
	"github.com/Abioy/kinetic-go/internal/status"
)

// Entry is the caller-visible key-value record used by Put/Get/Delete
// (spec.md §3 "Entity: Entry").
type Entry = kinetictypes.Entry

// KeyRange describes a GetKeyRange query (spec.md §3 "Entity: KeyRange").
type KeyRange = kinetictypes.KeyRange

// P2PPeer names the destination drive for a peer-to-peer copy.
type P2PPeer = kinetictypes.P2PPeer

// P2PSubOperation is one leaf of a P2POperation's operation tree.
type P2PSubOperation = kinetictypes.P2PSubOperation

// P2POperation is the request/response record for the P2P command
// family (spec.md §4.9).
type P2POperation = kinetictypes.P2POperation

// GetLogType enumerates which device log GetLog should fetch.
type GetLogType = kinetictypes.GetLogType

// DeviceInfo is the output target for GetLog (spec.md §4.9).
type DeviceInfo = kinetictypes.DeviceInfo

// Algorithm enumerates Entry.Algorithm (spec.md §3).
type Algorithm = kinetictypes.Algorithm

// Synchronization enumerates Entry.Synchronization (spec.md §3).
type Synchronization = kinetictypes.Synchronization

const (
	AlgorithmUnspecified = kinetictypes.AlgorithmUnspecified
	AlgorithmSHA1        = kinetictypes.AlgorithmSHA1
	AlgorithmSHA2        = kinetictypes.AlgorithmSHA2
	AlgorithmSHA3        = kinetictypes.AlgorithmSHA3
	AlgorithmCRC32       = kinetictypes.AlgorithmCRC32
	AlgorithmCRC64       = kinetictypes.AlgorithmCRC64

	WriteThrough = kinetictypes.WriteThrough
	WriteBack    = kinetictypes.WriteBack
	Flush        = kinetictypes.Flush

	GetLogUtilizations = kinetictypes.GetLogUtilizations
	GetLogTemperatures = kinetictypes.GetLogTemperatures
	GetLogCapacities   = kinetictypes.GetLogCapacities
	GetLogConfig       = kinetictypes.GetLogConfiguration
	GetLogStatistics   = kinetictypes.GetLogStatistics
	GetLogMessages     = kinetictypes.GetLogMessages
	GetLogLimits       = kinetictypes.GetLogLimits
	GetLogDevice       = kinetictypes.GetLogDevice
)

// ByteBufferArray is the fixed-capacity output target for GetKeyRange
// (spec.md §6 "&mut ByteBufferArray"). NewByteBufferArray allocates one
// with room for count keys, each up to entryCapacity bytes.
type ByteBufferArray = kbuf.Array

// NewByteBufferArray allocates a ByteBufferArray with room for count
// keys of at most entryCapacity bytes each.
func NewByteBufferArray(count, entryCapacity int) *ByteBufferArray {
	return kbuf.NewArray(count, entryCapacity)
}

// Status is the outcome of any data-plane or admin-plane call
// (spec.md §7).
type Status = status.Status

// The full status taxonomy (spec.md §7), re-exported so callers never
// need to import internal/status directly.
const (
	SUCCESS                  = status.SUCCESS
	SUCCESS_PENDING          = status.SUCCESS_PENDING
	CONNECTION_ERROR         = status.CONNECTION_ERROR
	SOCKET_ERROR             = status.SOCKET_ERROR
	SOCKET_TIMEOUT           = status.SOCKET_TIMEOUT
	OPERATION_TIMEDOUT       = status.OPERATION_TIMEDOUT
	OPERATION_FAILED         = status.OPERATION_FAILED
	SESSION_INVALID          = status.SESSION_INVALID
	SESSION_EMPTY            = status.SESSION_EMPTY
	HOST_EMPTY               = status.HOST_EMPTY
	HMAC_REQUIRED            = status.HMAC_REQUIRED
	DATA_ERROR               = status.DATA_ERROR
	INVALID_PDU              = status.INVALID_PDU
	INVALID_REQUEST          = status.INVALID_REQUEST
	NOT_AUTHORIZED           = status.NOT_AUTHORIZED
	NOT_FOUND                = status.NOT_FOUND
	VERSION_MISMATCH         = status.VERSION_MISMATCH
	VERSION_FAILURE          = status.VERSION_FAILURE
	CLUSTER_MISMATCH         = status.CLUSTER_MISMATCH
	DEVICE_BUSY              = status.DEVICE_BUSY
	DEVICE_LOCKED            = status.DEVICE_LOCKED
	DEVICE_ALREADY_UNLOCKED  = status.DEVICE_ALREADY_UNLOCKED
	ACL_ERROR                = status.ACL_ERROR
	MEMORY_ERROR             = status.MEMORY_ERROR
	BUFFER_OVERRUN           = status.BUFFER_OVERRUN
	MISSING_KEY              = status.MISSING_KEY
	MISSING_VALUE_BUFFER     = status.MISSING_VALUE_BUFFER
	MISSING_PIN              = status.MISSING_PIN
	MAX_OUTSTANDING_EXCEEDED = status.MAX_OUTSTANDING_EXCEEDED
)

// Closure is the user-supplied asynchronous completion handler. A nil
// Closure selects the synchronous call path (spec.md §6).
type Closure = operation.Closure

// ClientConfig carries process-wide defaults (spec.md §6
// "ClientConfig options").
type ClientConfig = config.ClientConfig

// DefaultClientConfig returns the documented ClientConfig defaults.
func DefaultClientConfig() *ClientConfig { return config.DefaultClientConfig() }

// SessionConfig carries the per-drive connection parameters passed to
// CreateSession (spec.md §6 "SessionConfig options").
type SessionConfig = config.SessionConfig

// ACLList is a parsed ACL document, as produced by LoadACLFile and
// consumed by Session.SetACL (spec.md §6 "ACL definitions are consumed
// ... and passed in as a parsed structure").
type ACLList = acl.List

// LoadACLFile reads and parses an ACL JSON document from path.
func LoadACLFile(path string) (*ACLList, error) { return acl.LoadFile(path) }
