// Package status implements the public Status taxonomy (spec.md §7): the
// exhaustive set of outcomes every data-plane and admin-plane call can
// resolve to, plus the mapping from wire status codes to this taxonomy.
package status

// Status is a terminal or pending outcome of an operation.
type Status int

const (
	// Terminal
	SUCCESS Status = iota
	SUCCESS_PENDING

	// Transport
	CONNECTION_ERROR
	SOCKET_ERROR
	SOCKET_TIMEOUT
	OPERATION_TIMEDOUT
	OPERATION_FAILED
	SESSION_INVALID
	SESSION_EMPTY
	HOST_EMPTY
	HMAC_REQUIRED

	// Framing / auth
	DATA_ERROR
	INVALID_PDU
	INVALID_REQUEST
	NOT_AUTHORIZED

	// Semantic
	NOT_FOUND
	VERSION_MISMATCH
	VERSION_FAILURE
	CLUSTER_MISMATCH
	DEVICE_BUSY
	DEVICE_LOCKED
	DEVICE_ALREADY_UNLOCKED
	ACL_ERROR

	// Resource
	MEMORY_ERROR
	BUFFER_OVERRUN
	MISSING_KEY
	MISSING_VALUE_BUFFER
	MISSING_PIN

	// Local-only, never sent on the wire
	MAX_OUTSTANDING_EXCEEDED
)

var names = map[Status]string{
	SUCCESS:                  "SUCCESS",
	SUCCESS_PENDING:          "SUCCESS_PENDING",
	CONNECTION_ERROR:         "CONNECTION_ERROR",
	SOCKET_ERROR:             "SOCKET_ERROR",
	SOCKET_TIMEOUT:           "SOCKET_TIMEOUT",
	OPERATION_TIMEDOUT:       "OPERATION_TIMEDOUT",
	OPERATION_FAILED:         "OPERATION_FAILED",
	SESSION_INVALID:          "SESSION_INVALID",
	SESSION_EMPTY:            "SESSION_EMPTY",
	HOST_EMPTY:               "HOST_EMPTY",
	HMAC_REQUIRED:            "HMAC_REQUIRED",
	DATA_ERROR:               "DATA_ERROR",
	INVALID_PDU:              "INVALID_PDU",
	INVALID_REQUEST:          "INVALID_REQUEST",
	NOT_AUTHORIZED:           "NOT_AUTHORIZED",
	NOT_FOUND:                "NOT_FOUND",
	VERSION_MISMATCH:         "VERSION_MISMATCH",
	VERSION_FAILURE:          "VERSION_FAILURE",
	CLUSTER_MISMATCH:         "CLUSTER_MISMATCH",
	DEVICE_BUSY:              "DEVICE_BUSY",
	DEVICE_LOCKED:            "DEVICE_LOCKED",
	DEVICE_ALREADY_UNLOCKED:  "DEVICE_ALREADY_UNLOCKED",
	ACL_ERROR:                "ACL_ERROR",
	MEMORY_ERROR:             "MEMORY_ERROR",
	BUFFER_OVERRUN:           "BUFFER_OVERRUN",
	MISSING_KEY:              "MISSING_KEY",
	MISSING_VALUE_BUFFER:     "MISSING_VALUE_BUFFER",
	MISSING_PIN:              "MISSING_PIN",
	MAX_OUTSTANDING_EXCEEDED: "MAX_OUTSTANDING_EXCEEDED",
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "UNKNOWN_STATUS"
}

// OK reports whether s represents a successful (or successfully-pending)
// outcome.
func (s Status) OK() bool {
	return s == SUCCESS || s == SUCCESS_PENDING
}

// WireCode mirrors the Command.Status.code values in kineticpb. Only the
// subset this engine maps is enumerated; unrecognised codes fall back to
// OPERATION_FAILED in FromWireCode.
type WireCode int32

const (
	WireSuccess WireCode = iota
	WireNotAttempted
	WireHMACFailure
	WireNotAuthorized
	WireVersionFailure
	WireInternalError
	WireHeaderRequiredFailure
	WireNotFound
	WireVersionMismatch
	WireServiceBusy
	WireExpiredFailure
	WireDataError
	WireNoSpace
	WirePermDataError
	WireRemoteConnectionError
	WireNotFoundRouter
	WireNestedOperationErrors
	WireDeviceLocked
	WireDeviceAlreadyUnlocked
)

// FromWireCode translates a decoded wire status code into the public
// taxonomy, per spec.md §4.6 ("Convert the wire status code to the public
// Status taxonomy").
func FromWireCode(code WireCode) Status {
	switch code {
	case WireSuccess:
		return SUCCESS
	case WireHMACFailure:
		return DATA_ERROR
	case WireNotAuthorized:
		return NOT_AUTHORIZED
	case WireVersionFailure:
		return VERSION_FAILURE
	case WireVersionMismatch:
		return VERSION_MISMATCH
	case WireNotFound:
		return NOT_FOUND
	case WireServiceBusy:
		return DEVICE_BUSY
	case WireDeviceLocked:
		return DEVICE_LOCKED
	case WireDeviceAlreadyUnlocked:
		return DEVICE_ALREADY_UNLOCKED
	case WireNoSpace, WireInternalError, WirePermDataError:
		return MEMORY_ERROR
	case WireDataError:
		return DATA_ERROR
	case WireHeaderRequiredFailure:
		return INVALID_REQUEST
	case WireRemoteConnectionError, WireNotFoundRouter:
		return CLUSTER_MISMATCH
	default:
		return OPERATION_FAILED
	}
}

// Worst returns whichever of a, b is the more severe outcome, used to roll
// up P2P sub-operation statuses into the parent operation's status
// (spec.md §9, open question 2). SUCCESS is least severe; any non-success
// status beats SUCCESS, and among two non-success statuses the first
// encountered (a) wins ties so rollup is deterministic for equal-severity
// failures.
func Worst(a, b Status) Status {
	if a.OK() {
		return b
	}
	if b.OK() {
		return a
	}
	return a
}
