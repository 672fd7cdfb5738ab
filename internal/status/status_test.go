package status

import "testing"

func TestStringReturnsNameForKnownStatus(t *testing.T) {
	if got := SUCCESS.String(); got != "SUCCESS" {
		t.Errorf("SUCCESS.String() = %q, want %q", got, "SUCCESS")
	}
	if got := NOT_FOUND.String(); got != "NOT_FOUND" {
		t.Errorf("NOT_FOUND.String() = %q, want %q", got, "NOT_FOUND")
	}
}

func TestStringFallsBackForUnknownStatus(t *testing.T) {
	unknown := Status(999)
	if got := unknown.String(); got != "UNKNOWN_STATUS" {
		t.Errorf("Status(999).String() = %q, want %q", got, "UNKNOWN_STATUS")
	}
}

func TestOK(t *testing.T) {
	cases := []struct {
		s    Status
		want bool
	}{
		{SUCCESS, true},
		{SUCCESS_PENDING, true},
		{NOT_FOUND, false},
		{SOCKET_ERROR, false},
	}
	for _, c := range cases {
		if got := c.s.OK(); got != c.want {
			t.Errorf("%v.OK() = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestFromWireCode(t *testing.T) {
	cases := []struct {
		code WireCode
		want Status
	}{
		{WireSuccess, SUCCESS},
		{WireHMACFailure, DATA_ERROR},
		{WireNotAuthorized, NOT_AUTHORIZED},
		{WireVersionMismatch, VERSION_MISMATCH},
		{WireNotFound, NOT_FOUND},
		{WireServiceBusy, DEVICE_BUSY},
		{WireDeviceLocked, DEVICE_LOCKED},
		{WireNoSpace, MEMORY_ERROR},
		{WireCode(-1), OPERATION_FAILED},
	}
	for _, c := range cases {
		if got := FromWireCode(c.code); got != c.want {
			t.Errorf("FromWireCode(%v) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestWorstPrefersNonSuccess(t *testing.T) {
	if got := Worst(SUCCESS, NOT_FOUND); got != NOT_FOUND {
		t.Errorf("Worst(SUCCESS, NOT_FOUND) = %v, want NOT_FOUND", got)
	}
	if got := Worst(NOT_FOUND, SUCCESS); got != NOT_FOUND {
		t.Errorf("Worst(NOT_FOUND, SUCCESS) = %v, want NOT_FOUND", got)
	}
	if got := Worst(SUCCESS, SUCCESS); got != SUCCESS {
		t.Errorf("Worst(SUCCESS, SUCCESS) = %v, want SUCCESS", got)
	}
	if got := Worst(DATA_ERROR, NOT_FOUND); got != DATA_ERROR {
		t.Errorf("Worst(DATA_ERROR, NOT_FOUND) = %v, want DATA_ERROR (first wins ties)", got)
	}
}
