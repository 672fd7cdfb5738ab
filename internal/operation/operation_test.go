package operation

import (
	"errors"
	"testing"
	"time"

	"github.com/Abioy/kinetic-go/internal/status"
)

func sameGoroutineDispatch(c Closure, st status.Status) { c(st, nil) }

func TestRegisterLookupComplete(t *testing.T) {
	reg := NewRegistry()
	op := New(1)
	if err := reg.Register(op); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := reg.Lookup(1); got != op {
		t.Fatalf("Lookup(1) = %v, want %v", got, op)
	}

	ok := reg.Complete(1, status.SUCCESS, sameGoroutineDispatch)
	if !ok {
		t.Fatal("Complete() = false, want true")
	}
	if reg.Lookup(1) != nil {
		t.Fatal("operation still registered after Complete()")
	}
	if got := op.Wait(); got != status.SUCCESS {
		t.Fatalf("Wait() = %v, want SUCCESS", got)
	}
}

func TestCompleteUnknownSequenceIsNoop(t *testing.T) {
	reg := NewRegistry()
	if reg.Complete(99, status.SUCCESS, sameGoroutineDispatch) {
		t.Fatal("Complete() = true for unregistered sequence, want false (late/spurious response dropped)")
	}
}

func TestMaxOutstandingExceeded(t *testing.T) {
	reg := NewRegistry()
	for i := int64(0); i < MaxOutstanding; i++ {
		if err := reg.Register(New(i)); err != nil {
			t.Fatalf("Register(%d) error = %v", i, err)
		}
	}
	if err := reg.Register(New(MaxOutstanding)); err == nil {
		t.Fatal("Register() beyond MaxOutstanding succeeded, want error")
	}
}

func TestDuplicateSequenceRejected(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(New(5)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(New(5)); err == nil {
		t.Fatal("Register() with duplicate sequence succeeded, want error")
	}
}

func TestCompletionIsExactlyOnce(t *testing.T) {
	op := New(1)
	calls := 0
	dispatch := func(c Closure, st status.Status) {
		calls++
		c(st, nil)
	}
	op.complete(status.SUCCESS, dispatch)
	op.complete(status.OPERATION_TIMEDOUT, dispatch) // late arrival after resolution

	if got := op.Wait(); got != status.SUCCESS {
		t.Fatalf("Wait() = %v, want SUCCESS (first resolution wins)", got)
	}
}

func TestClosureInvokedExactlyOnce(t *testing.T) {
	op := New(1)
	invocations := 0
	op.Callback = func(st status.Status, _ any) { invocations++ }

	dispatch := func(c Closure, st status.Status) { c(st, nil) }
	op.complete(status.SUCCESS, dispatch)
	op.complete(status.SUCCESS, dispatch)

	if invocations != 1 {
		t.Fatalf("closure invoked %d times, want exactly 1", invocations)
	}
}

func TestSweepReapsExpiredOperations(t *testing.T) {
	reg := NewRegistry()
	op := New(1)
	op.Deadline = time.Now().Add(-time.Second)
	if err := reg.Register(op); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	reaped := reg.Sweep(time.Now(), sameGoroutineDispatch)
	if reaped != 1 {
		t.Fatalf("Sweep() reaped = %d, want 1", reaped)
	}
	if got := op.Wait(); got != status.OPERATION_TIMEDOUT {
		t.Fatalf("Wait() = %v, want OPERATION_TIMEDOUT", got)
	}
}

func TestAllocateAssignsContiguousSequenceNumbers(t *testing.T) {
	reg := NewRegistry()
	for want := int64(1); want <= 3; want++ {
		op, err := reg.Allocate(func(seq int64) (*Operation, error) { return New(seq), nil })
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
		if op.Sequence != want {
			t.Fatalf("Sequence = %d, want %d", op.Sequence, want)
		}
	}
}

func TestAllocateAtCapacityBurnsNoSequenceNumber(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < MaxOutstanding; i++ {
		if _, err := reg.Allocate(func(seq int64) (*Operation, error) { return New(seq), nil }); err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
	}

	if _, err := reg.Allocate(func(seq int64) (*Operation, error) { return New(seq), nil }); err != ErrAtCapacity {
		t.Fatalf("Allocate() error = %v, want ErrAtCapacity", err)
	}

	reg.Remove(int64(MaxOutstanding))
	op, err := reg.Allocate(func(seq int64) (*Operation, error) { return New(seq), nil })
	if err != nil {
		t.Fatalf("Allocate() after freeing a slot error = %v", err)
	}
	if op.Sequence != MaxOutstanding+1 {
		t.Fatalf("Sequence = %d, want %d (the rejected Allocate must not have consumed one)", op.Sequence, MaxOutstanding+1)
	}
}

func TestAllocateBuilderErrorBurnsNoSequenceNumber(t *testing.T) {
	reg := NewRegistry()
	builderErr := errors.New("builder: not authorized")
	if _, err := reg.Allocate(func(seq int64) (*Operation, error) { return nil, builderErr }); err != builderErr {
		t.Fatalf("Allocate() error = %v, want the builder's own error", err)
	}

	op, err := reg.Allocate(func(seq int64) (*Operation, error) { return New(seq), nil })
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if op.Sequence != 1 {
		t.Fatalf("Sequence = %d, want 1 (the failed builder call must not have consumed a sequence number)", op.Sequence)
	}
}

func TestFailAllResolvesEverything(t *testing.T) {
	reg := NewRegistry()
	ops := make([]*Operation, 0, 5)
	for i := int64(0); i < 5; i++ {
		op := New(i)
		if err := reg.Register(op); err != nil {
			t.Fatalf("Register(%d) error = %v", i, err)
		}
		ops = append(ops, op)
	}

	reg.FailAll(status.SOCKET_ERROR, sameGoroutineDispatch)

	for _, op := range ops {
		if got := op.Wait(); got != status.SOCKET_ERROR {
			t.Fatalf("Wait() = %v, want SOCKET_ERROR", got)
		}
	}
	if reg.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 after FailAll", reg.Count())
	}
}
