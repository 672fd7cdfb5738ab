// Package operation implements the per-in-flight-request record and its
// registry (spec.md §3 "Entity: Operation", §9 "Operation ownership").
//
// An Operation owns the request PDU, the response slot, a timeout
// deadline, an optional completion closure, and pointers to the caller's
// output targets. The Registry is a sharded map keyed on sequence number,
// replacing the source's intrusive linked list + single mutex with a
// lock-free-ish sharded structure per spec.md §9's rewrite guidance.
package operation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Abioy/kinetic-go/internal/kineticpb"
	"github.com/Abioy/kinetic-go/internal/status"
)

// ErrAtCapacity is returned by Allocate when the registry already holds
// MaxOutstanding operations; no sequence number is consumed.
var ErrAtCapacity = errors.New("operation: registry at capacity")

// DefaultTimeout is the per-operation deadline applied unless the caller
// overrides it (spec.md §4.3, §5; grounded on the original's
// KINETIC_DEFAULT_TIMEOUT_SECS = 20 in kinetic_client.c's blocking
// example).
const DefaultTimeout = 20 * time.Second

// MaxOutstanding is KINETIC_PDUS_PER_SESSION_MAX from the original
// kinetic-c client: the bound on simultaneously registered operations
// per session (spec.md §8 boundary behaviours).
const MaxOutstanding = 10

// shardCount controls how many independent locked buckets the Registry
// splits its sequence space across.
const shardCount = 8

// Callback translates a decoded response (or a locally-synthesised
// failure) into the final Status and copies wire data into the caller's
// output targets (spec.md §4.6). It is invoked at most once per
// Operation, from the reader goroutine.
type Callback func(st status.Status, cmd *kineticpb.Command, value []byte) status.Status

// Closure is the user-supplied asynchronous completion handler
// (spec.md §6: `Closure = (Status, ClosureData) -> ()`).
type Closure func(status.Status, any)

// Operation is one outstanding request (spec.md §3).
type Operation struct {
	Sequence int64

	RequestProtobuf []byte
	RequestValue    []byte

	ValueEnabled bool
	SendValue    bool

	// Output is the caller-owned target the Callback populates: *Entry,
	// *kbuf.Array, *DeviceInfo, or a P2P result slice, depending on the
	// command family (spec.md §3).
	Output any

	Callback Closure
	OnReply  Callback

	Deadline time.Time

	mu     sync.Mutex
	done   bool
	result status.Status
	waitCh chan struct{}
}

// New allocates an Operation with the default timeout, ready for the
// message builder to fill in request-specific fields.
func New(sequence int64) *Operation {
	return &Operation{
		Sequence: sequence,
		Deadline: time.Now().Add(DefaultTimeout),
		waitCh:   make(chan struct{}),
	}
}

// Wait blocks the caller until the operation completes (by reply,
// timeout, or socket failure) and returns the resolved status. Used for
// the synchronous execute() path (spec.md §4.4).
func (o *Operation) Wait() status.Status {
	<-o.waitCh
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// complete resolves the operation exactly once (spec.md §8 invariant 3:
// "exactly one of {synchronous wake, closure invocation} occurs, exactly
// once"). Subsequent calls are no-ops, which is what makes a late
// response arriving after a timeout harmless (spec.md §4.7).
func (o *Operation) complete(st status.Status, dispatchClosure func(Closure, status.Status)) {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	o.done = true
	o.result = st
	closure := o.Callback
	o.mu.Unlock()

	close(o.waitCh)
	if closure != nil {
		dispatchClosure(closure, st)
	}
}

// Done reports whether the operation has already been resolved.
func (o *Operation) Done() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Registry is a sharded map of in-flight Operations keyed by sequence
// number (spec.md §9).
type Registry struct {
	shards [shardCount]shard

	seqMu   sync.Mutex
	nextSeq int64
}

type shard struct {
	mu  sync.Mutex
	ops map[int64]*Operation
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].ops = make(map[int64]*Operation)
	}
	return r
}

func (r *Registry) shardFor(seq int64) *shard {
	idx := seq % shardCount
	if idx < 0 {
		idx += shardCount
	}
	return &r.shards[idx]
}

// Count returns the number of currently registered operations across all
// shards, used to enforce MaxOutstanding.
func (r *Registry) Count() int {
	n := 0
	for i := range r.shards {
		r.shards[i].mu.Lock()
		n += len(r.shards[i].ops)
		r.shards[i].mu.Unlock()
	}
	return n
}

// Register adds op to the registry. It fails if MaxOutstanding would be
// exceeded or if an operation with the same sequence is already
// registered (spec.md §3 invariant: "no duplicate sequence numbers are
// ever simultaneously registered").
func (r *Registry) Register(op *Operation) error {
	if r.Count() >= MaxOutstanding {
		return fmt.Errorf("operation: registry at capacity (%d)", MaxOutstanding)
	}
	s := r.shardFor(op.Sequence)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ops[op.Sequence]; exists {
		return fmt.Errorf("operation: sequence %d already registered", op.Sequence)
	}
	s.ops[op.Sequence] = op
	return nil
}

// Allocate mints the next sequence number and registers the Operation
// newOp builds for it, both inside the same critical section, so the
// counter only advances when registration actually succeeds (spec.md §3
// invariant: the multiset of outbound sequence numbers is a contiguous
// prefix of the positive integers starting at 1; spec.md §4.3: the
// sequence counter is mutated only under this lock). A capacity
// rejection, or a builder error from newOp itself, never burns a
// sequence number that is never sent on the wire.
func (r *Registry) Allocate(newOp func(sequence int64) (*Operation, error)) (*Operation, error) {
	r.seqMu.Lock()
	defer r.seqMu.Unlock()

	if r.Count() >= MaxOutstanding {
		return nil, ErrAtCapacity
	}

	seq := r.nextSeq + 1
	op, err := newOp(seq)
	if err != nil {
		return nil, err
	}
	r.nextSeq = seq

	s := r.shardFor(seq)
	s.mu.Lock()
	s.ops[seq] = op
	s.mu.Unlock()
	return op, nil
}

// Lookup returns the operation for ackSequence, or nil if none is
// registered (a late or spurious response, per spec.md §4.6).
func (r *Registry) Lookup(ackSequence int64) *Operation {
	s := r.shardFor(ackSequence)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops[ackSequence]
}

// Remove deregisters the operation for sequence, idempotently.
func (r *Registry) Remove(sequence int64) {
	s := r.shardFor(sequence)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ops, sequence)
}

// Complete resolves the operation for ackSequence (if still registered),
// removes it from the registry, and dispatches its closure via
// dispatchClosure (typically posting to the bus threadpool). It reports
// whether an operation was actually found and completed, so the reader
// can log a discard on a miss.
func (r *Registry) Complete(ackSequence int64, st status.Status, dispatchClosure func(Closure, status.Status)) bool {
	op := r.Lookup(ackSequence)
	if op == nil {
		return false
	}
	r.Remove(ackSequence)
	op.complete(st, dispatchClosure)
	return true
}

// FailAll resolves every currently registered operation with st and
// empties the registry, used when the writer or reader hits a fatal
// socket error (spec.md §4.5, §7: "Transport errors ... fail every
// currently-registered operation with the same terminal code").
func (r *Registry) FailAll(st status.Status, dispatchClosure func(Closure, status.Status)) {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		ops := make([]*Operation, 0, len(s.ops))
		for _, op := range s.ops {
			ops = append(ops, op)
		}
		s.ops = make(map[int64]*Operation)
		s.mu.Unlock()

		for _, op := range ops {
			op.complete(st, dispatchClosure)
		}
	}
}

// Sweep resolves every registered operation whose Deadline has passed
// with OPERATION_TIMEDOUT and removes them, returning how many were
// reaped (spec.md §4.7).
func (r *Registry) Sweep(now time.Time, dispatchClosure func(Closure, status.Status)) int {
	reaped := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		var expired []*Operation
		for seq, op := range s.ops {
			if now.After(op.Deadline) {
				expired = append(expired, op)
				delete(s.ops, seq)
			}
		}
		s.mu.Unlock()

		for _, op := range expired {
			op.complete(status.OPERATION_TIMEDOUT, dispatchClosure)
			reaped++
		}
	}
	return reaped
}
