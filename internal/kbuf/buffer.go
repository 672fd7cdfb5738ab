// Package kbuf implements the length-bounded mutable byte buffers used as
// the substrate for PDU I/O and value payloads throughout the session
// transport engine.
package kbuf

import "fmt"

// Buffer is a fixed-capacity byte region with append/consume/slice
// semantics, modeled on the original kinetic-c ByteBuffer: an allocated
// backing array plus a count of bytes currently in use.
type Buffer struct {
	data []byte
	used int
}

// New allocates a Buffer with the given capacity and zero bytes used.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Wrap creates a Buffer over an existing slice, treating the whole slice
// as already used (a read-only view for callers passing in owned data).
func Wrap(data []byte) *Buffer {
	return &Buffer{data: data, used: len(data)}
}

// Len returns the number of bytes currently held in the buffer.
func (b *Buffer) Len() int { return b.used }

// Cap returns the buffer's total capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Remaining returns the number of bytes that can still be appended.
func (b *Buffer) Remaining() int { return len(b.data) - b.used }

// Bytes returns the used portion of the buffer. The returned slice aliases
// the buffer's backing array and must not be retained past the buffer's
// next mutation.
func (b *Buffer) Bytes() []byte { return b.data[:b.used] }

// Reset zeroes the used count without releasing the backing array.
func (b *Buffer) Reset() { b.used = 0 }

// Append copies p onto the end of the buffer. It reports BUFFER_OVERRUN
// (via the returned bool) and truncates to capacity rather than growing
// or overflowing, matching spec.md's "the engine must not overflow" policy.
func (b *Buffer) Append(p []byte) (n int, overrun bool) {
	room := b.Remaining()
	if len(p) > room {
		overrun = true
		p = p[:room]
	}
	n = copy(b.data[b.used:], p)
	b.used += n
	return n, overrun
}

// Consume returns up to maxLen unread bytes starting at offset and advances
// nothing itself — callers track their own read cursor via Slice.
func (b *Buffer) Consume(offset, maxLen int) ([]byte, error) {
	if offset < 0 || offset > b.used {
		return nil, fmt.Errorf("kbuf: consume offset %d out of range [0,%d]", offset, b.used)
	}
	end := offset + maxLen
	if end > b.used {
		end = b.used
	}
	return b.data[offset:end], nil
}

// Slice returns a sub-view of the used region between [start,end).
func (b *Buffer) Slice(start, end int) ([]byte, error) {
	if start < 0 || end > b.used || start > end {
		return nil, fmt.Errorf("kbuf: slice [%d:%d] out of range [0,%d]", start, end, b.used)
	}
	return b.data[start:end], nil
}

// Array is a fixed collection of Buffers with a running count of how many
// have been populated, mirroring kinetic-c's ByteBufferArray — the output
// target for GetKeyRange.
type Array struct {
	Buffers []*Buffer
	used    int
}

// NewArray allocates an Array with room for count buffers, each of the
// given per-entry capacity.
func NewArray(count, entryCapacity int) *Array {
	a := &Array{Buffers: make([]*Buffer, count)}
	for i := range a.Buffers {
		a.Buffers[i] = New(entryCapacity)
	}
	return a
}

// Used returns how many entries have been populated so far.
func (a *Array) Used() int { return a.used }

// Append writes key into the next free slot. It returns overrun=true
// (without writing) once the array's slot count is exhausted, so callers
// can surface BUFFER_OVERRUN instead of silently dropping keys.
func (a *Array) Append(key []byte) (overrun bool) {
	if a.used >= len(a.Buffers) {
		return true
	}
	_, keyOverrun := a.Buffers[a.used].Append(key)
	a.used++
	return keyOverrun
}

// Keys returns the populated prefix of the array as plain byte slices.
func (a *Array) Keys() [][]byte {
	out := make([][]byte, a.used)
	for i := 0; i < a.used; i++ {
		out[i] = a.Buffers[i].Bytes()
	}
	return out
}
