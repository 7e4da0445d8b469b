// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package vmcircbuffer provides a circular buffer backed by a double-mapped
// (a.k.a. "magic") region of virtual memory: the same physical pages are
// mapped twice, back-to-back, so a window into the buffer that wraps past
// the end of the backing store still reads (and writes) as one contiguous
// slice. Readers and writers never special-case wraparound.
//
// # Quick Start
//
// Direct constructors pick a concurrency flavor:
//
//	w, err := vmcircbuffer.NewSync[float32](4096)
//	r := w.AddReader()
//
// The generic entry point parameterizes over a custom [Notifier]:
//
//	w, err := vmcircbuffer.NewGeneric[float32, myNotifier](4096)
//
// # Basic Usage
//
// A writer obtains a contiguous, mutable window, writes into it, and
// commits how much it actually used:
//
//	w, _ := vmcircbuffer.NewSync[byte](65536)
//	r := w.AddReader()
//
//	go func() { // producer
//	    for {
//	        buf, err := w.Slice(true)
//	        if err != nil {
//	            return // ErrClosed
//	        }
//	        n := fill(buf)
//	        w.Produce(n)
//	    }
//	}()
//
//	go func() { // consumer
//	    for {
//	        buf, err := r.Slice(true)
//	        if err != nil {
//	            return // ErrClosed
//	        }
//	        n := consume(buf)
//	        r.Consume(n)
//	    }
//	}()
//
// Slice(arm) returns a window into whatever is currently available (for a
// writer: free space; for a reader: unread items); it never forces the
// caller to take everything. Produce/Consume commits a prefix of the last
// slice returned — committing more than was returned panics, matching a
// programmer error rather than a runtime condition.
//
// # Concurrency Flavors
//
//	NewSync[T]        - Slice blocks until space/data is available
//	NewAsync[T]        - SliceContext blocks but honors context cancellation
//	NewNonblocking[T]  - TrySlice only, returns ErrWouldBlock immediately
//	NewGeneric[T, N]   - parameterized over a caller-supplied Notifier
//
// All three concrete flavors are thin wrappers over the same generic ring.
// The sync and async flavors share one channel-based [Notifier] and differ
// only in how they wait on it; the nonblocking flavor uses a Notifier that
// does nothing.
//
// # Multiple Readers
//
// AddReader registers a new, independent reading position starting from the
// writer's current offset; a late-joining reader never sees items produced
// before it registered. With no readers registered, the writer reports the
// full capacity as always free and will overwrite unread data — this
// matches a plain ring buffer with no backpressure source.
//
// The writer blocks (or returns ErrWouldBlock) only when the slowest
// registered reader has no remaining space for it to produce into. A reader
// Closing itself removes it from that set immediately.
//
// # Closing
//
// Writer.Close marks the buffer closed: later slice calls on the writer
// return [ErrClosed], and every blocked and future Slice call on a reader
// returns ErrClosed once its remaining unread data (if any) has been
// drained. Reader.Close removes that one reader from the writer's
// backpressure set and wakes a writer waiting on it; once every reader has
// closed, the writer sees the full capacity as free, as described above.
//
// # Error Handling
//
// Operations return [ErrWouldBlock] when a nonblocking-flavor TrySlice call
// cannot proceed immediately (the sync and async TrySlice calls return an
// empty slice instead), and [ErrClosed] once the buffer has been shut down.
// ErrWouldBlock is an alias of the [code.hybscloud.com/iox] sentinel for
// ecosystem consistency:
//
//	buf, err := w.TrySlice()
//	if vmcircbuffer.IsWouldBlock(err) {
//	    // no free space right now
//	}
//
// Allocation failures while establishing the double mapping are reported as
// [ErrAllocationFailed], naming the OS call that failed.
//
// # Platform Support
//
// The double mapping is established via anonymous shared memory and raw
// mmap/munmap on unix (Linux, macOS, Android) and via CreateFileMapping /
// VirtualAlloc / MapViewOfFileEx on Windows. Both backends retry the whole
// allocation sequence a bounded number of times on transient address-space
// collisions.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, and [code.hybscloud.com/spin] for the backoff step between
// attempts of the double-mapping allocation.
package vmcircbuffer
