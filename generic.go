// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer

import (
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"

	"github.com/FutureSDR/vmcircbuffer/internal/dmbuf"
)

// Notifier lets a caller plug in its own wait/wake mechanism — a write to a
// channel, a condition variable, or nothing at all. An implementation should
// only notify if armed, then unarm itself; Arm/Notify are always called with
// the ring's mutex held.
type Notifier interface {
	Arm()
	Notify()
}

// buffer is the generic, item-typed view over a double-mapped byte region.
type buffer[T any] struct {
	buf  *dmbuf.Buffer
	refs atomix.Int32
}

func newBuffer[T any](minItems int) (*buffer[T], error) {
	var zero T
	itemSize := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	if align < 1 {
		align = 1
	}
	b, err := dmbuf.New(minItems, itemSize, align)
	if err != nil {
		return nil, err
	}
	buf := &buffer[T]{buf: b}
	buf.refs.StoreRelaxed(1)
	return buf, nil
}

func (b *buffer[T]) capacity() int { return b.buf.Cap() }

// sliceAt returns the length-long window starting at offset; offset and
// offset+length both fall within [0, 2*capacity), the span made contiguous
// by the double mapping.
func (b *buffer[T]) sliceAt(offset, length int) []T {
	base := (*T)(unsafe.Pointer(b.buf.Addr()))
	full := unsafe.Slice(base, 2*b.buf.Cap())
	return full[offset : offset+length]
}

func (b *buffer[T]) acquire() { b.refs.AddAcqRel(1) }

// release tears down the mapping once the writer and every reader that ever
// held it have let go. Teardown failures are returned to the last caller to
// release but never retried — Go has no destructors to fall back to.
func (b *buffer[T]) release() error {
	if b.refs.AddAcqRel(-1) == 0 {
		return b.buf.Close()
	}
	return nil
}

// readerSlot is one entry of the reader free list: occupied slots hold a
// live reader's position and its pair of notifiers, vacated slots only keep
// a generation so a stale Reader handle can be detected.
type readerSlot[N Notifier] struct {
	occupied       bool
	generation     uint32
	offset         int
	ab             bool
	readerNotifier N
	writerNotifier N
}

// readerTable is the generation-counter free list backing reader
// membership: O(1) insert and remove, slot ids are reused but a removed
// slot's generation is bumped so a dangling id is never silently reused by
// an unrelated Reader.
type readerTable[N Notifier] struct {
	slots []readerSlot[N]
	free  []int
}

func (t *readerTable[N]) insert(readerNotifier, writerNotifier N, offset int, ab bool) (id int, generation uint32) {
	slot := readerSlot[N]{
		occupied:       true,
		offset:         offset,
		ab:             ab,
		readerNotifier: readerNotifier,
		writerNotifier: writerNotifier,
	}
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
		slot.generation = t.slots[id].generation
		t.slots[id] = slot
		return id, slot.generation
	}
	t.slots = append(t.slots, slot)
	return len(t.slots) - 1, 0
}

func (t *readerTable[N]) remove(id int, generation uint32) (readerSlot[N], bool) {
	if id < 0 || id >= len(t.slots) || !t.slots[id].occupied || t.slots[id].generation != generation {
		return readerSlot[N]{}, false
	}
	s := t.slots[id]
	gen := s.generation + 1
	t.slots[id] = readerSlot[N]{generation: gen}
	t.free = append(t.free, id)
	return s, true
}

func (t *readerTable[N]) get(id int, generation uint32) *readerSlot[N] {
	if id < 0 || id >= len(t.slots) || !t.slots[id].occupied || t.slots[id].generation != generation {
		return nil
	}
	return &t.slots[id]
}

// circularState is the mutex-protected record shared by a writer and every
// reader registered against it.
type circularState[N Notifier] struct {
	mu           sync.Mutex
	writerOffset int
	writerAB     bool
	writerDone   bool
	readers      readerTable[N]
}

// NewGeneric creates a writer for a buffer that can hold at least minItems
// items of type T, with blocking/waking delegated to the Notifier
// implementation N.
func NewGeneric[T any, N Notifier](minItems int) (*Writer[T, N], error) {
	buf, err := newBuffer[T](minItems)
	if err != nil {
		return nil, &ErrAllocationFailed{Step: "double mapping", Err: err}
	}
	return &Writer[T, N]{
		buf:   buf,
		state: &circularState[N]{},
	}, nil
}

// Writer produces into the ring. Only one goroutine may call Writer methods
// at a time; AddReader may be called concurrently with Slice/Produce.
type Writer[T any, N Notifier] struct {
	_         pad
	lastSpace int
	buf       *buffer[T]
	state     *circularState[N]
	closed    bool
}

// AddReader registers a new reader starting at the writer's current
// position; it will only observe items produced from this point on. The
// caller supplies both ends of the notifier pair: readerNotifier wakes the
// new reader, writerNotifier wakes the writer once this reader has made
// room.
func (w *Writer[T, N]) AddReader(readerNotifier, writerNotifier N) *Reader[T, N] {
	w.state.mu.Lock()
	id, generation := w.state.readers.insert(readerNotifier, writerNotifier, w.state.writerOffset, w.state.writerAB)
	w.state.mu.Unlock()

	w.buf.acquire()
	return &Reader[T, N]{
		id:         id,
		generation: generation,
		buf:        w.buf,
		state:      w.state,
	}
}

// spaceAndOffset returns how much contiguous space is free to produce into
// and the offset it starts at. With no readers registered the writer always
// reports the full capacity as free and will overwrite unread data. When
// arm is true and some reader has no room left, that reader's
// writerNotifier is armed so its next Consume wakes this writer.
func (w *Writer[T, N]) spaceAndOffset(arm bool) (space, offset int) {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()

	capacity := w.buf.capacity()
	wOff := w.state.writerOffset
	wAB := w.state.writerAB
	space = capacity

	for i := range w.state.readers.slots {
		r := &w.state.readers.slots[i]
		if !r.occupied {
			continue
		}
		var s int
		switch {
		case wOff > r.offset:
			s = r.offset + capacity - wOff
		case wOff < r.offset:
			s = r.offset - wOff
		case r.ab == wAB:
			s = capacity
		default:
			s = 0
		}
		if s < space {
			space = s
		}
		if s == 0 {
			if arm {
				r.writerNotifier.Arm()
			}
			break
		}
	}
	return space, wOff
}

// Slice returns a window into the currently free space, which may be
// empty. If arm is true and no space is free, the slowest reader's
// notifier is armed so a blocking caller can wait on it.
func (w *Writer[T, N]) Slice(arm bool) []T {
	space, offset := w.spaceAndOffset(arm)
	w.lastSpace = space
	return w.buf.sliceAt(offset, space)
}

// Produce commits n items of the slice last returned by Slice as written.
// n may be zero, and Produce may be called multiple times against the same
// Slice call as long as the total committed does not exceed its length.
//
// Produce panics if n exceeds what remains of the last Slice call — that
// is a programmer error, not a runtime condition.
func (w *Writer[T, N]) Produce(n int) {
	if n == 0 {
		return
	}
	if n > w.lastSpace {
		panic("vmcircbuffer: produced too much")
	}
	w.lastSpace -= n

	w.state.mu.Lock()
	capacity := w.buf.capacity()
	if w.state.writerOffset+n >= capacity {
		w.state.writerAB = !w.state.writerAB
	}
	w.state.writerOffset = (w.state.writerOffset + n) % capacity
	for i := range w.state.readers.slots {
		r := &w.state.readers.slots[i]
		if r.occupied {
			r.readerNotifier.Notify()
		}
	}
	w.state.mu.Unlock()
}

// Close marks the buffer as done: every reader's pending and future Slice
// call returns once it has drained whatever remains unread. The underlying
// mapping is released once every reader has also closed.
func (w *Writer[T, N]) Close() error {
	w.state.mu.Lock()
	if w.closed {
		w.state.mu.Unlock()
		return nil
	}
	w.closed = true
	w.state.writerDone = true
	for i := range w.state.readers.slots {
		r := &w.state.readers.slots[i]
		if r.occupied {
			r.readerNotifier.Notify()
		}
	}
	w.state.mu.Unlock()
	return w.buf.release()
}

// Reader consumes from the ring at its own, independent position. Only one
// goroutine may call a given Reader's methods at a time; distinct Readers
// on the same Writer may be driven from distinct goroutines concurrently.
type Reader[T any, N Notifier] struct {
	_          pad
	id         int
	generation uint32
	lastSpace  int
	buf        *buffer[T]
	state      *circularState[N]
	closed     bool
}

func (r *Reader[T, N]) slot() *readerSlot[N] {
	s := r.state.readers.get(r.id, r.generation)
	if s == nil {
		panic("vmcircbuffer: use of reader after Close")
	}
	return s
}

// spaceAndOffset returns how many unread items are available, the offset
// they start at, and whether the writer has closed. When arm is true and
// nothing is available, this reader's readerNotifier is armed so the
// writer's next Produce wakes it.
func (r *Reader[T, N]) spaceAndOffset(arm bool) (space, offset int, writerDone bool) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	my := r.slot()
	capacity := r.buf.capacity()
	rOff := my.offset
	rAB := my.ab
	wOff := r.state.writerOffset
	wAB := r.state.writerAB

	switch {
	case rOff > wOff:
		space = wOff + capacity - rOff
	case rOff < wOff:
		space = wOff - rOff
	case rAB == wAB:
		space = 0
	default:
		space = capacity
	}

	if space == 0 && arm {
		my.readerNotifier.Arm()
	}
	return space, rOff, r.state.writerDone
}

// Slice returns a window into the currently unread items, and whether the
// buffer is still open. Once the writer has closed and every unread item
// has been drained, ok is false and the returned slice is empty.
func (r *Reader[T, N]) Slice(arm bool) (s []T, ok bool) {
	space, offset, done := r.spaceAndOffset(arm)
	r.lastSpace = space
	if space == 0 && done {
		return nil, false
	}
	return r.buf.sliceAt(offset, space), true
}

// Consume commits n items of the slice last returned by Slice as read. n
// may be zero, and Consume may be called multiple times against the same
// Slice call as long as the total committed does not exceed its length.
//
// Consume panics if n exceeds what remains of the last Slice call — that
// is a programmer error, not a runtime condition.
func (r *Reader[T, N]) Consume(n int) {
	if n == 0 {
		return
	}
	if n > r.lastSpace {
		panic("vmcircbuffer: consumed too much")
	}
	r.lastSpace -= n

	r.state.mu.Lock()
	my := r.slot()
	capacity := r.buf.capacity()
	if my.offset+n >= capacity {
		my.ab = !my.ab
	}
	my.offset = (my.offset + n) % capacity
	my.writerNotifier.Notify()
	r.state.mu.Unlock()
}

// Close removes this reader from the writer's backpressure set and wakes
// the writer once; it must be called exactly once per Reader. Once every
// reader returned by AddReader has closed and the writer has also closed,
// the underlying mapping is released.
func (r *Reader[T, N]) Close() error {
	r.state.mu.Lock()
	if r.closed {
		r.state.mu.Unlock()
		return nil
	}
	r.closed = true
	s, ok := r.state.readers.remove(r.id, r.generation)
	if ok {
		s.writerNotifier.Notify()
	}
	r.state.mu.Unlock()
	return r.buf.release()
}
