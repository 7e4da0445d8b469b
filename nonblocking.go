// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer

// nullNotifier discards Arm/Notify; the nonblocking flavor never parks a
// goroutine, so there is nothing to wake.
type nullNotifier struct{}

func (*nullNotifier) Arm()    {}
func (*nullNotifier) Notify() {}

// NonblockingWriter only ever checks the buffer for space right now; it
// never parks a goroutine.
type NonblockingWriter[T any] struct {
	w *Writer[T, *nullNotifier]
}

// NewNonblocking creates a writer for a buffer that can hold at least
// minItems items of type T, whose TrySlice calls never block.
func NewNonblocking[T any](minItems int) (*NonblockingWriter[T], error) {
	w, err := NewGeneric[T, *nullNotifier](minItems)
	if err != nil {
		return nil, err
	}
	return &NonblockingWriter[T]{w: w}, nil
}

// AddReader registers a new reader whose TrySlice calls never block either.
func (w *NonblockingWriter[T]) AddReader() *NonblockingReader[T] {
	r := w.w.AddReader(&nullNotifier{}, &nullNotifier{})
	return &NonblockingReader[T]{r: r}
}

// TrySlice returns immediately: the output space currently free, or
// [ErrWouldBlock] if none, or [ErrClosed] if the writer has closed.
func (w *NonblockingWriter[T]) TrySlice() ([]T, error) {
	if w.w.closed {
		return nil, ErrClosed
	}
	s := w.w.Slice(false)
	if len(s) == 0 {
		return nil, ErrWouldBlock
	}
	return s, nil
}

// Produce commits n items of the slice last returned by TrySlice.
func (w *NonblockingWriter[T]) Produce(n int) { w.w.Produce(n) }

// Close marks the buffer closed; see [Writer.Close].
func (w *NonblockingWriter[T]) Close() error { return w.w.Close() }

// NonblockingReader only ever checks the buffer for data right now; it
// never parks a goroutine.
type NonblockingReader[T any] struct {
	r *Reader[T, *nullNotifier]
}

// TrySlice returns immediately: the unread data currently available, or
// [ErrWouldBlock] if none, or [ErrClosed] if the writer has closed and
// every unread item has been drained.
func (r *NonblockingReader[T]) TrySlice() ([]T, error) {
	s, ok := r.r.Slice(false)
	if !ok {
		return nil, ErrClosed
	}
	if len(s) == 0 {
		return nil, ErrWouldBlock
	}
	return s, nil
}

// Consume commits n items of the slice last returned by TrySlice.
func (r *NonblockingReader[T]) Consume(n int) { r.r.Consume(n) }

// Close removes this reader from the writer's backpressure set.
func (r *NonblockingReader[T]) Close() error { return r.r.Close() }
