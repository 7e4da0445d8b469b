// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer

import "context"

// AsyncWriter is a writer whose SliceContext call suspends the calling
// goroutine until space is available or ctx is done, without blocking it
// unconditionally the way [SyncWriter] does.
type AsyncWriter[T any] struct {
	w    *Writer[T, *blockingNotifier]
	wake chan struct{}
}

// NewAsync creates a writer for a buffer that can hold at least minItems
// items of type T, suspending on SliceContext the Go-native way: a
// cancellable blocking call rather than literal async/await, which Go does
// not have.
func NewAsync[T any](minItems int) (*AsyncWriter[T], error) {
	w, err := NewGeneric[T, *blockingNotifier](minItems)
	if err != nil {
		return nil, err
	}
	return &AsyncWriter[T]{w: w, wake: make(chan struct{}, 1)}, nil
}

// AddReader registers a new reader that suspends on SliceContext until data
// it can see becomes available.
func (w *AsyncWriter[T]) AddReader() *AsyncReader[T] {
	writerNotifier := &blockingNotifier{wake: w.wake}
	readerNotifier := newBlockingNotifier()
	r := w.w.AddReader(&readerNotifier, writerNotifier)
	return &AsyncReader[T]{r: r, wake: readerNotifier.wake}
}

// SliceContext suspends until output space is available, ctx is done, or
// the buffer closes. The waker is armed before the final re-check under
// the ring's lock, so a wakeup racing with the park can never be missed;
// if ctx is done first, the pending arm is simply never consumed — it
// costs nothing beyond the next spurious wake.
func (w *AsyncWriter[T]) SliceContext(ctx context.Context) ([]T, error) {
	for {
		if w.w.closed {
			return nil, ErrClosed
		}
		s := w.w.Slice(true)
		if len(s) > 0 {
			return s, nil
		}
		select {
		case <-w.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TrySlice returns immediately with whatever output space is currently
// free; the slice may be empty.
func (w *AsyncWriter[T]) TrySlice() ([]T, error) {
	if w.w.closed {
		return nil, ErrClosed
	}
	return w.w.Slice(false), nil
}

// Produce commits n items of the slice last returned by SliceContext/TrySlice.
func (w *AsyncWriter[T]) Produce(n int) { w.w.Produce(n) }

// Close marks the buffer closed; see [Writer.Close].
func (w *AsyncWriter[T]) Close() error { return w.w.Close() }

// AsyncReader is a reader whose SliceContext call suspends until data is
// available or its context is done.
type AsyncReader[T any] struct {
	r    *Reader[T, *blockingNotifier]
	wake chan struct{}
}

// SliceContext suspends until there is data to read, ctx is done, or the
// writer closes and this reader has drained whatever remained.
func (r *AsyncReader[T]) SliceContext(ctx context.Context) ([]T, error) {
	for {
		s, ok := r.r.Slice(true)
		if !ok {
			return nil, ErrClosed
		}
		if len(s) > 0 {
			return s, nil
		}
		select {
		case <-r.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TrySlice returns immediately with whatever is currently unread; the
// slice may be empty.
func (r *AsyncReader[T]) TrySlice() ([]T, error) {
	s, ok := r.r.Slice(false)
	if !ok {
		return nil, ErrClosed
	}
	return s, nil
}

// Consume commits n items of the slice last returned by SliceContext/TrySlice.
func (r *AsyncReader[T]) Consume(n int) { r.r.Consume(n) }

// Close removes this reader from the writer's backpressure set.
func (r *AsyncReader[T]) Close() error { return r.r.Close() }
