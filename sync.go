// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer

// blockingNotifier arms a wakeup and delivers it through a 1-capacity
// channel; the channel receive itself is the wait, and arming under the
// ring's mutex before the final re-check is the associated "condition
// variable" guarantee — a blocked goroutine can never miss a wakeup that
// happened between its last check and its park.
type blockingNotifier struct {
	wake  chan struct{}
	armed bool
}

func newBlockingNotifier() blockingNotifier {
	return blockingNotifier{wake: make(chan struct{}, 1)}
}

func (n *blockingNotifier) Arm() { n.armed = true }

func (n *blockingNotifier) Notify() {
	if !n.armed {
		return
	}
	n.armed = false
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// SyncWriter is a writer whose Slice call blocks until space is available.
type SyncWriter[T any] struct {
	w    *Writer[T, *blockingNotifier]
	wake chan struct{}
}

// NewSync creates a writer for a buffer that can hold at least minItems
// items of type T, blocking until the next operation has whatever it asked
// for.
func NewSync[T any](minItems int) (*SyncWriter[T], error) {
	w, err := NewGeneric[T, *blockingNotifier](minItems)
	if err != nil {
		return nil, err
	}
	return &SyncWriter[T]{w: w, wake: make(chan struct{}, 1)}, nil
}

// AddReader registers a new reader that will block until data it can see
// becomes available.
func (w *SyncWriter[T]) AddReader() *SyncReader[T] {
	writerNotifier := &blockingNotifier{wake: w.wake}
	readerNotifier := newBlockingNotifier()
	r := w.w.AddReader(&readerNotifier, writerNotifier)
	return &SyncReader[T]{r: r, wake: readerNotifier.wake}
}

// Slice blocks until output space is available, or the buffer closes. With
// arm true the returned slice is never empty unless err is non-nil; with arm
// false Slice behaves as TrySlice and may return an empty slice.
func (w *SyncWriter[T]) Slice(arm bool) ([]T, error) {
	if !arm {
		return w.TrySlice()
	}
	for {
		if w.w.closed {
			return nil, ErrClosed
		}
		s := w.w.Slice(true)
		if len(s) > 0 {
			return s, nil
		}
		<-w.wake
	}
}

// TrySlice returns immediately with whatever output space is currently
// free; the slice may be empty.
func (w *SyncWriter[T]) TrySlice() ([]T, error) {
	if w.w.closed {
		return nil, ErrClosed
	}
	return w.w.Slice(false), nil
}

// Produce commits n items of the slice last returned by Slice/TrySlice.
func (w *SyncWriter[T]) Produce(n int) { w.w.Produce(n) }

// Close marks the buffer closed; see [Writer.Close].
func (w *SyncWriter[T]) Close() error { return w.w.Close() }

// SyncReader is a reader whose Slice call blocks until data is available.
type SyncReader[T any] struct {
	r    *Reader[T, *blockingNotifier]
	wake chan struct{}
}

// Slice blocks until there is data to read or the writer closes and this
// reader has drained whatever remained. With arm true the returned slice is
// never empty unless err is non-nil; with arm false Slice behaves as
// TrySlice and may return an empty slice.
func (r *SyncReader[T]) Slice(arm bool) ([]T, error) {
	if !arm {
		return r.TrySlice()
	}
	for {
		s, ok := r.r.Slice(true)
		if !ok {
			return nil, ErrClosed
		}
		if len(s) > 0 {
			return s, nil
		}
		<-r.wake
	}
}

// TrySlice returns immediately with whatever is currently unread; the
// slice may be empty.
func (r *SyncReader[T]) TrySlice() ([]T, error) {
	s, ok := r.r.Slice(false)
	if !ok {
		return nil, ErrClosed
	}
	return s, nil
}

// Consume commits n items of the slice last returned by Slice/TrySlice.
func (r *SyncReader[T]) Consume(n int) { r.r.Consume(n) }

// Close removes this reader from the writer's backpressure set.
func (r *SyncReader[T]) Close() error { return r.r.Close() }
