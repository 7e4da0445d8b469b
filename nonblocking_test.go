// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer_test

import (
	"testing"

	"github.com/FutureSDR/vmcircbuffer"
)

func TestNonblockingTrySliceNeverBlocks(t *testing.T) {
	w, err := vmcircbuffer.NewNonblocking[byte](8)
	if err != nil {
		t.Fatalf("NewNonblocking: %v", err)
	}
	defer w.Close()
	r := w.AddReader()
	defer r.Close()

	if _, err := r.TrySlice(); !vmcircbuffer.IsWouldBlock(err) {
		t.Fatalf("reader TrySlice on empty buffer: got %v, want ErrWouldBlock", err)
	}

	s, err := w.TrySlice()
	if err != nil {
		t.Fatalf("writer TrySlice: %v", err)
	}
	w.Produce(len(s))

	if _, err := w.TrySlice(); !vmcircbuffer.IsWouldBlock(err) {
		t.Fatalf("writer TrySlice on full buffer with no consumer: got %v, want ErrWouldBlock", err)
	}
}

func TestNonblockingConsumeTooMuchPanics(t *testing.T) {
	w, err := vmcircbuffer.NewNonblocking[byte](8)
	if err != nil {
		t.Fatalf("NewNonblocking: %v", err)
	}
	defer w.Close()
	r := w.AddReader()
	defer r.Close()

	s, _ := w.TrySlice()
	w.Produce(len(s))

	got, _ := r.TrySlice()
	defer func() {
		if recover() == nil {
			t.Fatalf("Consume(len(got)+1) did not panic")
		}
	}()
	r.Consume(len(got) + 1)
}
