// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer_test

import (
	"context"
	"testing"
	"time"

	"github.com/FutureSDR/vmcircbuffer"
)

// S6: a suspended SliceContext call that is cancelled must not consume the
// item a subsequent producer commits — a fresh call on the same reader
// sees it.
func TestAsyncCancelledSuspensionDoesNotConsume(t *testing.T) {
	w, err := vmcircbuffer.NewAsync[uint32](4)
	if err != nil {
		t.Fatalf("NewAsync: %v", err)
	}
	defer w.Close()
	r := w.AddReader()
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = r.SliceContext(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("SliceContext: got %v, want context.DeadlineExceeded", err)
	}

	s, err := w.TrySlice()
	if err != nil {
		t.Fatalf("writer TrySlice: %v", err)
	}
	s[0] = 42
	w.Produce(1)

	got, err := r.SliceContext(context.Background())
	if err != nil {
		t.Fatalf("SliceContext after produce: %v", err)
	}
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("got %v, want [42]", got)
	}
	r.Consume(1)
}

func TestAsyncWriterWakesOnConsume(t *testing.T) {
	w, err := vmcircbuffer.NewAsync[uint32](2)
	if err != nil {
		t.Fatalf("NewAsync: %v", err)
	}
	defer w.Close()
	r := w.AddReader()
	defer r.Close()

	s, _ := w.TrySlice()
	w.Produce(len(s))

	unblocked := make(chan error, 1)
	go func() {
		_, err := w.SliceContext(context.Background())
		unblocked <- err
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-unblocked:
		t.Fatal("writer SliceContext returned before any space was freed")
	default:
	}

	got, err := r.SliceContext(context.Background())
	if err != nil {
		t.Fatalf("reader SliceContext: %v", err)
	}
	r.Consume(len(got))

	select {
	case err := <-unblocked:
		if err != nil {
			t.Fatalf("writer SliceContext: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("writer did not wake after consume")
	}
}
