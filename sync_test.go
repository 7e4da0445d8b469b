// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vmcircbuffer_test

import (
	"testing"
	"time"

	"github.com/FutureSDR/vmcircbuffer"
)

func TestSyncProducerConsumer(t *testing.T) {
	w, err := vmcircbuffer.NewSync[uint32](64)
	if err != nil {
		t.Fatalf("NewSync: %v", err)
	}
	r := w.AddReader()

	const total = 1000
	done := make(chan struct{})
	go func() {
		defer close(done)
		var next uint32
		for next < total {
			s, err := r.Slice(true)
			if err != nil {
				t.Errorf("reader Slice: %v", err)
				return
			}
			for _, v := range s {
				if v != next {
					t.Errorf("got %d, want %d", v, next)
					return
				}
				next++
			}
			r.Consume(len(s))
		}
	}()

	var produced uint32
	for produced < total {
		s, err := w.Slice(true)
		if err != nil {
			t.Fatalf("writer Slice: %v", err)
		}
		n := len(s)
		if produced+uint32(n) > total {
			n = int(total - produced)
		}
		for i := 0; i < n; i++ {
			s[i] = produced + uint32(i)
		}
		w.Produce(n)
		produced += uint32(n)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader goroutine did not finish in time")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("reader Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("writer Close: %v", err)
	}
}

// A reader blocked in Slice wakes and returns ErrClosed once the writer
// closes, rather than blocking forever.
func TestSyncReaderWakesOnClose(t *testing.T) {
	w, err := vmcircbuffer.NewSync[uint32](4)
	if err != nil {
		t.Fatalf("NewSync: %v", err)
	}
	r := w.AddReader()

	result := make(chan error, 1)
	go func() {
		_, err := r.Slice(true)
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Fatalf("writer Close: %v", err)
	}

	select {
	case err := <-result:
		if err != vmcircbuffer.ErrClosed {
			t.Fatalf("reader Slice: got %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reader goroutine did not wake")
	}
	r.Close()
}

// A writer blocked on a full ring wakes once the blocking reader consumes.
func TestSyncWriterWakesOnConsume(t *testing.T) {
	w, err := vmcircbuffer.NewSync[uint32](4)
	if err != nil {
		t.Fatalf("NewSync: %v", err)
	}
	defer w.Close()
	r := w.AddReader()
	defer r.Close()

	s, _ := w.Slice(true)
	w.Produce(len(s)) // fill the ring completely

	unblocked := make(chan error, 1)
	go func() {
		_, err := w.Slice(true)
		unblocked <- err
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-unblocked:
		t.Fatal("writer Slice returned before any space was freed")
	default:
	}

	got, err := r.Slice(true)
	if err != nil {
		t.Fatalf("reader Slice: %v", err)
	}
	r.Consume(len(got))

	select {
	case err := <-unblocked:
		if err != nil {
			t.Fatalf("writer Slice: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("writer did not wake after consume")
	}
}
