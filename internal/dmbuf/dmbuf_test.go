// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dmbuf_test

import (
	"testing"
	"unsafe"

	"github.com/FutureSDR/vmcircbuffer/internal/dmbuf"
)

func TestByteBuffer(t *testing.T) {
	b, err := dmbuf.New(123, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	if b.Len() < 123 {
		t.Fatalf("half-length %d is smaller than the %d bytes requested", b.Len(), 123)
	}

	base := (*byte)(unsafe.Pointer(b.Addr()))
	first := unsafe.Slice(base, b.Len())
	for i := range first {
		first[i] = byte(i % 128)
	}

	secondBase := (*byte)(unsafe.Pointer(b.Addr() + uintptr(b.Len())))
	second := unsafe.Slice(secondBase, b.Len())
	for i, v := range second {
		if v != byte(i%128) {
			t.Fatalf("second mapping[%d] = %d, want %d", i, v, i%128)
		}
	}

	first[0] = 123
	if second[0] != 123 {
		t.Fatalf("write through first mapping did not appear in second mapping")
	}
}

func TestU32Buffer(t *testing.T) {
	const itemSize = 4
	b, err := dmbuf.New(12311, itemSize, itemSize)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close()

	if b.Cap() < 12311 {
		t.Fatalf("capacity %d is smaller than the %d items requested", b.Cap(), 12311)
	}
	if b.Addr()%itemSize != 0 {
		t.Fatalf("base address %x is not aligned to %d", b.Addr(), itemSize)
	}

	base := (*uint32)(unsafe.Pointer(b.Addr()))
	first := unsafe.Slice(base, b.Cap())
	for i := range first {
		first[i] = uint32(i % 128)
	}

	secondBase := (*uint32)(unsafe.Pointer(b.Addr() + uintptr(b.Len())))
	second := unsafe.Slice(secondBase, b.Cap())
	for i, v := range second {
		if v != uint32(i%128) {
			t.Fatalf("second mapping[%d] = %d, want %d", i, v, i%128)
		}
	}
}

func TestManyBuffers(t *testing.T) {
	b0, err := dmbuf.New(123, 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b0.Close()

	b1, err := dmbuf.New(456, 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b1.Close()

	var bs []*dmbuf.Buffer
	defer func() {
		for _, b := range bs {
			b.Close()
		}
	}()
	for i := 0; i < 100; i++ {
		b, err := dmbuf.New(123, 4, 4)
		if err != nil {
			t.Fatalf("New #%d: %v", i, err)
		}
		bs = append(bs, b)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b, err := dmbuf.New(16, 8, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
