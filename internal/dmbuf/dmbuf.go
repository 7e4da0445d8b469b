// Package dmbuf allocates a region of virtual memory that is mapped twice,
// back-to-back, so that the same N physical bytes appear at both [B, B+N)
// and [B+N, B+2N). A window into the buffer that starts anywhere in the
// first half and extends past its end reads on seamlessly into the second,
// identical, mapping — the caller never has to special-case wraparound.
//
// The platform-specific halves of the allocator live in dmbuf_unix.go
// (Linux, macOS, Android) and dmbuf_windows.go; both expose the same
// newAttempt/allocationGranularity pair that this file drives.
package dmbuf

import (
	"fmt"

	"code.hybscloud.com/spin"
)

// Buffer is a double-mapped virtual memory region.
type Buffer struct {
	addr     uintptr
	size     int // N: half-length in bytes, a multiple of itemSize and the platform granularity
	itemSize int
	closer   func() error
}

// Addr returns the base virtual address of the first mapping. Reading or
// writing the 2*Len() bytes starting here is defined; bytes at Addr()+k and
// Addr()+Len()+k alias the same physical memory for 0 <= k < Len().
func (b *Buffer) Addr() uintptr { return b.addr }

// Len returns the half-length N, in bytes.
func (b *Buffer) Len() int { return b.size }

// Cap returns how many items of the configured item size the buffer holds.
func (b *Buffer) Cap() int { return b.size / b.itemSize }

// Close releases both mappings and the backing handle exactly once. A
// second call is a no-op, so double-free is impossible even if a caller
// holds onto a Buffer past a failed partial construction.
func (b *Buffer) Close() error {
	if b.closer == nil {
		return nil
	}
	closer := b.closer
	b.closer = nil
	return closer()
}

// maxAttempts bounds the retry loop around transient allocation failures
// (e.g. a Windows MAP_FIXED-equivalent collision, or a racing unlink).
const maxAttempts = 5

// New creates a buffer that can hold at least minItems items of itemSize
// bytes, aligned to alignment. The half-length is the smallest multiple of
// both the platform allocation granularity and itemSize that is large
// enough to hold minItems items.
func New(minItems, itemSize, alignment int) (*Buffer, error) {
	var err error
	sw := spin.Wait{}
	for i := 0; i < maxAttempts; i++ {
		var b *Buffer
		if b, err = newAttempt(minItems, itemSize, alignment); err == nil {
			return b, nil
		}
		sw.Once()
	}
	return nil, fmt.Errorf("dmbuf: allocation failed after %d attempts: %w", maxAttempts, err)
}

// requiredSize returns the smallest multiple of granularity that is both
// >= minItems*itemSize and itself a multiple of itemSize.
func requiredSize(minItems, itemSize, granularity int) int {
	size := granularity
	for size < minItems*itemSize || size%itemSize != 0 {
		size += granularity
	}
	return size
}
