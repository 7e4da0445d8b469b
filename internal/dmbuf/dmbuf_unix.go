//go:build unix

package dmbuf

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// allocationGranularity is the page size on Linux, macOS, and Android.
func allocationGranularity() int {
	return unix.Getpagesize()
}

// newAttempt implements the POSIX double-mapping algorithm: reserve a 2*size
// anonymous hole to claim a contiguous address range, release it, then map
// an unlinked-while-open temp file of size "size" twice, back-to-back, into
// that range at fixed addresses. The backing file descriptor is closed once
// both mappings are established.
func newAttempt(minItems, itemSize, alignment int) (*Buffer, error) {
	size := requiredSize(minItems, itemSize, allocationGranularity())

	f, err := os.CreateTemp(os.TempDir(), "vmcircbuffer-*")
	if err != nil {
		return nil, fmt.Errorf("dmbuf: create backing file: %w", err)
	}
	// Unlinking while the descriptor stays open is the portable idiom for an
	// anonymous shared-memory object on a platform without a dedicated
	// shm_open-style call in the standard toolchain.
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, fmt.Errorf("dmbuf: unlink backing file: %w", err)
	}
	fd := int(f.Fd())
	defer f.Close()

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("dmbuf: resize backing file: %w", err)
	}

	base, err := mmapRaw(0, 2*size, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE, -1, 0)
	if err != nil {
		return nil, fmt.Errorf("dmbuf: reserve address range: %w", err)
	}
	if err := munmapRaw(base, uintptr(2*size)); err != nil {
		return nil, fmt.Errorf("dmbuf: release reservation: %w", err)
	}

	first, err := mmapRaw(base, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_FIXED, fd, 0)
	if err != nil {
		return nil, fmt.Errorf("dmbuf: map first half: %w", err)
	}
	if first != base {
		munmapRaw(first, uintptr(size))
		return nil, fmt.Errorf("dmbuf: first half landed at an unexpected address")
	}
	if first%uintptr(alignment) != 0 {
		munmapRaw(first, uintptr(size))
		return nil, fmt.Errorf("dmbuf: mapping is not aligned for the item type")
	}

	second, err := mmapRaw(base+uintptr(size), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_FIXED, fd, 0)
	if err != nil {
		munmapRaw(first, uintptr(size))
		return nil, fmt.Errorf("dmbuf: map second half: %w", err)
	}
	if second != base+uintptr(size) {
		munmapRaw(first, uintptr(size))
		munmapRaw(second, uintptr(size))
		return nil, fmt.Errorf("dmbuf: second half landed at an unexpected address")
	}

	addr := base
	return &Buffer{
		addr:     addr,
		size:     size,
		itemSize: itemSize,
		closer: func() error {
			if err := munmapRaw(addr, uintptr(2*size)); err != nil {
				return fmt.Errorf("dmbuf: munmap: %w", err)
			}
			return nil
		},
	}, nil
}

// mmapRaw and munmapRaw call mmap(2)/munmap(2) directly via Syscall6 rather
// than the slice-oriented unix.Mmap, because the double-mapping trick needs
// MAP_FIXED placement at caller-chosen addresses, which the []byte-returning
// wrapper does not expose.
func mmapRaw(addr uintptr, length int, prot, flags, fd int, offset int64) (uintptr, error) {
	ret, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(length), uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return 0, errno
	}
	return ret, nil
}

func munmapRaw(addr uintptr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
