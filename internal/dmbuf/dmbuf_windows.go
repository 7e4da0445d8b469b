//go:build windows

package dmbuf

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// allocationGranularity queries the allocation granularity reported by the
// system info API; on Windows this is typically 64 KiB, coarser than the
// 4 KiB page size, and is the real constraint on mapping placement.
func allocationGranularity() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int(info.AllocationGranularity)
}

// newAttempt implements the Windows double-mapping algorithm: create a
// page-file-backed file mapping of "size" bytes, probe the address space for
// a 2*size hole via reserve-then-release, then map a view of the same file
// mapping into each half of that hole. Fixed-address placement on Windows is
// racy between the VirtualFree probe and the MapViewOfFileEx calls, so the
// caller (New) retries the whole sequence on collision.
func newAttempt(minItems, itemSize, alignment int) (*Buffer, error) {
	size := requiredSize(minItems, itemSize, allocationGranularity())

	handle, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(size), nil)
	if err != nil {
		return nil, fmt.Errorf("dmbuf: create file mapping: %w", err)
	}

	hole, err := windows.VirtualAlloc(0, uintptr(2*size), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("dmbuf: reserve address range: %w", err)
	}
	if err := windows.VirtualFree(hole, 0, windows.MEM_RELEASE); err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("dmbuf: release reservation: %w", err)
	}

	first, err := windows.MapViewOfFileEx(handle, windows.FILE_MAP_WRITE, 0, 0, uintptr(size), hole)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("dmbuf: map first half: %w", err)
	}
	if first != hole {
		windows.UnmapViewOfFile(first)
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("dmbuf: first half landed at an unexpected address")
	}
	if first%uintptr(alignment) != 0 {
		windows.UnmapViewOfFile(first)
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("dmbuf: mapping is not aligned for the item type")
	}

	secondBase := first + uintptr(size)
	second, err := windows.MapViewOfFileEx(handle, windows.FILE_MAP_WRITE, 0, 0, uintptr(size), secondBase)
	if err != nil {
		windows.UnmapViewOfFile(first)
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("dmbuf: map second half: %w", err)
	}
	if second != secondBase {
		windows.UnmapViewOfFile(first)
		windows.UnmapViewOfFile(second)
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("dmbuf: second half landed at an unexpected address")
	}

	addr := first
	return &Buffer{
		addr:     addr,
		size:     size,
		itemSize: itemSize,
		closer: func() error {
			windows.UnmapViewOfFile(addr)
			windows.UnmapViewOfFile(addr + uintptr(size))
			return windows.CloseHandle(handle)
		},
	}, nil
}
