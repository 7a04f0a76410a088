// Package mm manages physical memory before and after the Go allocator comes
// up. The boot code identity maps physical memory so every physical address
// handed out by this package is directly usable as a pointer.
package mm

import "unsafe"

const (
	// PageShift is equal to log2(PageSize).
	PageShift = 12

	// PageSize is the size of a memory page in bytes.
	PageSize = uintptr(1 << PageShift)
)

// PageAlignUp rounds size up to a multiple of PageSize.
func PageAlignUp(size uintptr) uintptr {
	return (size + PageSize - 1) &^ (PageSize - 1)
}

// Memset sets size bytes at addr to value using log2(size) copies.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	target[0] = value
	for index := uintptr(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}
