package console

import (
	"unsafe"

	"spudos/kernel/cpu"
	"spudos/kernel/hal/multiboot"
)

// Default location and size of the VGA text-mode framebuffer when the
// bootloader does not report one.
const (
	defaultFbPhysAddr = 0xb8000
	defaultColumns    = 80
	defaultRows       = 25
)

var (
	portWriteByteFn      = cpu.PortWriteByte
	getFramebufferInfoFn = multiboot.GetFramebufferInfo

	// mapFramebufferFn returns a slice overlaying cells 16-bit words at
	// physAddr. Memory is identity-mapped so no page table updates are
	// required.
	mapFramebufferFn = func(physAddr uintptr, cells int) []uint16 {
		return unsafe.Slice((*uint16)(unsafe.Pointer(physAddr)), cells)
	}
)
