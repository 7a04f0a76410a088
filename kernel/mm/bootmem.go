package mm

import (
	"spudos/kernel"
	"spudos/kernel/hal/multiboot"
	"spudos/kernel/kfmt"
)

// lowMemoryEnd is the end of the first megabyte. Memory below it holds the
// real mode IVT, the BIOS data area and the VGA buffer, so the allocator
// never hands it out.
const lowMemoryEnd = uintptr(1 << 20)

var (
	// bootMem serves every allocation until the kernel is shut down.
	bootMem bootMemAllocator

	visitMemRegionsFn = multiboot.VisitMemRegions
	infoRegionFn      = multiboot.InfoRegion

	errOutOfMemory   = &kernel.Error{Module: "boot_mem_alloc", Message: "out of memory"}
	errNoMemoryMap   = &kernel.Error{Module: "boot_mem_alloc", Message: "bootloader did not provide a memory map"}
	errInvalidRegion = &kernel.Error{Module: "boot_mem_alloc", Message: "invalid allocation size"}
)

// span is a half-open physical address range.
type span struct {
	start, end uintptr
}

func (s span) overlaps(start, end uintptr) bool {
	return start < s.end && s.start < end
}

// bootMemAllocator hands out contiguous runs of pages from the available
// regions of the bootloader memory map. It tracks the lowest address that
// has not been handed out yet, so allocated memory cannot be freed.
//
// The kernel image and the multiboot info block are never handed out.
type bootMemAllocator struct {
	// next is the lowest address that may be returned by allocRegion.
	next uintptr

	// allocCount tracks the number of pages handed out.
	allocCount uint64

	reserved [2]span
}

// init resets the allocator and reserves the page-aligned kernel image and
// multiboot info block.
func (alloc *bootMemAllocator) init(kernelStart, kernelEnd uintptr) {
	infoStart, infoSize := infoRegionFn()

	alloc.next = lowMemoryEnd
	alloc.allocCount = 0
	alloc.reserved[0] = span{kernelStart &^ (PageSize - 1), PageAlignUp(kernelEnd)}
	alloc.reserved[1] = span{infoStart &^ (PageSize - 1), PageAlignUp(infoStart + infoSize)}
}

// allocRegion reserves size bytes, rounded up to a page multiple, and
// returns the start address of the run.
func (alloc *bootMemAllocator) allocRegion(size uintptr) (uintptr, *kernel.Error) {
	if size == 0 {
		return 0, errInvalidRegion
	}
	size = PageAlignUp(size)

	var (
		start uintptr
		err   = errOutOfMemory
	)

	visitMemRegionsFn(func(region *multiboot.MemoryMapEntry) bool {
		if region.Type != multiboot.MemAvailable {
			return true
		}

		// Reported addresses may not be page-aligned; round the start up
		// and the end down.
		regionStart := PageAlignUp(uintptr(region.PhysAddress))
		regionEnd := uintptr(region.PhysAddress+region.Length) &^ (PageSize - 1)

		candidate := regionStart
		if candidate < alloc.next {
			candidate = alloc.next
		}

		for moved := true; moved; {
			moved = false
			for _, rsv := range alloc.reserved {
				if rsv.overlaps(candidate, candidate+size) {
					candidate, moved = rsv.end, true
				}
			}
		}

		if candidate+size < candidate || candidate+size > regionEnd {
			return true
		}

		start, err = candidate, nil
		return false
	})

	if err != nil {
		return 0, err
	}

	alloc.next = start + size
	alloc.allocCount += uint64(size >> PageShift)
	return start, nil
}

// printMemoryMap writes the memory map reported by the bootloader to the
// early kfmt buffer.
func (alloc *bootMemAllocator) printMemoryMap() uint64 {
	var totalFree uint64

	kfmt.Printf("[boot_mem_alloc] system memory map:\n")
	visitMemRegionsFn(func(region *multiboot.MemoryMapEntry) bool {
		kfmt.Printf("\t[0x%10x - 0x%10x], size: %10d, type: %s\n", region.PhysAddress, region.PhysAddress+region.Length, region.Length, region.Type.String())

		if region.Type == multiboot.MemAvailable {
			totalFree += region.Length
		}
		return true
	})
	kfmt.Printf("[boot_mem_alloc] available memory: %dKb\n", totalFree>>10)
	kfmt.Printf("[boot_mem_alloc] kernel loaded at 0x%x - 0x%x\n", alloc.reserved[0].start, alloc.reserved[0].end)

	return totalFree
}

// Init sets up the boot memory allocator. The kernel image occupies the
// physical range [kernelStart, kernelEnd).
func Init(kernelStart, kernelEnd uintptr) *kernel.Error {
	bootMem.init(kernelStart, kernelEnd)
	if bootMem.printMemoryMap() == 0 {
		return errNoMemoryMap
	}
	return nil
}

// AllocRegion returns the start of a run of identity-mapped pages that is
// at least size bytes long. The memory is not cleared.
func AllocRegion(size uintptr) (uintptr, *kernel.Error) {
	return bootMem.allocRegion(size)
}
