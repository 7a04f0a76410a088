// Package goruntime contains code for bootstrapping the Go runtime heap on
// bare metal. Physical memory is identity mapped, so reserving address space
// and mapping it both come down to taking pages from the boot allocator.
package goruntime

import (
	"unsafe"

	"spudos/kernel"
	"spudos/kernel/mm"
)

var (
	allocRegionFn   = mm.AllocRegion
	memsetFn        = mm.Memset
	mallocInitFn    = mallocInit
	algInitFn       = algInit
	modulesInitFn   = modulesInit
	typeLinksInitFn = typeLinksInit
	itabsInitFn     = itabsInit

	// A seed for the pseudo-random number generator used by readRandom.
	prngSeed = 0xdeadc0de

	// ticks backs nanotime until a timer driver exists.
	ticks int64
)

// sysReserve reserves a run of pages for the Go allocator.
//
// The runtime first tries to place arenas at hinted addresses and frees
// whatever it gets back when the hint is not honored. Pages handed out by the
// boot allocator cannot be returned, so hinted requests are refused and the
// runtime falls back to an unhinted reservation.
//
//go:redirect-from runtime.sysReserveOS
//go:nosplit
func sysReserve(hint unsafe.Pointer, size uintptr) unsafe.Pointer {
	if hint != nil {
		return nil
	}

	addr, err := allocRegionFn(size)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(addr)
}

// sysMap prepares a reserved region for use. The region is already mapped,
// but the runtime expects fresh memory to read as zero.
//
//go:redirect-from runtime.sysMapOS
//go:nosplit
func sysMap(addr unsafe.Pointer, size uintptr) {
	memsetFn(uintptr(addr), 0, size)
}

// sysAlloc returns zeroed memory for the runtime's off-heap structures.
//
//go:redirect-from runtime.sysAllocOS
//go:nosplit
func sysAlloc(size uintptr) unsafe.Pointer {
	addr, err := allocRegionFn(size)
	if err != nil {
		return nil
	}

	memsetFn(addr, 0, mm.PageAlignUp(size))
	return unsafe.Pointer(addr)
}

// sysNoop replaces the runtime hooks that release memory or pass usage
// hints to the OS.
//
//go:redirect-from runtime.sysFreeOS
//go:redirect-from runtime.sysUsedOS
//go:redirect-from runtime.sysUnusedOS
//go:redirect-from runtime.sysHugePageOS
//go:redirect-from runtime.sysNoHugePageOS
//go:redirect-from runtime.sysFaultOS
//go:nosplit
func sysNoop(_ unsafe.Pointer, _ uintptr) {}

// nanotime returns a monotonically increasing clock value.
//
// This function replaces runtime.nanotime1 and is invoked by the Go allocator
// when a span allocation is performed.
//
//go:redirect-from runtime.nanotime1
//go:nosplit
func nanotime() int64 {
	ticks++
	return ticks
}

// readRandom populates r from a prng since there is no entropy source.
//
//go:redirect-from runtime.readRandom
func readRandom(r []byte) int {
	for i := 0; i < len(r); i++ {
		prngSeed = (prngSeed * 58321) + 11113
		r[i] = byte((prngSeed >> 16) & 255)
	}
	return len(r)
}

// Init enables heap allocation. After a call to Init the following runtime
// features become available for use:
//   - heap memory allocation (new, make e.t.c)
//   - map primitives
//   - interfaces
func Init() *kernel.Error {
	setPhysPageSize(mm.PageSize)

	mallocInitFn()
	algInitFn()       // setup hash implementation for map keys
	modulesInitFn()   // provides activeModules
	typeLinksInitFn() // uses maps, activeModules
	itabsInitFn()     // uses activeModules

	return nil
}

// redirectTargets references the replacement functions so the linker keeps
// them in the image. Nothing calls them directly.
var redirectTargets []interface{}

func init() {
	redirectTargets = []interface{}{sysReserve, sysMap, sysAlloc, sysNoop, nanotime, readRandom}
}
