//go:build kernel

package goruntime

import (
	_ "unsafe" // required for go:linkname
)

//go:linkname algInit runtime.alginit
func algInit()

//go:linkname modulesInit runtime.modulesinit
func modulesInit()

//go:linkname typeLinksInit runtime.typelinksinit
func typeLinksInit()

//go:linkname itabsInit runtime.itabsinit
func itabsInit()

//go:linkname mallocInit runtime.mallocinit
func mallocInit()

//go:linkname physPageSize runtime.physPageSize
var physPageSize uintptr

// setPhysPageSize stands in for osinit, which reads the page size from the
// auxiliary vector. mallocinit refuses to run without it.
func setPhysPageSize(size uintptr) {
	physPageSize = size
}
