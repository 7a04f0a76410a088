//go:build !kernel

package goruntime

// The runtime of a hosted build is already initialized by the time any
// package code runs.

func algInit()       {}
func modulesInit()   {}
func typeLinksInit() {}
func itabsInit()     {}
func mallocInit()    {}

func setPhysPageSize(_ uintptr) {}
