package kfmt

import (
	"io"

	"spudos/kernel"
	"spudos/kernel/cpu"
)

const panicRule = "\n-----------------------------------\n"

var (
	// cpuHaltFn is swapped by tests.
	cpuHaltFn = cpu.Halt

	// errRuntimePanic carries panics that are not a *kernel.Error.
	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic prints the panic banner for e to the active output sink and halts
// the CPU. It never returns.
func Panic(e interface{}) {
	FprintPanic(outputSink, e)
	cpuHaltFn()
}

// FprintPanic writes the panic banner for e to w. The banner names the module
// that failed; strings and plain errors are attributed to "rt". A nil e
// prints the banner without a cause.
func FprintPanic(w io.Writer, e interface{}) {
	err := panicCause(e)

	Fprintf(w, panicRule)
	if err != nil {
		Fprintf(w, "[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Fprintf(w, "*** kernel panic: system halted ***")
	Fprintf(w, panicRule)
}

func panicCause(e interface{}) *kernel.Error {
	switch t := e.(type) {
	case *kernel.Error:
		return t
	case string:
		errRuntimePanic.Message = t
	case error:
		errRuntimePanic.Message = t.Error()
	default:
		return nil
	}
	return errRuntimePanic
}
