package kfmt

import (
	"bytes"
	"errors"
	"testing"

	"spudos/kernel"
	"spudos/kernel/cpu"
)

func banner(cause string) string {
	if cause == "" {
		return panicRule + "*** kernel panic: system halted ***" + panicRule
	}
	return panicRule + cause + "\n*** kernel panic: system halted ***" + panicRule
}

func TestPanic(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
		SetOutputSink(nil)
	}()

	var halts int
	cpuHaltFn = func() { halts++ }

	specs := []struct {
		input interface{}
		exp   string
	}{
		{&kernel.Error{Module: "kmain", Message: "no keyboard available"}, banner("[kmain] unrecoverable error: no keyboard available")},
		{"User called panic.", banner("[rt] unrecoverable error: User called panic.")},
		{errors.New("serial timeout"), banner("[rt] unrecoverable error: serial timeout")},
		{nil, banner("")},
		{42, banner("")},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		SetOutputSink(&buf)
		halts = 0

		Panic(spec.input)

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected banner:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
		if halts != 1 {
			t.Errorf("[spec %d] expected Panic to halt the CPU once; got %d", specIndex, halts)
		}
	}
}

func TestFprintPanicDoesNotHalt(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
	}()

	cpuHaltFn = func() {
		t.Fatal("unexpected call to cpu.Halt()")
	}

	var buf bytes.Buffer
	FprintPanic(&buf, "User called panic.")

	if exp, got := banner("[rt] unrecoverable error: User called panic."), buf.String(); got != exp {
		t.Fatalf("expected banner:\n%q\ngot:\n%q", exp, got)
	}
}
