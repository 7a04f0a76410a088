// Package power implements machine reset and power-off.
package power

import (
	"spudos/kernel"
	"spudos/kernel/cpu"
	"spudos/kernel/klog"
)

const (
	ps2StatusPort  = 0x64
	ps2CommandPort = 0x64

	// statusInputFull is set while the controller has not consumed the
	// last byte written to it.
	statusInputFull = 1 << 1

	// cmdPulseReset pulses the CPU reset line.
	cmdPulseReset = 0xfe

	maxInputWait = 1 << 16
)

// shutdownPort is a port/value pair that powers off a particular emulator.
type shutdownPort struct {
	name string
	port uint16
	val  uint16
}

var (
	shutdownPorts = []shutdownPort{
		{"Bochs and older QEMU", 0xb004, 0x2000},
		{"QEMU", 0x604, 0x2000},
		{"VirtualBox", 0x4004, 0x3400},
	}

	portWriteByteFn     = cpu.PortWriteByte
	portWriteWordFn     = cpu.PortWriteWord
	portReadByteFn      = cpu.PortReadByte
	disableInterruptsFn = cpu.DisableInterrupts
	cpuHaltFn           = cpu.Halt
	taskFn              = klog.Task

	errShutdownFailed = &kernel.Error{Module: "power", Message: "no shutdown method succeeded"}
)

// Reboot resets the machine through the keyboard controller. If the reset
// does not take effect the CPU is halted.
func Reboot() {
	taskFn("Reboot computer...", klog.StateWait)
	disableInterruptsFn()

	for i := 0; i < maxInputWait && portReadByteFn(ps2StatusPort)&statusInputFull != 0; i++ {
	}
	portWriteByteFn(ps2CommandPort, cmdPulseReset)

	taskFn("Reboot computer...", klog.StateFail)
	taskFn("Sending hlt...", klog.StateWait)
	cpuHaltFn()
}

// Shutdown tries the power-off ports of the supported emulators in turn. It
// only returns if none of them turned the machine off.
func Shutdown() *kernel.Error {
	taskFn("Attempting to shutdown computer...", klog.StateWait)
	for _, sp := range shutdownPorts {
		taskFn("Shutdown computer using "+sp.name+"...", klog.StateWait)
		portWriteWordFn(sp.port, sp.val)
	}

	taskFn("Attempting to shutdown computer...", klog.StateFail)
	return errShutdownFailed
}
