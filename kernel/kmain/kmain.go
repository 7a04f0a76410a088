package kmain

import (
	"spudos/device/ide"
	"spudos/device/power"
	"spudos/device/rtc"
	"spudos/device/serial"
	"spudos/kernel"
	"spudos/kernel/cpu"
	"spudos/kernel/goruntime"
	"spudos/kernel/hal"
	"spudos/kernel/hal/multiboot"
	"spudos/kernel/kfmt"
	"spudos/kernel/klog"
	"spudos/kernel/mm"
	"spudos/kernel/shell"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
	errNoTTY         = &kernel.Error{Module: "kmain", Message: "no terminal device available"}
	errNoKeyboard    = &kernel.Error{Module: "kmain", Message: "no keyboard available"}

	haltFn = cpu.Halt
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after setting up the GDT and a minimal g0 struct that allows Go code to use
// the stack allocated by the assembly code.
//
// The rt0 code passes the address of the multiboot info payload provided by
// the bootloader as well as the physical address range where the kernel image
// was loaded. Physical memory is identity mapped by rt0.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	var err *kernel.Error
	if err = mm.Init(kernelStart, kernelEnd); err != nil {
		kfmt.Panic(err)
	} else if err = goruntime.Init(); err != nil {
		kfmt.Panic(err)
	}

	// After goruntime.Init returns we can safely use Go allocs
	hal.DetectHardware()

	screen := hal.ActiveTTY()
	if screen == nil {
		kfmt.Panic(errNoTTY)
	}
	keys := hal.ActiveKeyboard()
	if keys == nil {
		kfmt.Panic(errNoKeyboard)
	}

	cfg := shell.ConfigFromCmdLine(multiboot.GetBootCmdLine())
	sink := hal.ActiveSerial()
	tuneSerial(sink, cfg.SerialRetries)

	cons := shell.NewConsole(screen, sink)
	kfmt.SetOutputSink(cons)
	klog.SetOutput(cons)

	m := machine{cons: cons}
	screen.Clear()
	sh := shell.New(cfg, cons, keys, shell.Builtins(m, cfg))
	sh.Banner(m.Now())
	sh.Run()

	// Leaving the shell restarts the machine.
	m.Reboot()

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	kfmt.Panic(errKmainReturned)
}

// tuneSerial applies the serialretries boot option to sinks that poll a
// bounded number of times.
func tuneSerial(sink serial.Sink, retries int) {
	if retries <= 0 {
		return
	}
	if s, ok := sink.(interface{ SetRetries(int) }); ok {
		s.SetRetries(retries)
	}
}

// machine implements shell.Machine on top of the devices detected by the
// hal.
type machine struct {
	cons *shell.Console
}

func (machine) Reboot() {
	power.Reboot()
}

func (machine) Shutdown() {
	if err := power.Shutdown(); err != nil {
		kfmt.Printf("[%s] %s\n", err.Module, err.Message)
	}
}

func (m machine) Panic(msg string) {
	if m.cons == nil {
		kfmt.Panic(msg)
		return
	}

	m.cons.WritePanic(msg)
	haltFn()
}

func (machine) Tone(freqHz, durationMs uint32) {
	if spk := hal.ActiveSpeaker(); spk != nil {
		spk.Tone(freqHz, durationMs)
	}
}

func (machine) Now() rtc.DateTime {
	if clock := hal.ActiveClock(); clock != nil {
		return clock.Now()
	}
	return rtc.DateTime{}
}

func (machine) Drives() []string {
	return driveNames(hal.ActiveDrives())
}

func (machine) CPUVendor() string {
	return cpu.Vendor()
}

func driveNames(drives []ide.Drive) []string {
	names := make([]string, 0, len(drives))
	for _, d := range drives {
		names = append(names, d.Name)
	}
	return names
}
