package main

import (
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"spudos/device/rtc"
	"spudos/hosted/serialline"
	"spudos/hosted/wavspeaker"
	"spudos/kernel/cpu"
	"spudos/kernel/klog"
	"spudos/kernel/shell"
)

// machine implements shell.Machine for the simulator. Reboot and shutdown
// end the process.
type machine struct {
	screen  tcell.Screen
	cons    *shell.Console
	line    *serialline.Line
	speaker *wavspeaker.Speaker

	// exitFn is os.Exit outside of tests.
	exitFn func(int)
	closed bool
}

func (m *machine) exit(code int) {
	m.close()
	if m.exitFn != nil {
		m.exitFn(code)
		return
	}
	os.Exit(code)
}

// close releases the host resources. It is safe to call more than once.
func (m *machine) close() {
	if m.closed {
		return
	}
	m.closed = true

	if m.speaker != nil && m.speaker.Samples() > 0 {
		if err := m.speaker.Flush(); err != nil {
			klog.Logf("sim", "%s", err.Error())
		}
	}
	if m.line != nil {
		m.line.Close()
	}
	if m.screen != nil {
		m.screen.Fini()
	}
}

func (m *machine) Reboot() {
	klog.Task("Reboot computer...", klog.StateWait)
	m.exit(0)
}

func (m *machine) Shutdown() {
	klog.Task("Attempting to shutdown computer...", klog.StateWait)
	m.exit(0)
}

// Panic renders the panic banner and waits for a key before leaving.
func (m *machine) Panic(msg string) {
	m.cons.WritePanic(msg)
	if m.screen != nil {
		m.screen.Show()
		for {
			ev := m.screen.PollEvent()
			if _, ok := ev.(*tcell.EventKey); ok || ev == nil {
				break
			}
		}
	}
	m.exit(1)
}

func (m *machine) Tone(freqHz, durationMs uint32) {
	if m.speaker != nil {
		m.speaker.Tone(freqHz, durationMs)
	}
	time.Sleep(time.Duration(durationMs) * time.Millisecond)
}

func (m *machine) Now() rtc.DateTime {
	return fromTime(time.Now())
}

// Drives returns nil; the simulator has no block devices.
func (m *machine) Drives() []string {
	return nil
}

func (m *machine) CPUVendor() string {
	return cpu.Vendor()
}

func fromTime(t time.Time) rtc.DateTime {
	return rtc.DateTime{
		Year:   uint16(t.Year()),
		Month:  uint8(t.Month()),
		Day:    uint8(t.Day()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
	}
}
