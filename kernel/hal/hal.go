// Package hal probes the hardware, initializes the drivers that claim it and
// keeps track of the devices used by the console.
package hal

import (
	"bytes"
	"sort"

	"spudos/device"
	"spudos/device/ide"
	"spudos/device/keyboard"
	"spudos/device/rtc"
	"spudos/device/serial"
	"spudos/device/speaker"
	"spudos/device/tty"
	"spudos/device/video/console"
	"spudos/kernel/kfmt"
	"spudos/kernel/klog"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole  console.Device
	activeTTY      tty.Device
	activeKeyboard *keyboard.Controller
	activeSerial   serial.Sink
	activeSpeaker  *speaker.Speaker
	activeClock    *rtc.Clock
	activeIDE      *ide.Controller

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer
)

// ActiveConsole returns the currently active console device.
func ActiveConsole() console.Device {
	return devices.activeConsole
}

// ActiveTTY returns the currently active TTY
func ActiveTTY() tty.Device {
	return devices.activeTTY
}

// ActiveKeyboard returns the PS/2 keyboard controller.
func ActiveKeyboard() *keyboard.Controller {
	return devices.activeKeyboard
}

// ActiveSerial returns the serial port used as the alternate output sink or
// nil if no serial port was initialized.
func ActiveSerial() serial.Sink {
	return devices.activeSerial
}

// ActiveSpeaker returns the PC speaker driver.
func ActiveSpeaker() *speaker.Speaker {
	return devices.activeSpeaker
}

// ActiveClock returns the real-time clock driver.
func ActiveClock() *rtc.Clock {
	return devices.activeClock
}

// ActiveDrives returns the drives detected by the IDE driver.
func ActiveDrives() []ide.Drive {
	if devices.activeIDE == nil {
		return nil
	}
	return devices.activeIDE.Drives()
}

// ActiveDrivers returns the list of initialized drivers in probe order.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := device.DriverList()
	sort.Sort(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		// A console attached during a previous iteration becomes the
		// output sink for the remaining drivers.
		w.Sink = kfmt.GetOutputSink()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			klog.Task(drv.DriverName(), klog.StateFail)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		klog.Task(drv.DriverName(), klog.StateOkay)
		onDriverInit(drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case console.Device:
		onConsoleInit(drvImpl)
	case tty.Device:
		if devices.activeTTY != nil {
			return
		}

		devices.activeTTY = drvImpl
		if devices.activeConsole != nil {
			linkTTYToConsole()
		}
	case *keyboard.Controller:
		if devices.activeKeyboard == nil {
			devices.activeKeyboard = drvImpl
		}
	case serial.Sink:
		if devices.activeSerial == nil {
			devices.activeSerial = drvImpl
		}
	case *speaker.Speaker:
		devices.activeSpeaker = drvImpl
	case *rtc.Clock:
		devices.activeClock = drvImpl
	case *ide.Controller:
		devices.activeIDE = drvImpl
	}
}

// onConsoleInit is invoked whenever a console is initialized. If this is the
// first found console it automatically becomes the active console. If an
// active TTY device is present, it will be automatically linked to the
// console via a call to linkTTYToConsole.
func onConsoleInit(cons console.Device) {
	if devices.activeConsole != nil {
		return
	}

	devices.activeConsole = cons

	if devices.activeTTY != nil {
		linkTTYToConsole()
	}
}

// linkTTYToConsole connects the active TTY device to the active console device
// and syncs their contents.
func linkTTYToConsole() {
	devices.activeTTY.AttachTo(devices.activeConsole)

	// Sync terminal contents with console
	devices.activeTTY.SetState(tty.StateActive)

	kfmt.SetOutputSink(devices.activeTTY)
}
