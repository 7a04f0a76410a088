package keyboard

import (
	"io"

	"spudos/device"
	"spudos/kernel"
	"spudos/kernel/cpu"
	"spudos/kernel/kfmt"
)

const (
	ps2DataPort   = 0x60
	ps2StatusPort = 0x64

	// statusOutputFull is set while the controller holds a byte for us.
	statusOutputFull = 1 << 0

	// maxFlush bounds the number of stale bytes drained during init.
	maxFlush = 16
)

var portReadByteFn = cpu.PortReadByte

// Controller is a polling driver for the PS/2 keyboard controller.
type Controller struct{}

// NewController returns a PS/2 keyboard controller driver.
func NewController() *Controller {
	return &Controller{}
}

// Poll blocks until the controller reports a pending byte and returns it.
// There is no timeout.
func (c *Controller) Poll() byte {
	for portReadByteFn(ps2StatusPort)&statusOutputFull == 0 {
	}

	return portReadByteFn(ps2DataPort)
}

// DriverName returns the name of this driver.
func (c *Controller) DriverName() string {
	return "ps2_keyboard"
}

// DriverVersion returns the version of this driver.
func (c *Controller) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit drains any bytes left in the controller output buffer by the
// firmware so that the first Poll returns a fresh scan code.
func (c *Controller) DriverInit(w io.Writer) *kernel.Error {
	var flushed int
	for ; flushed < maxFlush && portReadByteFn(ps2StatusPort)&statusOutputFull != 0; flushed++ {
		portReadByteFn(ps2DataPort)
	}

	if flushed != 0 {
		kfmt.Fprintf(w, "discarded %d stale bytes\n", flushed)
	}
	return nil
}

func probeForController() device.Driver {
	return NewController()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderBeforeTTY,
		Probe: probeForController,
	})
}
