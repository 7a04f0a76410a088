// Package serial drives a 16550-compatible UART that the console can use as
// an alternate output sink.
package serial

import (
	"io"

	"spudos/device"
	"spudos/kernel"
	"spudos/kernel/cpu"
	"spudos/kernel/kfmt"
)

// Register offsets relative to the UART base port.
const (
	regData        = 0 // DLAB=0: tx/rx buffer; DLAB=1: divisor low byte
	regIntEnable   = 1 // DLAB=0: interrupt enable; DLAB=1: divisor high byte
	regFIFOControl = 2
	regLineControl = 3
	regModemCtrl   = 4
	regLineStatus  = 5

	lineControlDLAB = 0x80
	lineControl8N1  = 0x03
	fifoEnable      = 0xc7 // enable, clear both FIFOs, 14-byte threshold
	modemDTRRTSOut2 = 0x0b
	lineStatusTHRE  = 1 << 5

	baseClock = 115200
)

const (
	// COM1 is the I/O base port of the first serial port.
	COM1 = 0x3f8

	// DefaultBaud is the line speed programmed by the probe.
	DefaultBaud = 38400

	// DefaultRetries is the number of times WriteByte polls the line
	// status register before giving up on the port.
	DefaultRetries = 5

	// ioDelayReads is the number of dummy port reads performed between
	// line status polls.
	ioDelayReads = 1000

	// ioDelayPort is the POST diagnostic port; reads from it take a fixed
	// amount of time and have no side effects.
	ioDelayPort = 0x80
)

var (
	// ErrTimeout is returned by WriteByte when the transmitter never
	// became ready. The sink disables itself when this happens.
	ErrTimeout = &kernel.Error{Module: "serial", Message: "transmitter not ready"}

	// ErrDisabled is returned by WriteByte while the sink is disabled.
	ErrDisabled = &kernel.Error{Module: "serial", Message: "sink disabled"}

	errBadBaud = &kernel.Error{Module: "serial", Message: "unsupported baud rate"}

	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
)

// Sink is an output target that can be disabled after a failure and re-armed
// later.
type Sink interface {
	// WriteByte sends b. It returns ErrDisabled while the sink is
	// disabled.
	WriteByte(b byte) error

	// Enabled reports whether the sink accepts output.
	Enabled() bool

	// Enable re-arms a sink that disabled itself.
	Enable()
}

// UART is a polling driver for a 16550 serial port. It implements Sink.
type UART struct {
	base    uint16
	baud    uint32
	retries int
	enabled bool
}

// NewUART returns a driver for the UART at the given base port. The port is
// enabled once DriverInit succeeds.
func NewUART(base uint16, baud uint32) *UART {
	return &UART{
		base:    base,
		baud:    baud,
		retries: DefaultRetries,
	}
}

// SetRetries sets the number of line status polls performed by WriteByte.
func (u *UART) SetRetries(n int) {
	if n < 1 {
		n = 1
	}
	u.retries = n
}

// Enabled reports whether the port accepts output.
func (u *UART) Enabled() bool {
	return u.enabled
}

// Enable re-arms the port after a timeout.
func (u *UART) Enable() {
	u.enabled = true
}

// WriteByte waits for the transmit holding register to drain and then sends
// b. If the register does not drain after the configured number of polls the
// port disables itself and ErrTimeout is returned.
func (u *UART) WriteByte(b byte) error {
	if !u.enabled {
		return ErrDisabled
	}

	for attempt := 0; portReadByteFn(u.base+regLineStatus)&lineStatusTHRE == 0; attempt++ {
		if attempt == u.retries-1 {
			u.enabled = false
			return ErrTimeout
		}
		ioDelay()
	}

	portWriteByteFn(u.base+regData, b)
	return nil
}

// Write implements io.Writer on top of WriteByte.
func (u *UART) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := u.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// ioDelay busy-waits for a short, fixed amount of time.
func ioDelay() {
	for i := 0; i < ioDelayReads; i++ {
		portReadByteFn(ioDelayPort)
	}
}

// DriverName returns the name of this driver.
func (u *UART) DriverName() string {
	return "uart16550"
}

// DriverVersion returns the version of this driver.
func (u *UART) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit programs the baud rate divisor, selects 8 data bits with no
// parity and one stop bit, and enables the FIFOs.
func (u *UART) DriverInit(w io.Writer) *kernel.Error {
	if u.baud == 0 || u.baud > baseClock || baseClock%u.baud != 0 {
		return errBadBaud
	}
	divisor := uint16(baseClock / u.baud)

	portWriteByteFn(u.base+regIntEnable, 0)
	portWriteByteFn(u.base+regLineControl, lineControlDLAB)
	portWriteByteFn(u.base+regData, uint8(divisor))
	portWriteByteFn(u.base+regIntEnable, uint8(divisor>>8))
	portWriteByteFn(u.base+regLineControl, lineControl8N1)
	portWriteByteFn(u.base+regFIFOControl, fifoEnable)
	portWriteByteFn(u.base+regModemCtrl, modemDTRRTSOut2)

	u.enabled = true
	kfmt.Fprintf(w, "port 0x%x at %d baud\n", u.base, u.baud)
	return nil
}

func probeForUART() device.Driver {
	return NewUART(COM1, DefaultBaud)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderBeforeTTY,
		Probe: probeForUART,
	})
}
