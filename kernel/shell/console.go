package shell

import (
	"io"

	"spudos/device/serial"
	"spudos/device/tty"
	"spudos/kernel/kfmt"
	"spudos/kernel/klog"
)

// Terminal is the output capability handed to command handlers.
type Terminal interface {
	io.Writer
	io.ByteWriter

	// Print writes s without any formatting.
	Print(s string)

	// Printf formats its arguments using the kfmt verbs.
	Printf(format string, args ...interface{})

	// SetAttribute sets the colors used by subsequent writes.
	SetAttribute(fg, bg uint8)

	// Clear blanks the screen and moves the cursor home.
	Clear()

	// Redirect switches output to the serial sink (true) or back to the
	// screen (false). It returns false if the switch is not possible.
	Redirect(toSink bool) bool
}

// Echoer receives the characters typed into a LineEditor.
type Echoer interface {
	io.ByteWriter

	// Backspace erases the character left of the cursor.
	Backspace()

	// Column returns the column where the next character will land.
	Column() uint32

	// Width returns the number of columns after which output wraps or 0
	// if it never wraps.
	Width() uint32
}

var taskFn = klog.Task

// Console routes shell output either to the screen or, while redirected, to
// a serial sink. If the sink fails the console falls back to the screen; the
// sink then stays disabled until Redirect(true) re-arms it.
type Console struct {
	screen tty.Device
	sink   serial.Sink

	redirected bool
	sinkColumn uint32
}

// NewConsole creates a console that writes to screen. The sink may be nil
// in which case Redirect(true) always fails.
func NewConsole(screen tty.Device, sink serial.Sink) *Console {
	return &Console{screen: screen, sink: sink}
}

// Redirected reports whether output is currently routed to the sink.
func (c *Console) Redirected() bool {
	return c.redirected
}

func (c *Console) useSink() bool {
	return c.redirected && c.sink != nil && c.sink.Enabled()
}

// sinkWrite sends b to the sink. On failure the console reverts to the
// screen and records the failure in the event log.
func (c *Console) sinkWrite(b byte) bool {
	if err := c.sink.WriteByte(b); err != nil {
		c.redirected = false
		taskFn("Serial output", klog.StateFail)
		return false
	}
	return true
}

// WriteByte implements io.ByteWriter.
func (c *Console) WriteByte(b byte) error {
	if !c.useSink() {
		return c.screen.WriteByte(b)
	}

	if b == '\n' {
		if !c.sinkWrite('\r') {
			return c.screen.WriteByte(b)
		}
		c.sinkColumn = 0
	} else {
		c.sinkColumn++
	}

	if !c.sinkWrite(b) {
		return c.screen.WriteByte(b)
	}
	return nil
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := c.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WritePanic renders the panic banner for e on the screen. While output is
// redirected the banner is sent to the sink first.
func (c *Console) WritePanic(e interface{}) {
	if c.Redirected() {
		kfmt.FprintPanic(c, e)
	}
	kfmt.FprintPanic(c.screen, e)
}

// Print writes s to the console.
func (c *Console) Print(s string) {
	for i := 0; i < len(s); i++ {
		_ = c.WriteByte(s[i])
	}
}

// Printf formats its arguments with kfmt and writes the result.
func (c *Console) Printf(format string, args ...interface{}) {
	kfmt.Fprintf(c, format, args...)
}

// Backspace erases the character left of the cursor.
func (c *Console) Backspace() {
	if !c.useSink() {
		c.screen.Backspace()
		return
	}

	for _, b := range []byte{'\b', ' ', '\b'} {
		if !c.sinkWrite(b) {
			c.screen.Backspace()
			return
		}
	}
	if c.sinkColumn > 0 {
		c.sinkColumn--
	}
}

// Column returns the column where the next character will land.
func (c *Console) Column() uint32 {
	if c.useSink() {
		return c.sinkColumn
	}
	x, _ := c.screen.CursorPosition()
	return x
}

// Width returns the screen width. Output sent to the sink never wraps.
func (c *Console) Width() uint32 {
	if c.useSink() {
		return 0
	}
	w, _ := c.screen.Dimensions()
	return w
}

// SetAttribute sets the screen colors used by subsequent writes.
func (c *Console) SetAttribute(fg, bg uint8) {
	c.screen.SetAttribute(fg, bg)
}

// Attribute returns the screen colors used by subsequent writes.
func (c *Console) Attribute() (fg, bg uint8) {
	return c.screen.Attribute()
}

// Clear blanks the screen. While redirected an ANSI clear sequence is also
// sent to the sink.
func (c *Console) Clear() {
	c.screen.Clear()
	if !c.useSink() {
		return
	}

	for _, b := range []byte("\x1b[2J\x1b[H") {
		if !c.sinkWrite(b) {
			return
		}
	}
	c.sinkColumn = 0
}

// Redirect implements Terminal. Switching to the sink re-enables it.
func (c *Console) Redirect(toSink bool) bool {
	if !toSink {
		c.redirected = false
		return true
	}

	if c.sink == nil {
		return false
	}
	c.sink.Enable()
	c.redirected = true
	c.sinkColumn = 0
	return true
}
