// Package serialline provides a serial output sink backed by a host serial
// device such as /dev/ttyUSB0 or a pseudo terminal.
package serialline

import (
	"fmt"
	"io"

	"github.com/pkg/term"

	"spudos/device/serial"
)

// Line is a serial.Sink that writes to a host device. A failed write
// disables the line until Enable is called.
type Line struct {
	port    io.WriteCloser
	enabled bool
}

// Open opens device in raw mode at the given baud rate.
func Open(device string, baud int) (*Line, error) {
	t, err := term.Open(device, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serialline: opening %s: %w", device, err)
	}

	return New(t), nil
}

// New wraps an already opened port.
func New(port io.WriteCloser) *Line {
	return &Line{port: port, enabled: true}
}

// Enabled reports whether the line accepts writes.
func (l *Line) Enabled() bool {
	return l.enabled
}

// Enable re-arms a line that was disabled by a failed write.
func (l *Line) Enable() {
	l.enabled = true
}

// WriteByte sends b to the device.
func (l *Line) WriteByte(b byte) error {
	if !l.enabled {
		return serial.ErrDisabled
	}

	if _, err := l.port.Write([]byte{b}); err != nil {
		l.enabled = false
		return fmt.Errorf("%w: %v", serial.ErrTimeout, err)
	}
	return nil
}

// Close closes the underlying device.
func (l *Line) Close() error {
	l.enabled = false
	return l.port.Close()
}
