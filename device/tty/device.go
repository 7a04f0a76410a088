package tty

import (
	"io"

	"spudos/device/video/console"
)

// State defines the supported terminal state values.
type State uint8

const (
	// StateInactive marks the terminal as inactive. Any writes will be
	// buffered and not synced to the attached console.
	StateInactive State = iota

	// StateActive marks the terminal as active. Any writes will be
	// buffered and also synced to the attached console.
	StateActive
)

// Device is implemented by objects that can be used as a terminal device.
type Device interface {
	io.Writer
	io.ByteWriter

	// AttachTo connects a TTY to a console instance.
	AttachTo(console.Device)

	// Dimensions returns the grid width and height.
	Dimensions() (uint32, uint32)

	// State returns the TTY's state.
	State() State

	// SetState updates the TTY's state.
	SetState(State)

	// CursorPosition returns the current cursor x,y coordinates. Both
	// coordinates are 0-based (top-left corner has coordinates 0,0).
	CursorPosition() (uint32, uint32)

	// SetCursorPosition sets the current cursor position to (x,y).
	// Implementations are expected to clip the cursor position to their
	// dimensions.
	SetCursorPosition(x, y uint32)

	// Newline moves the cursor to the start of the next row, scrolling
	// the contents up if the cursor is already on the last row.
	Newline()

	// Backspace moves the cursor one cell back and blanks it. At column 0
	// the cursor moves to the end of the previous row. It is a no-op at
	// the top-left corner.
	Backspace()

	// Clear blanks all cells using the current attribute and moves the
	// cursor to the top-left corner.
	Clear()

	// SetAttribute sets the colors used by subsequent writes.
	SetAttribute(fg, bg uint8)

	// Attribute returns the colors used by subsequent writes.
	Attribute() (fg, bg uint8)
}
