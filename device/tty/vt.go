package tty

import (
	"io"

	"spudos/device"
	"spudos/device/video/console"
	"spudos/kernel"
)

const blankGlyph = ' '

// Cell is a single character position of the terminal grid.
type Cell struct {
	// Glyph is the code page 437 character stored in the cell.
	Glyph byte

	// Attr encodes the cell colors using the VGA layout (fg | bg<<4).
	Attr uint8
}

// MakeAttr packs a foreground and background color into a cell attribute.
func MakeAttr(fg, bg uint8) uint8 {
	return (fg & 0xf) | (bg&0xf)<<4
}

// Colors unpacks the cell attribute into its foreground and background colors.
func (c Cell) Colors() (fg, bg uint8) {
	return c.Attr & 0xf, c.Attr >> 4
}

// VT implements a fixed-size terminal grid. The terminal interprets '\n' as a
// request to move to the next line; every other byte is stored as a glyph.
// Writes past the last column wrap to the next row and writes past the last
// row scroll the grid up by one row.
type VT struct {
	cons         console.Device
	cursorSetter console.CursorSetter

	width  uint32
	height uint32
	cells  []Cell

	defaultFg, curFg uint8
	defaultBg, curBg uint8
	cursorX, cursorY uint32
	state            State
}

// NewVT creates a new virtual terminal device. The grid is allocated when
// the terminal gets attached to a console.
func NewVT() *VT {
	return &VT{}
}

// AttachTo connects a TTY to a console instance. The grid takes its
// dimensions and default colors from the console and is filled with blank
// cells. Consoles reporting a zero width or height are ignored.
func (t *VT) AttachTo(cons console.Device) {
	if cons == nil {
		return
	}

	w, h := cons.Dimensions()
	if w == 0 || h == 0 {
		return
	}

	t.cons = cons
	t.cursorSetter, _ = cons.(console.CursorSetter)
	t.width, t.height = w, h
	t.defaultFg, t.defaultBg = cons.DefaultColors()
	t.curFg, t.curBg = t.defaultFg, t.defaultBg
	t.cursorX, t.cursorY = 0, 0

	t.cells = make([]Cell, t.width*t.height)
	t.blank(t.cells)
}

// Dimensions returns the grid width and height.
func (t *VT) Dimensions() (uint32, uint32) {
	return t.width, t.height
}

// State returns the TTY's state.
func (t *VT) State() State {
	return t.state
}

// SetState updates the TTY's state.
func (t *VT) SetState(newState State) {
	if t.state == newState {
		return
	}

	t.state = newState

	// If the terminal became active, update the console with its contents
	if t.state == StateActive && t.cons != nil {
		var offset int
		for y := uint32(0); y < t.height; y++ {
			for x := uint32(0); x < t.width; x, offset = x+1, offset+1 {
				fg, bg := t.cells[offset].Colors()
				t.cons.Write(t.cells[offset].Glyph, fg, bg, x, y)
			}
		}
		t.syncCursor()
	}
}

// CursorPosition returns the current cursor position.
func (t *VT) CursorPosition() (uint32, uint32) {
	return t.cursorX, t.cursorY
}

// SetCursorPosition sets the current cursor position to (x,y).
func (t *VT) SetCursorPosition(x, y uint32) {
	if t.cons == nil {
		return
	}

	if x >= t.width {
		x = t.width - 1
	}

	if y >= t.height {
		y = t.height - 1
	}

	t.cursorX, t.cursorY = x, y
	t.syncCursor()
}

// SetAttribute sets the colors used by subsequent writes.
func (t *VT) SetAttribute(fg, bg uint8) {
	t.curFg, t.curBg = fg&0xf, bg&0xf
}

// Attribute returns the colors used by subsequent writes.
func (t *VT) Attribute() (uint8, uint8) {
	return t.curFg, t.curBg
}

// CellAt returns the cell at (x, y). Out-of-range coordinates yield a zero
// Cell.
func (t *VT) CellAt(x, y uint32) Cell {
	if x >= t.width || y >= t.height {
		return Cell{}
	}
	return t.cells[y*t.width+x]
}

// Write implements io.Writer.
func (t *VT) Write(data []byte) (int, error) {
	for count, b := range data {
		err := t.WriteByte(b)
		if err != nil {
			return count, err
		}
	}

	return len(data), nil
}

// WriteByte implements io.ByteWriter.
func (t *VT) WriteByte(b byte) error {
	if t.cons == nil {
		return io.ErrClosedPipe
	}

	if b == '\n' {
		t.Newline()
		return nil
	}

	t.putCell(b, t.cursorX, t.cursorY)

	t.cursorX++
	if t.cursorX == t.width {
		t.cursorX = 0
		t.advanceRow()
	}
	t.syncCursor()

	return nil
}

// Newline moves the cursor to column 0 of the next row. If the cursor is on
// the last row, the grid is scrolled instead.
func (t *VT) Newline() {
	if t.cons == nil {
		return
	}

	t.cursorX = 0
	t.advanceRow()
	t.syncCursor()
}

// Backspace moves the cursor one column to the left and blanks that cell.
// At column 0 the cursor moves to the last column of the previous row.
func (t *VT) Backspace() {
	if t.cons == nil || (t.cursorX == 0 && t.cursorY == 0) {
		return
	}

	if t.cursorX == 0 {
		t.cursorX, t.cursorY = t.width, t.cursorY-1
	}
	t.cursorX--
	t.putCell(blankGlyph, t.cursorX, t.cursorY)
	t.syncCursor()
}

// Scroll shifts all rows up by one, discarding the top row. The vacated
// bottom row is blanked using the current attribute and the cursor is placed
// at its start.
func (t *VT) Scroll() {
	if t.cons == nil {
		return
	}

	copy(t.cells, t.cells[t.width:])
	t.blank(t.cells[(t.height-1)*t.width:])

	if t.state == StateActive {
		t.cons.Scroll(console.ScrollDirUp, 1)
		t.cons.Fill(0, t.height-1, t.width, 1, t.curFg, t.curBg)
	}

	t.cursorX, t.cursorY = 0, t.height-1
	t.syncCursor()
}

// Clear blanks every cell using the current attribute and moves the cursor
// to the top-left corner.
func (t *VT) Clear() {
	if t.cons == nil {
		return
	}

	t.blank(t.cells)
	if t.state == StateActive {
		t.cons.Fill(0, 0, t.width, t.height, t.curFg, t.curBg)
	}

	t.cursorX, t.cursorY = 0, 0
	t.syncCursor()
}

// advanceRow moves the cursor to the next row, scrolling if the next row
// would fall outside the grid.
func (t *VT) advanceRow() {
	if t.cursorY+1 < t.height {
		t.cursorY++
		return
	}
	t.Scroll()
}

// putCell stores b with the current attribute at (x, y) and mirrors it to
// the console if the terminal is active.
func (t *VT) putCell(b byte, x, y uint32) {
	t.cells[y*t.width+x] = Cell{Glyph: b, Attr: MakeAttr(t.curFg, t.curBg)}
	if t.state == StateActive {
		t.cons.Write(b, t.curFg, t.curBg, x, y)
	}
}

func (t *VT) blank(cells []Cell) {
	attr := MakeAttr(t.curFg, t.curBg)
	for i := range cells {
		cells[i] = Cell{Glyph: blankGlyph, Attr: attr}
	}
}

// syncCursor moves the console's hardware cursor to the terminal cursor.
func (t *VT) syncCursor() {
	if t.state == StateActive && t.cursorSetter != nil {
		t.cursorSetter.SetCursor(t.cursorX, t.cursorY)
	}
}

// DriverName returns the name of this driver.
func (t *VT) DriverName() string {
	return "vt"
}

// DriverVersion returns the version of this driver.
func (t *VT) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit initializes this driver.
func (t *VT) DriverInit(_ io.Writer) *kernel.Error { return nil }

func probeForVT() device.Driver {
	return NewVT()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderTTY,
		Probe: probeForVT,
	})
}
