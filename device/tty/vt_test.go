package tty

import (
	"image/color"
	"io"
	"strings"
	"testing"

	"spudos/device"
	"spudos/device/video/console"
)

func newAttachedVT(w, h uint32, active bool) (*VT, *mockConsole) {
	cons := newMockConsole(w, h)
	term := NewVT()
	term.AttachTo(cons)
	if active {
		term.SetState(StateActive)
	}
	cons.bytesWritten = 0
	return term, cons
}

func rowText(term *VT, y uint32) string {
	var sb strings.Builder
	w, _ := term.Dimensions()
	for x := uint32(0); x < w; x++ {
		sb.WriteByte(term.CellAt(x, y).Glyph)
	}
	return sb.String()
}

func TestVtPosition(t *testing.T) {
	specs := []struct {
		inX, inY   uint32
		expX, expY uint32
	}{
		{20, 20, 20, 20},
		{100, 20, 79, 20},
		{10, 200, 10, 24},
		{0, 0, 0, 0},
		{100, 100, 79, 24},
	}

	var term Device = NewVT()

	// SetCursorPosition without an attached console is a no-op
	term.SetCursorPosition(2, 2)

	if curX, curY := term.CursorPosition(); curX != 0 || curY != 0 {
		t.Fatalf("expected terminal initial position to be (0, 0); got (%d, %d)", curX, curY)
	}

	cons := newMockConsole(80, 25)
	term.AttachTo(cons)

	for specIndex, spec := range specs {
		term.SetCursorPosition(spec.inX, spec.inY)
		if x, y := term.CursorPosition(); x != spec.expX || y != spec.expY {
			t.Errorf("[spec %d] expected setting position to (%d, %d) to update the position to (%d, %d); got (%d, %d)", specIndex, spec.inX, spec.inY, spec.expX, spec.expY, x, y)
		}
	}
}

func TestVtWriteWithoutConsole(t *testing.T) {
	term := NewVT()
	if _, err := term.Write([]byte("foo")); err != io.ErrClosedPipe {
		t.Fatal("expected calling Write on a terminal without an attached console to return ErrClosedPipe")
	}

	// These must not panic without a grid.
	term.Newline()
	term.Backspace()
	term.Scroll()
	term.Clear()
}

func TestVtWrite(t *testing.T) {
	t.Run("inactive terminal", func(t *testing.T) {
		term, cons := newAttachedVT(80, 25, false)
		term.SetAttribute(2, 3)

		data := []byte("123\n45")
		count, err := term.Write(data)
		if err != nil {
			t.Fatal(err)
		}

		if count != len(data) {
			t.Fatalf("expected to write %d bytes; wrote %d", len(data), count)
		}

		if cons.bytesWritten != 0 {
			t.Fatalf("expected writes not to be synced with console when terminal is inactive; %d bytes written", cons.bytesWritten)
		}

		specs := []struct {
			x, y    uint32
			expByte uint8
		}{
			{0, 0, '1'},
			{1, 0, '2'},
			{2, 0, '3'},
			{3, 0, ' '},
			{0, 1, '4'},
			{1, 1, '5'},
		}

		for specIndex, spec := range specs {
			cell := term.CellAt(spec.x, spec.y)
			if cell.Glyph != spec.expByte {
				t.Errorf("[spec %d] expected char at (%d, %d) to be %q; got %q", specIndex, spec.x, spec.y, spec.expByte, cell.Glyph)
			}
		}

		if fg, bg := term.CellAt(0, 0).Colors(); fg != 2 || bg != 3 {
			t.Errorf("expected written cell to use fg:2, bg:3; got fg:%d, bg:%d", fg, bg)
		}

		if x, y := term.CursorPosition(); x != 2 || y != 1 {
			t.Errorf("expected cursor at (2, 1); got (%d, %d)", x, y)
		}
	})

	t.Run("active terminal", func(t *testing.T) {
		term, cons := newAttachedVT(80, 25, true)
		term.SetAttribute(14, 1)

		if _, err := term.Write([]byte("hi")); err != nil {
			t.Fatal(err)
		}

		if cons.bytesWritten != 2 {
			t.Fatalf("expected 2 bytes to be synced with the console; got %d", cons.bytesWritten)
		}

		if cons.chars[0] != 'h' || cons.chars[1] != 'i' || cons.fgAttrs[1] != 14 || cons.bgAttrs[1] != 1 {
			t.Fatal("expected console contents to mirror the terminal")
		}

		if cons.cursorX != 2 || cons.cursorY != 0 {
			t.Fatalf("expected hardware cursor at (2, 0); got (%d, %d)", cons.cursorX, cons.cursorY)
		}
	})
}

func TestVtWrapAndScroll(t *testing.T) {
	const w, h = 10, 3

	t.Run("wrap at last column", func(t *testing.T) {
		term, _ := newAttachedVT(w, h, true)
		term.Write([]byte(strings.Repeat("a", w)))

		if x, y := term.CursorPosition(); x != 0 || y != 1 {
			t.Fatalf("expected cursor at (0, 1) after filling a row; got (%d, %d)", x, y)
		}

		term.WriteByte('b')
		if got := term.CellAt(0, 1).Glyph; got != 'b' {
			t.Fatalf("expected wrapped char at (0, 1); got %q", got)
		}
	})

	t.Run("scroll eagerly when the last cell is written", func(t *testing.T) {
		term, cons := newAttachedVT(w, h, true)
		term.Write([]byte("row0\nrow1\n"))
		term.SetAttribute(4, 2)
		term.Write([]byte(strings.Repeat("z", w)))

		if x, y := term.CursorPosition(); x != 0 || y != h-1 {
			t.Fatalf("expected cursor at (0, %d); got (%d, %d)", h-1, x, y)
		}

		exp := []string{"row1      ", "zzzzzzzzzz", "          "}
		for y, expRow := range exp {
			if got := rowText(term, uint32(y)); got != expRow {
				t.Errorf("expected row %d to be %q; got %q", y, expRow, got)
			}
		}

		if fg, bg := term.CellAt(0, h-1).Colors(); fg != 4 || bg != 2 {
			t.Errorf("expected the vacated row to take the current attribute; got fg:%d, bg:%d", fg, bg)
		}

		if cons.scrollUpCount != 1 {
			t.Errorf("expected console to be scrolled once; got %d", cons.scrollUpCount)
		}

		for y := uint32(0); y < h; y++ {
			if got := cons.rowText(y); got != rowText(term, y) {
				t.Errorf("expected console row %d to mirror the terminal; got %q", y, got)
			}
		}
	})

	t.Run("newline on last row", func(t *testing.T) {
		term, _ := newAttachedVT(w, h, false)
		term.Write([]byte("a\nb\nc"))
		term.Newline()

		if x, y := term.CursorPosition(); x != 0 || y != h-1 {
			t.Fatalf("expected cursor at (0, %d); got (%d, %d)", h-1, x, y)
		}

		exp := []string{"b         ", "c         ", "          "}
		for y, expRow := range exp {
			if got := rowText(term, uint32(y)); got != expRow {
				t.Errorf("expected row %d to be %q; got %q", y, expRow, got)
			}
		}
	})
}

func TestVtBackspace(t *testing.T) {
	term, cons := newAttachedVT(80, 25, true)

	// Backspace at the top-left corner is a no-op
	term.Backspace()
	if x, y := term.CursorPosition(); x != 0 || y != 0 {
		t.Fatalf("expected cursor to stay at (0, 0); got (%d, %d)", x, y)
	}

	term.Write([]byte("ab"))
	term.Backspace()

	if x, _ := term.CursorPosition(); x != 1 {
		t.Fatalf("expected cursor at column 1; got %d", x)
	}

	if got := term.CellAt(1, 0).Glyph; got != ' ' {
		t.Fatalf("expected backspaced cell to be blank; got %q", got)
	}

	if cons.chars[1] != ' ' {
		t.Fatal("expected backspace to be synced with the console")
	}
}

func TestVtBackspaceAcrossRows(t *testing.T) {
	term, _ := newAttachedVT(10, 3, true)

	// Fill row 0 and wrap one character onto row 1.
	term.Write([]byte("0123456789a"))
	if x, y := term.CursorPosition(); x != 1 || y != 1 {
		t.Fatalf("expected cursor at (1, 1) after wrapping; got (%d, %d)", x, y)
	}

	term.Backspace()
	term.Backspace()
	if x, y := term.CursorPosition(); x != 9 || y != 0 {
		t.Fatalf("expected backspace at column 0 to move to (9, 0); got (%d, %d)", x, y)
	}
	if exp, got := "012345678 ", rowText(term, 0); got != exp {
		t.Fatalf("expected row 0 to be %q; got %q", exp, got)
	}
	if exp, got := "          ", rowText(term, 1); got != exp {
		t.Fatalf("expected row 1 to be blank; got %q", got)
	}
}

func TestVtAttachToEmptyConsole(t *testing.T) {
	specs := []struct{ w, h uint32 }{{0, 0}, {0, 25}, {80, 0}}

	for specIndex, spec := range specs {
		term := NewVT()
		term.AttachTo(newMockConsole(spec.w, spec.h))

		if w, h := term.Dimensions(); w != 0 || h != 0 {
			t.Errorf("[spec %d] expected a %dx%d console to be ignored; got dimensions %dx%d", specIndex, spec.w, spec.h, w, h)
		}
		if err := term.WriteByte('x'); err != io.ErrClosedPipe {
			t.Errorf("[spec %d] expected WriteByte to return ErrClosedPipe; got %v", specIndex, err)
		}
	}
}

func TestVtClear(t *testing.T) {
	term, cons := newAttachedVT(20, 5, true)
	term.Write([]byte("hello\nworld"))
	term.SetAttribute(15, 1)
	term.Clear()

	if x, y := term.CursorPosition(); x != 0 || y != 0 {
		t.Fatalf("expected cursor at (0, 0); got (%d, %d)", x, y)
	}

	for y := uint32(0); y < 5; y++ {
		for x := uint32(0); x < 20; x++ {
			cell := term.CellAt(x, y)
			if fg, bg := cell.Colors(); cell.Glyph != ' ' || fg != 15 || bg != 1 {
				t.Fatalf("expected cell (%d, %d) to be blank with fg:15, bg:1; got %q fg:%d bg:%d", x, y, cell.Glyph, fg, bg)
			}
		}
	}

	if cons.bgAttrs[0] != 1 || cons.chars[0] != ' ' {
		t.Fatal("expected clear to be synced with the console")
	}
}

func TestVtSetState(t *testing.T) {
	term, cons := newAttachedVT(80, 25, false)
	term.Write([]byte("foo"))

	if exp, got := StateInactive, term.State(); got != exp {
		t.Fatalf("expected terminal state to be %d; got %d", exp, got)
	}

	term.SetState(StateActive)
	if exp, got := StateActive, term.State(); got != exp {
		t.Fatalf("expected terminal state to be %d; got %d", exp, got)
	}

	if exp := 80 * 25; cons.bytesWritten != exp {
		t.Fatalf("expected activation to sync %d cells; got %d", exp, cons.bytesWritten)
	}

	if cons.rowText(0)[:3] != "foo" {
		t.Fatalf("expected console to contain the buffered output; got %q", cons.rowText(0))
	}

	// Setting the same state is a no-op
	cons.bytesWritten = 0
	term.SetState(StateActive)
	if cons.bytesWritten != 0 {
		t.Fatal("expected no console writes when the state does not change")
	}
}

func TestVtCellAtOutOfRange(t *testing.T) {
	term, _ := newAttachedVT(10, 10, false)
	if got := term.CellAt(10, 0); got != (Cell{}) {
		t.Fatalf("expected zero cell; got %v", got)
	}
}

func TestMakeAttr(t *testing.T) {
	specs := []struct {
		fg, bg  uint8
		expAttr uint8
	}{
		{7, 0, 0x07},
		{15, 1, 0x1f},
		{0x1e, 0x21, 0x1e},
	}

	for specIndex, spec := range specs {
		if got := MakeAttr(spec.fg, spec.bg); got != spec.expAttr {
			t.Errorf("[spec %d] expected attr 0x%x; got 0x%x", specIndex, spec.expAttr, got)
		}
	}
}

func TestVtDriverInterface(t *testing.T) {
	var dev device.Driver = NewVT()

	if err := dev.DriverInit(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dev.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := dev.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}
}

func TestVTProbe(t *testing.T) {
	if drv := probeForVT(); drv == nil {
		t.Fatal("expected probeForVT to return a driver")
	}
}

type mockConsole struct {
	width, height    uint32
	fg, bg           uint8
	chars            []uint8
	fgAttrs          []uint8
	bgAttrs          []uint8
	bytesWritten     int
	scrollUpCount    int
	scrollDownCount  int
	cursorX, cursorY uint32
}

func newMockConsole(w, h uint32) *mockConsole {
	return &mockConsole{
		width:   w,
		height:  h,
		fg:      7,
		bg:      0,
		chars:   make([]uint8, w*h),
		fgAttrs: make([]uint8, w*h),
		bgAttrs: make([]uint8, w*h),
	}
}

func (cons *mockConsole) Dimensions() (uint32, uint32) {
	return cons.width, cons.height
}

func (cons *mockConsole) DefaultColors() (uint8, uint8) {
	return cons.fg, cons.bg
}

func (cons *mockConsole) Fill(x, y, width, height uint32, fg, bg uint8) {
	for fy := y; fy < y+height; fy++ {
		offset := (fy * cons.width) + x
		for fx := x; fx < x+width; fx, offset = fx+1, offset+1 {
			cons.chars[offset] = ' '
			cons.fgAttrs[offset] = fg
			cons.bgAttrs[offset] = bg
		}
	}
}

func (cons *mockConsole) Scroll(dir console.ScrollDir, lines uint32) {
	offset := lines * cons.width
	switch dir {
	case console.ScrollDirUp:
		cons.scrollUpCount++
		copy(cons.chars, cons.chars[offset:])
		copy(cons.fgAttrs, cons.fgAttrs[offset:])
		copy(cons.bgAttrs, cons.bgAttrs[offset:])
	case console.ScrollDirDown:
		cons.scrollDownCount++
	}
}

func (cons *mockConsole) Palette() color.Palette {
	return console.EGAPalette()
}

func (cons *mockConsole) Write(b byte, fg, bg uint8, x, y uint32) {
	offset := (y * cons.width) + x
	cons.chars[offset] = b
	cons.fgAttrs[offset] = fg
	cons.bgAttrs[offset] = bg
	cons.bytesWritten++
}

func (cons *mockConsole) SetCursor(x, y uint32) {
	cons.cursorX, cons.cursorY = x, y
}

func (cons *mockConsole) rowText(y uint32) string {
	return string(cons.chars[y*cons.width : (y+1)*cons.width])
}
