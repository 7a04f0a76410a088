// Package termcons implements a console device on top of a tcell screen so
// the terminal stack can run inside a host terminal emulator.
package termcons

import (
	"image/color"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/encoding/charmap"

	"spudos/device/video/console"
)

const (
	defaultFg = 7
	defaultBg = 0
)

type cell struct {
	glyph  byte
	fg, bg uint8
}

// Console is a fixed-size character grid drawn on a tcell screen. Glyphs are
// code page 437 bytes and colors are indices into the EGA palette.
type Console struct {
	screen tcell.Screen

	width  uint32
	height uint32
	cells  []cell

	palette color.Palette
	colors  []tcell.Color
	glyphs  [256]rune
}

// New creates a console with the given dimensions that draws on screen. The
// screen must already be initialized.
func New(screen tcell.Screen, width, height uint32) *Console {
	cons := &Console{
		screen:  screen,
		width:   width,
		height:  height,
		cells:   make([]cell, width*height),
		palette: console.EGAPalette(),
	}

	for i := range cons.glyphs {
		cons.glyphs[i] = charmap.CodePage437.DecodeByte(byte(i))
	}
	// Control codes decode to themselves; draw them as blanks.
	for i := 0; i < 0x20; i++ {
		cons.glyphs[i] = ' '
	}

	cons.colors = make([]tcell.Color, len(cons.palette))
	for i, c := range cons.palette {
		r, g, b, _ := c.RGBA()
		cons.colors[i] = tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
	}

	cons.Fill(0, 0, width, height, defaultFg, defaultBg)
	return cons
}

// Dimensions returns the console width and height in characters.
func (cons *Console) Dimensions() (uint32, uint32) {
	return cons.width, cons.height
}

// DefaultColors returns the default foreground and background colors.
func (cons *Console) DefaultColors() (uint8, uint8) {
	return defaultFg, defaultBg
}

// Palette returns the EGA palette used to map color indices.
func (cons *Console) Palette() color.Palette {
	return cons.palette
}

// Fill sets the contents of the specified rectangular region to blank cells
// with the requested colors. Regions exceeding the console are clipped.
func (cons *Console) Fill(x, y, width, height uint32, fg, bg uint8) {
	if x >= cons.width || y >= cons.height {
		return
	}
	if x+width > cons.width {
		width = cons.width - x
	}
	if y+height > cons.height {
		height = cons.height - y
	}

	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			cons.put(' ', fg, bg, col, row)
		}
	}
}

// Scroll moves the console contents by lines rows in the given direction.
// The vacated rows keep their previous contents.
func (cons *Console) Scroll(dir console.ScrollDir, lines uint32) {
	if lines == 0 || lines >= cons.height {
		return
	}

	offset := int(lines * cons.width)
	switch dir {
	case console.ScrollDirUp:
		copy(cons.cells, cons.cells[offset:])
	case console.ScrollDirDown:
		copy(cons.cells[offset:], cons.cells)
	}

	cons.redraw()
}

// Write draws ch at (x, y). Writes outside the console are ignored.
func (cons *Console) Write(ch byte, fg, bg uint8, x, y uint32) {
	if x >= cons.width || y >= cons.height {
		return
	}
	cons.put(ch, fg, bg, x, y)
}

// SetCursor moves the terminal cursor to (x, y).
func (cons *Console) SetCursor(x, y uint32) {
	cons.screen.ShowCursor(int(x), int(y))
}

// Glyph returns the code page 437 byte stored at (x, y).
func (cons *Console) Glyph(x, y uint32) byte {
	if x >= cons.width || y >= cons.height {
		return 0
	}
	return cons.cells[y*cons.width+x].glyph
}

func (cons *Console) put(ch byte, fg, bg uint8, x, y uint32) {
	c := &cons.cells[y*cons.width+x]
	c.glyph, c.fg, c.bg = ch, fg&0xf, bg&0xf
	cons.draw(c, x, y)
}

func (cons *Console) draw(c *cell, x, y uint32) {
	style := tcell.StyleDefault.
		Foreground(cons.colors[c.fg]).
		Background(cons.colors[c.bg])
	cons.screen.SetContent(int(x), int(y), cons.glyphs[c.glyph], nil, style)
}

func (cons *Console) redraw() {
	var offset int
	for y := uint32(0); y < cons.height; y++ {
		for x := uint32(0); x < cons.width; x, offset = x+1, offset+1 {
			cons.draw(&cons.cells[offset], x, y)
		}
	}
}
