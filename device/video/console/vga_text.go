package console

import (
	"image/color"
	"io"

	"spudos/device"
	"spudos/kernel"
	"spudos/kernel/hal/multiboot"
	"spudos/kernel/kfmt"
)

// CRTC registers used for positioning the hardware cursor.
const (
	crtcIndexPort  = 0x3d4
	crtcDataPort   = 0x3d5
	crtcCursorLow  = 0x0f
	crtcCursorHigh = 0x0e
	vgaBlankGlyph  = uint16(' ')
	vgaDefaultFg   = 7
	vgaDefaultBg   = 0
	vgaPaletteSize = 16
)

// VgaTextConsole implements an EGA-compatible text console using VGA mode
// 0x3.
//
// Each character in the console framebuffer is represented using two bytes,
// a byte for the character code and a byte that encodes the foreground and
// background colors (4 bits for each).
//
// The default settings for the console are light gray text (color 7) on a
// black background (color 0) with space as the clear character.
type VgaTextConsole struct {
	width  uint32
	height uint32

	fbPhysAddr uintptr
	fb         []uint16

	palette   color.Palette
	defaultFg uint8
	defaultBg uint8
	clearChar uint16
}

// NewVgaTextConsole creates an new vga text console with its
// framebuffer located at fbPhysAddr.
func NewVgaTextConsole(columns, rows uint32, fbPhysAddr uintptr) *VgaTextConsole {
	return &VgaTextConsole{
		width:      columns,
		height:     rows,
		fbPhysAddr: fbPhysAddr,
		clearChar:  vgaBlankGlyph,
		palette:    EGAPalette(),
		defaultFg:  vgaDefaultFg,
		defaultBg:  vgaDefaultBg,
	}
}

// Dimensions returns the console width and height in characters.
func (cons *VgaTextConsole) Dimensions() (uint32, uint32) {
	return cons.width, cons.height
}

// DefaultColors returns the default foreground and background colors
// used by this console.
func (cons *VgaTextConsole) DefaultColors() (fg uint8, bg uint8) {
	return cons.defaultFg, cons.defaultBg
}

// Fill sets the contents of the specified rectangular region to the requested
// color. Regions extending past the console edges are clipped.
func (cons *VgaTextConsole) Fill(x, y, width, height uint32, fg, bg uint8) {
	if x >= cons.width || y >= cons.height {
		return
	}

	if x+width > cons.width {
		width = cons.width - x
	}

	if y+height > cons.height {
		height = cons.height - y
	}

	var (
		clr                  = (((uint16(bg) << 4) | uint16(fg)) << 8) | cons.clearChar
		rowOffset, colOffset uint32
	)

	rowOffset = (y * cons.width) + x
	for ; height > 0; height, rowOffset = height-1, rowOffset+cons.width {
		for colOffset = rowOffset; colOffset < rowOffset+width; colOffset++ {
			cons.fb[colOffset] = clr
		}
	}
}

// Scroll the console contents to the specified direction. The caller
// is responsible for updating (e.g. clear or replace) the contents of
// the region that was scrolled.
func (cons *VgaTextConsole) Scroll(dir ScrollDir, lines uint32) {
	if lines == 0 || lines > cons.height {
		return
	}

	offset := lines * cons.width
	switch dir {
	case ScrollDirUp:
		copy(cons.fb[:(cons.height-lines)*cons.width], cons.fb[offset:cons.height*cons.width])
	case ScrollDirDown:
		copy(cons.fb[offset:cons.height*cons.width], cons.fb[:(cons.height-lines)*cons.width])
	}
}

// Write a char to the specified location. If fg or bg exceed the supported
// colors for this console, they will be set to their default value. Writes
// outside the console are ignored.
func (cons *VgaTextConsole) Write(ch byte, fg, bg uint8, x, y uint32) {
	if x >= cons.width || y >= cons.height {
		return
	}

	if fg >= vgaPaletteSize {
		fg = cons.defaultFg
	}
	if bg >= vgaPaletteSize {
		bg = cons.defaultBg
	}

	cons.fb[(y*cons.width)+x] = (((uint16(bg) << 4) | uint16(fg)) << 8) | uint16(ch)
}

// SetCursor moves the blinking hardware cursor to the specified location by
// programming the CRTC cursor location registers.
func (cons *VgaTextConsole) SetCursor(x, y uint32) {
	if x >= cons.width || y >= cons.height {
		return
	}

	pos := uint16(y*cons.width + x)
	portWriteByteFn(crtcIndexPort, crtcCursorLow)
	portWriteByteFn(crtcDataPort, uint8(pos&0xff))
	portWriteByteFn(crtcIndexPort, crtcCursorHigh)
	portWriteByteFn(crtcDataPort, uint8(pos>>8))
}

// Palette returns the active color palette for this console.
func (cons *VgaTextConsole) Palette() color.Palette {
	return cons.palette
}

// DriverName returns the name of this driver.
func (cons *VgaTextConsole) DriverName() string {
	return "vga_text_console"
}

// DriverVersion returns the version of this driver.
func (cons *VgaTextConsole) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit initializes this driver.
func (cons *VgaTextConsole) DriverInit(w io.Writer) *kernel.Error {
	cons.fb = mapFramebufferFn(cons.fbPhysAddr, int(cons.width*cons.height))
	kfmt.Fprintf(w, "%dx%d text framebuffer at 0x%x\n", cons.width, cons.height, cons.fbPhysAddr)
	return nil
}

// probeForVgaTextConsole checks for the presence of a vga text console. If
// the bootloader reports a non-EGA framebuffer no console is returned; if it
// reports nothing at all the standard 80x25 framebuffer at 0xb8000 is used.
func probeForVgaTextConsole() device.Driver {
	fbInfo := getFramebufferInfoFn()
	switch {
	case fbInfo == nil:
		return NewVgaTextConsole(defaultColumns, defaultRows, defaultFbPhysAddr)
	case fbInfo.Type == multiboot.FramebufferTypeEGA:
		return NewVgaTextConsole(fbInfo.Width, fbInfo.Height, uintptr(fbInfo.PhysAddr))
	default:
		return nil
	}
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForVgaTextConsole,
	})
}
