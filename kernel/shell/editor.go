package shell

import "spudos/device/keyboard"

// LineEditor accumulates decoded key events into a line. The buffer has a
// fixed capacity; one slot is reserved for the 0 terminator so characters
// typed after capacity-1 are silently dropped.
type LineEditor struct {
	buf      []byte
	n        int
	boundary uint32
	echo     Echoer

	// start is the echo column of the first character of the line.
	start uint32
}

// NewLineEditor creates an editor with the given buffer capacity. Backspace
// is refused while echo.Column() is at or before boundary, unless the line
// has wrapped onto a new row since its first character.
func NewLineEditor(capacity int, boundary uint32, echo Echoer) *LineEditor {
	if capacity < 1 {
		capacity = 1
	}

	return &LineEditor{
		buf:      make([]byte, capacity),
		boundary: boundary,
		echo:     echo,
	}
}

// Len returns the number of characters in the current line.
func (e *LineEditor) Len() int {
	return e.n
}

// Reset discards the current line.
func (e *LineEditor) Reset() {
	e.n = 0
}

// Feed applies ev to the current line. When ev submits the line, Feed
// returns the line contents and true and the editor starts a new line.
func (e *LineEditor) Feed(ev keyboard.KeyEvent) (string, bool) {
	switch ev.Kind {
	case keyboard.KeyCharacter:
		if e.n >= len(e.buf)-1 {
			return "", false
		}
		if e.n == 0 {
			e.start = e.echo.Column()
		}
		e.buf[e.n] = ev.Char
		e.n++
		_ = e.echo.WriteByte(ev.Char)
	case keyboard.KeyBackspace:
		if !e.canErase() {
			return "", false
		}
		e.n--
		e.echo.Backspace()
	case keyboard.KeySubmit:
		e.buf[e.n] = 0
		line := string(e.buf[:e.n])
		e.n = 0
		return line, true
	}

	return "", false
}

// canErase reports whether the character left of the cursor belongs to the
// line. Without wrapping the cursor sits at start+n; once the line wraps the
// column drops below that and every remaining character is erasable.
func (e *LineEditor) canErase() bool {
	if e.n == 0 {
		return false
	}

	col, boundary := e.echo.Column(), e.boundary
	if w := e.echo.Width(); w != 0 {
		boundary %= w
	}
	return col > boundary || col < e.start+uint32(e.n)
}
