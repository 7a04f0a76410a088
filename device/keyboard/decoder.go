// Package keyboard decodes PS/2 scan code set 1 bytes into key events and
// provides a polling driver for the PS/2 controller.
package keyboard

// KeyKind identifies the type of a KeyEvent.
type KeyKind uint8

const (
	// KeyNone is emitted for bytes that do not produce any input such as
	// key releases and unmapped keys.
	KeyNone KeyKind = iota

	// KeyCharacter is emitted for keys that produce a printable glyph.
	KeyCharacter

	// KeyBackspace is emitted when the backspace key is pressed.
	KeyBackspace

	// KeySubmit is emitted when either enter key is pressed.
	KeySubmit

	// KeyModifier is emitted when the state of a modifier key changes.
	KeyModifier
)

// Modifier identifies the modifier key reported by a KeyModifier event.
type Modifier uint8

const (
	// ModNone is used by events that do not refer to a modifier key.
	ModNone Modifier = iota

	// ModShift refers to either shift key.
	ModShift

	// ModCapsLock refers to the caps lock key.
	ModCapsLock
)

// KeyEvent is a decoded key press or release.
type KeyEvent struct {
	Kind KeyKind

	// Char holds the glyph for KeyCharacter events.
	Char byte

	// Modifier and Pressed describe KeyModifier events. For caps lock,
	// Pressed reports whether caps lock is now active.
	Modifier Modifier
	Pressed  bool
}

// Scan code set 1 codes that receive special treatment.
const (
	codeBackspace  = 0x0e
	codeEnter      = 0x1c
	codeLeftShift  = 0x2a
	codeRightShift = 0x36
	codeCapsLock   = 0x3a
	codeKeypadDiv  = 0x35
	codeExtended   = 0xe0
	breakBit       = 0x80
)

// baseTable maps scan code set 1 make codes to their unshifted US layout
// glyph. A zero entry marks a code that does not produce a glyph.
var baseTable = [128]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0a: '9', 0x0b: '0',
	0x0c: '-', 0x0d: '=',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1a: '[', 0x1b: ']',
	0x1e: 'a', 0x1f: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x27: ';', 0x28: '\'', 0x29: '`', 0x2b: '\\',
	0x2c: 'z', 0x2d: 'x', 0x2e: 'c', 0x2f: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
	0x33: ',', 0x34: '.', 0x35: '/',
	0x37: '*', 0x39: ' ',
	0x4a: '-', 0x4e: '+',
}

// Decoder converts a stream of scan code set 1 bytes into KeyEvents. It
// tracks the shift, caps lock and extended-prefix state between calls.
type Decoder struct {
	shift    bool
	caps     bool
	extended bool
}

// Reset clears all decoder state.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// Decode translates a single scan code byte into a KeyEvent.
func (d *Decoder) Decode(b byte) KeyEvent {
	if b == codeExtended {
		d.extended = true
		return KeyEvent{}
	}

	if d.extended {
		d.extended = false
		return d.decodeExtended(b)
	}

	if b&breakBit != 0 {
		switch b &^ breakBit {
		case codeLeftShift, codeRightShift:
			d.shift = false
			return KeyEvent{Kind: KeyModifier, Modifier: ModShift}
		}
		return KeyEvent{}
	}

	switch b {
	case codeLeftShift, codeRightShift:
		d.shift = true
		return KeyEvent{Kind: KeyModifier, Modifier: ModShift, Pressed: true}
	case codeCapsLock:
		d.caps = !d.caps
		return KeyEvent{Kind: KeyModifier, Modifier: ModCapsLock, Pressed: d.caps}
	case codeBackspace:
		return KeyEvent{Kind: KeyBackspace}
	case codeEnter:
		return KeyEvent{Kind: KeySubmit}
	}

	ch := baseTable[b]
	if ch == 0 {
		return KeyEvent{}
	}

	if ch >= 'a' && ch <= 'z' && d.shift != d.caps {
		ch -= 'a' - 'A'
	}

	return KeyEvent{Kind: KeyCharacter, Char: ch}
}

// decodeExtended handles the byte following an 0xe0 prefix. Only the keypad
// enter and divide keys are mapped; releases and other keys are ignored.
func (d *Decoder) decodeExtended(b byte) KeyEvent {
	switch b {
	case codeEnter:
		return KeyEvent{Kind: KeySubmit}
	case codeKeypadDiv:
		return KeyEvent{Kind: KeyCharacter, Char: '/'}
	default:
		return KeyEvent{}
	}
}

// makeCodes is the reverse of baseTable. It is populated by init.
var makeCodes [256]byte

func init() {
	for code := len(baseTable) - 1; code >= 0; code-- {
		if ch := baseTable[code]; ch != 0 {
			makeCodes[ch] = byte(code)
		}
	}
}

// MakeCode returns the scan code set 1 make code that produces c together
// with a flag indicating whether shift must be held. Newlines map to the
// enter key and '\b' maps to backspace. The ok result is false for glyphs
// that cannot be typed on the US layout without a symbol-shift table.
func MakeCode(c byte) (code byte, shift bool, ok bool) {
	switch {
	case c == '\n' || c == '\r':
		return codeEnter, false, true
	case c == '\b':
		return codeBackspace, false, true
	case c >= 'A' && c <= 'Z':
		return makeCodes[c+('a'-'A')], true, true
	}

	if code = makeCodes[c]; code == 0 {
		return 0, false, false
	}
	return code, false, true
}
