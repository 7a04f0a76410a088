// Package termkbd turns tcell key events into PS/2 scan code set 1 bytes so
// the keyboard decoder sees the same input stream it would on real hardware.
package termkbd

import (
	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/encoding/charmap"

	"spudos/device/keyboard"
)

const (
	codeLeftShift = 0x2a
	breakBit      = 0x80
)

// Keyboard is a blocking scan code source backed by a tcell screen.
type Keyboard struct {
	screen      tcell.Screen
	onInterrupt func()
	pending     []byte
}

// New creates a keyboard that reads events from screen. onInterrupt is
// invoked when the user presses Ctrl-C or the screen is finalized; it is
// expected to terminate the program.
func New(screen tcell.Screen, onInterrupt func()) *Keyboard {
	return &Keyboard{screen: screen, onInterrupt: onInterrupt}
}

// Poll returns the next scan code byte, blocking until a key is pressed.
// Pending screen updates are flushed before waiting.
func (k *Keyboard) Poll() byte {
	for len(k.pending) == 0 {
		k.screen.Show()

		ev := k.screen.PollEvent()
		if ev == nil {
			k.interrupt()
			select {}
		}

		keyEv, ok := ev.(*tcell.EventKey)
		if !ok {
			if _, resized := ev.(*tcell.EventResize); resized {
				k.screen.Sync()
			}
			continue
		}

		if keyEv.Key() == tcell.KeyCtrlC {
			k.interrupt()
			continue
		}
		k.pending = append(k.pending, Translate(keyEv)...)
	}

	b := k.pending[0]
	k.pending = k.pending[1:]
	return b
}

func (k *Keyboard) interrupt() {
	if k.onInterrupt != nil {
		k.onInterrupt()
	}
}

// Translate returns the make and break codes that a US PS/2 keyboard sends
// for ev. Keys without a scan code set 1 equivalent yield nil.
func Translate(ev *tcell.EventKey) []byte {
	switch ev.Key() {
	case tcell.KeyEnter:
		return press('\n')
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return press('\b')
	case tcell.KeyRune:
		if b, ok := charmap.CodePage437.EncodeRune(ev.Rune()); ok {
			return press(b)
		}
	}

	return nil
}

// press returns the codes for pressing and releasing the key that types c.
// Shifted characters are wrapped in left shift make and break codes.
func press(c byte) []byte {
	code, shift, ok := keyboard.MakeCode(c)
	if !ok {
		return nil
	}

	if shift {
		return []byte{codeLeftShift, code, code | breakBit, codeLeftShift | breakBit}
	}
	return []byte{code, code | breakBit}
}
