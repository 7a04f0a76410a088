package termkbd

import (
	"bytes"
	"testing"

	"github.com/gdamore/tcell/v2"

	"spudos/device/keyboard"
)

func TestTranslate(t *testing.T) {
	specs := []struct {
		key tcell.Key
		ch  rune
		exp []byte
	}{
		{tcell.KeyRune, 'a', []byte{0x1e, 0x9e}},
		{tcell.KeyRune, '9', []byte{0x0a, 0x8a}},
		{tcell.KeyRune, ' ', []byte{0x39, 0xb9}},
		{tcell.KeyRune, 'H', []byte{0x2a, 0x23, 0xa3, 0xaa}},
		{tcell.KeyEnter, 0, []byte{0x1c, 0x9c}},
		{tcell.KeyBackspace2, 0, []byte{0x0e, 0x8e}},
		{tcell.KeyRune, 'é', nil},
		{tcell.KeyRune, '☃', nil},
		{tcell.KeyF1, 0, nil},
	}

	for specIndex, spec := range specs {
		got := Translate(tcell.NewEventKey(spec.key, spec.ch, tcell.ModNone))
		if !bytes.Equal(got, spec.exp) {
			t.Errorf("[spec %d] expected codes %x; got %x", specIndex, spec.exp, got)
		}
	}
}

func newTestKeyboard(t *testing.T, onInterrupt func()) (*Keyboard, tcell.Screen) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)

	return New(screen, onInterrupt), screen
}

func TestPollFeedsDecoder(t *testing.T) {
	kbd, screen := newTestKeyboard(t, nil)

	for _, r := range "Hi" {
		if err := screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)); err != nil {
			t.Fatal(err)
		}
	}
	if err := screen.PostEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)); err != nil {
		t.Fatal(err)
	}

	var (
		dec  keyboard.Decoder
		line []byte
	)
	for {
		ev := dec.Decode(kbd.Poll())
		if ev.Kind == keyboard.KeySubmit {
			break
		}
		if ev.Kind == keyboard.KeyCharacter {
			line = append(line, ev.Char)
		}
	}

	// A lower-case 'i' shows that shift was released after the 'H'.
	if string(line) != "Hi" {
		t.Fatalf("expected decoded line %q; got %q", "Hi", line)
	}
}

func TestPollInterrupt(t *testing.T) {
	var interrupts int
	kbd, screen := newTestKeyboard(t, func() { interrupts++ })

	if err := screen.PostEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)); err != nil {
		t.Fatal(err)
	}
	if err := screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)); err != nil {
		t.Fatal(err)
	}

	if got := kbd.Poll(); got != 0x1e {
		t.Fatalf("expected make code 0x1e; got 0x%x", got)
	}
	if interrupts != 1 {
		t.Fatalf("expected one interrupt; got %d", interrupts)
	}
}
