// Package shell implements the interactive command shell: a line editor fed
// by decoded scan codes, a command dispatcher and the loop that ties them to
// the console.
package shell

import (
	"spudos/device/keyboard"
	"spudos/device/rtc"
)

// KeySource supplies raw scan code bytes. Poll blocks until a byte is
// available.
type KeySource interface {
	Poll() byte
}

// State describes what the shell loop is doing.
type State uint8

const (
	// StateAwaitingKey means the shell is waiting for the next scan code.
	StateAwaitingKey State = iota

	// StateEditing means a decoded event is being applied to the line.
	StateEditing

	// StateDispatching means a submitted line is being executed.
	StateDispatching
)

// String implements fmt.Stringer for State.
func (s State) String() string {
	switch s {
	case StateAwaitingKey:
		return "awaiting key"
	case StateEditing:
		return "editing"
	default:
		return "dispatching"
	}
}

// Shell ties a key source, a line editor and a dispatcher to a console.
type Shell struct {
	cfg  Config
	cons *Console
	keys KeySource

	decoder    keyboard.Decoder
	editor     *LineEditor
	dispatcher *Dispatcher
	state      State
}

// New creates a shell that reads scan codes from keys and runs the
// commands in table.
func New(cfg Config, cons *Console, keys KeySource, table *CommandTable) *Shell {
	s := &Shell{
		cfg:  cfg,
		cons: cons,
		keys: keys,
	}
	s.editor = NewLineEditor(cfg.LineCapacity, cfg.PromptBoundary(), cons)
	s.dispatcher = NewDispatcher(table, cons)

	if cfg.Serial {
		cons.Redirect(true)
	}

	return s
}

// State returns the current state of the shell loop.
func (s *Shell) State() State {
	return s.state
}

// Editor returns the line editor used by the shell.
func (s *Shell) Editor() *LineEditor {
	return s.editor
}

// Step feeds one scan code through the decoder and the line editor. If the
// byte completes a line, the line is dispatched and the prompt printed again.
func (s *Shell) Step(raw byte) Status {
	s.state = StateEditing
	line, submitted := s.editor.Feed(s.decoder.Decode(raw))
	if !submitted {
		s.state = StateAwaitingKey
		return StatusContinue
	}

	s.state = StateDispatching
	_ = s.cons.WriteByte('\n')
	status := s.dispatcher.Dispatch(line)
	s.state = StateAwaitingKey
	if status == StatusExit {
		return status
	}

	s.Prompt()
	return StatusContinue
}

// Run polls the key source and steps the shell until a command returns
// StatusExit.
func (s *Shell) Run() {
	for {
		s.state = StateAwaitingKey
		if s.Step(s.keys.Poll()) == StatusExit {
			return
		}
	}
}

// Prompt prints the prompt on a fresh line.
func (s *Shell) Prompt() {
	if s.cons.Column() != 0 {
		_ = s.cons.WriteByte('\n')
	}

	s.cons.SetAttribute(s.cfg.PromptAttr.Fg, s.cfg.PromptAttr.Bg)
	s.cons.Print(s.cfg.Prompt())
	s.cons.SetAttribute(s.cfg.TextAttr.Fg, s.cfg.TextAttr.Bg)
}

// Banner prints the welcome message and the login line followed by the
// first prompt.
func (s *Shell) Banner(login rtc.DateTime) {
	s.cons.SetAttribute(s.cfg.TextAttr.Fg, s.cfg.TextAttr.Bg)
	s.cons.Printf("Welcome to %s %s!\n", s.cfg.OSName, s.cfg.Version)
	s.cons.Printf("Logged in as %s@%s on ", s.cfg.Username, s.cfg.Hostname)
	printDate(s.cons, login)
	s.cons.Print(" at ")
	printTime(s.cons, login)
	_ = s.cons.WriteByte('\n')
	s.Prompt()
}

func printDate(term Terminal, t rtc.DateTime) {
	term.Printf("%d/%d/%d", t.Month, t.Day, t.Year)
}

// printTime prints t as H:MM using the 24-hour clock.
func printTime(term Terminal, t rtc.DateTime) {
	term.Printf("%d:%02d", t.Hour, t.Minute)
}
