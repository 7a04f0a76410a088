package shell

import "strings"

// Status is returned by command handlers to tell the shell whether to keep
// running.
type Status uint8

const (
	// StatusContinue keeps the shell loop running.
	StatusContinue Status = iota

	// StatusExit stops the shell loop.
	StatusExit
)

// Handler runs a command. The line argument holds the full input line and
// args holds the whitespace-separated tokens following the command name.
type Handler func(term Terminal, line string, args []string) Status

// Command describes a shell command.
type Command struct {
	Name string
	Help string

	// TakesArgs allows the command to match lines that start with the
	// command name followed by a space.
	TakesArgs bool

	Handler Handler
}

// CommandTable is an ordered, immutable set of commands.
type CommandTable struct {
	cmds []Command
}

// NewCommandTable creates a table containing cmds in the given order.
func NewCommandTable(cmds ...Command) *CommandTable {
	t := &CommandTable{cmds: make([]Command, len(cmds))}
	copy(t.cmds, cmds)
	return t
}

// Commands returns a copy of the table entries in insertion order.
func (t *CommandTable) Commands() []Command {
	out := make([]Command, len(t.cmds))
	copy(out, t.cmds)
	return out
}

// Lookup finds the command that handles line. An exact name match is tried
// first; if none is found, commands that take arguments match lines starting
// with their name followed by a space. When several entries match, the one
// registered first wins. Lookup also returns the part of the line following
// the command name.
func (t *CommandTable) Lookup(line string) (*Command, string, bool) {
	for i := range t.cmds {
		if t.cmds[i].Name == line {
			return &t.cmds[i], "", true
		}
	}

	for i := range t.cmds {
		cmd := &t.cmds[i]
		if !cmd.TakesArgs {
			continue
		}
		if prefix := cmd.Name + " "; strings.HasPrefix(line, prefix) {
			return cmd, line[len(prefix):], true
		}
	}

	return nil, "", false
}

// Dispatcher runs submitted lines against a command table.
type Dispatcher struct {
	table *CommandTable
	term  Terminal
}

// NewDispatcher creates a dispatcher whose handlers write to term.
func NewDispatcher(table *CommandTable, term Terminal) *Dispatcher {
	return &Dispatcher{table: table, term: term}
}

// Dispatch runs the command matching line. Empty lines are ignored and
// unknown commands are reported to the terminal.
func (d *Dispatcher) Dispatch(line string) Status {
	if line == "" {
		return StatusContinue
	}

	cmd, rest, ok := d.table.Lookup(line)
	if !ok {
		d.term.Printf("'%s' unknown command or file name.\n", line)
		return StatusContinue
	}

	if cmd.Handler == nil {
		return StatusContinue
	}
	return cmd.Handler(d.term, line, strings.Fields(rest))
}
