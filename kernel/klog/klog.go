// Package klog implements the kernel event log. Every entry is tagged with the
// subsystem that produced it and consecutive identical entries are collapsed
// into a single entry with a repeat counter. The log keeps a bounded number of
// entries, discarding the oldest ones when full.
package klog

import (
	"io"
	"strings"

	"spudos/kernel/kfmt"
)

// DefaultCapacity is the number of entries retained by the default log.
const DefaultCapacity = 256

// State describes the progress of a task recorded via Task.
type State uint8

const (
	// StateWait indicates that a task has started.
	StateWait State = iota

	// StateOkay indicates that a task completed successfully.
	StateOkay

	// StateFail indicates that a task failed.
	StateFail
)

// String implements fmt.Stringer for State.
func (s State) String() string {
	switch s {
	case StateWait:
		return "WAIT"
	case StateOkay:
		return "OKAY"
	default:
		return "FAIL"
	}
}

// color returns the VGA foreground color used when printing the state.
func (s State) color() uint8 {
	switch s {
	case StateWait:
		return 14 // yellow
	case StateOkay:
		return 10 // light green
	default:
		return 12 // light red
	}
}

// Attributer is implemented by writers that support changing the text color
// of subsequent output. Task uses it to color status lines when available.
type Attributer interface {
	SetAttribute(fg, bg uint8)
	Attribute() (fg, bg uint8)
}

// Entry is a single event log record.
type Entry struct {
	Tag      string
	Detail   string
	Repeated int
}

// String returns the entry as it is listed by Write and Tail.
func (e Entry) String() string {
	var sb strings.Builder
	e.writeTo(&sb)
	return sb.String()
}

func (e Entry) writeTo(w io.Writer) {
	if e.Repeated > 0 {
		kfmt.Fprintf(w, "%s: %s (repeat x%d)\n", e.Tag, e.Detail, e.Repeated+1)
		return
	}
	kfmt.Fprintf(w, "%s: %s\n", e.Tag, e.Detail)
}

// EventLog is a bounded, repeat-collapsing event log.
type EventLog struct {
	maxEntries int
	entries    []Entry

	// out receives task status lines. Status lines are suppressed while
	// out is nil.
	out io.Writer
}

// New returns a log that retains up to maxEntries entries.
func New(maxEntries int) *EventLog {
	if maxEntries <= 0 {
		maxEntries = DefaultCapacity
	}

	return &EventLog{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, 16),
	}
}

// SetOutput sets the writer that receives task status lines.
func (l *EventLog) SetOutput(w io.Writer) {
	l.out = w
}

// Log appends an entry. If the last entry has the same tag and detail, its
// repeat counter is incremented instead.
func (l *EventLog) Log(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	if n := len(l.entries); n > 0 {
		if last := &l.entries[n-1]; last.Tag == tag && last.Detail == detail {
			last.Repeated++
			return
		}
	}

	l.entries = append(l.entries, Entry{Tag: tag, Detail: detail})
	if len(l.entries) > l.maxEntries {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.maxEntries:]...)
	}
}

// Logf formats detail with the kfmt verbs and appends it to the log.
func (l *EventLog) Logf(tag, format string, args ...interface{}) {
	var sb strings.Builder
	kfmt.Fprintf(&sb, format, args...)
	l.Log(tag, sb.String())
}

// Task records the state of a named task. When an output writer is set, Task
// also prints the task name on a new line followed by the state at column 75.
func (l *EventLog) Task(name string, state State) {
	l.Log(state.String(), name)

	if l.out == nil {
		return
	}

	attr, hasAttr := l.out.(Attributer)
	var origFg, origBg uint8
	if hasAttr {
		origFg, origBg = attr.Attribute()
		attr.SetAttribute(7, origBg)
	}

	// The state starts at column 75, or one space after a longer name.
	kfmt.Fprintf(l.out, "\n%-74s ", name)

	if hasAttr {
		attr.SetAttribute(state.color(), origBg)
	}
	io.WriteString(l.out, state.String())

	if hasAttr {
		attr.SetAttribute(origFg, origBg)
	}
}

// Write lists all entries to w. It returns false if the log is empty.
func (l *EventLog) Write(w io.Writer) bool {
	return l.Tail(w, len(l.entries))
}

// Tail lists the last n entries to w. Negative values of n list nothing. It
// returns false if the log is empty.
func (l *EventLog) Tail(w io.Writer, n int) bool {
	switch {
	case n < 0:
		n = 0
	case n > len(l.entries):
		n = len(l.entries)
	}
	for _, e := range l.entries[len(l.entries)-n:] {
		e.writeTo(w)
	}
	return len(l.entries) != 0
}

// Clear removes all entries.
func (l *EventLog) Clear() {
	l.entries = l.entries[:0]
}
