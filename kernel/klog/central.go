package klog

import "io"

// central is the log shared by the kernel. Drivers, the hal and the shell
// record their events here and the le command lists them.
var central = New(DefaultCapacity)

// SetOutput sets the writer that receives task status lines from the central
// log.
func SetOutput(w io.Writer) {
	central.SetOutput(w)
}

// Log adds an entry to the central log.
func Log(tag, detail string) {
	central.Log(tag, detail)
}

// Logf adds a formatted entry to the central log.
func Logf(tag, format string, args ...interface{}) {
	central.Logf(tag, format, args...)
}

// Task records a task state in the central log.
func Task(name string, state State) {
	central.Task(name, state)
}

// Write lists the central log to w. It returns false if the log is empty.
func Write(w io.Writer) bool {
	return central.Write(w)
}

// Tail lists the last n entries of the central log to w. It returns false if
// the log is empty.
func Tail(w io.Writer, n int) bool {
	return central.Tail(w, n)
}

// Clear empties the central log.
func Clear() {
	central.Clear()
}
