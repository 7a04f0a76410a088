package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize fits a 64-bit value in base 10.
const numBufSize = 24

const digits = "0123456789abcdef"

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errBadVerb      = []byte("%!(BADVERB)")
	errExtraArg     = []byte("%!(EXTRA)")

	numBuf  [numBufSize]byte
	byteBuf [1]byte

	// earlyOutput collects Printf output until a sink is attached.
	earlyOutput earlyBuffer

	// outputSink receives Printf output. While nil, output is kept in
	// earlyOutput.
	outputSink io.Writer
)

// SetOutputSink makes w the target of Printf and replays the output that
// was collected while no sink was attached.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		earlyOutput.WriteTo(w)
	}
}

// GetOutputSink returns the writer that Printf currently targets. A nil
// value means output is being collected for the next sink.
func GetOutputSink() io.Writer {
	return outputSink
}

// directive holds the flags and width of a single formatting directive.
type directive struct {
	width     int
	leftAlign bool
	zeroPad   bool
}

// pad writes the fill needed to grow a value of length n to the directive
// width.
func (d directive) pad(w io.Writer, n int, fill byte) {
	for ; n < d.width; n++ {
		writeByte(w, fill)
	}
}

// Printf writes formatted output to the active output sink. It does not
// allocate so it can be used before the Go allocator is up.
//
// Directives have the form %[flags][width]verb:
//
//	%s  string or byte slice
//	%d  signed or unsigned integer in base 10
//	%x  signed or unsigned integer in base 16 with lower-case letters
//	%%  a literal percent sign
//
// The '-' flag pads on the right instead of the left. The '0' flag pads
// integers with zeroes; %x always does. Arguments are never checked for
// fmt.Stringer since interface tables may not be set up yet.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf works like Printf but writes to w. A nil w targets the early
// output buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var argIndex int

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		var d directive
		for i++; i < len(format); i++ {
			if format[i] == '-' {
				d.leftAlign = true
			} else if format[i] == '0' {
				d.zeroPad = true
			} else {
				break
			}
		}
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			d.width = d.width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			doWrite(w, errNoVerb)
			break
		}

		verb := format[i]
		switch verb {
		case '%':
			writeByte(w, '%')
			continue
		case 's', 'd', 'x':
		default:
			doWrite(w, errBadVerb)
			continue
		}

		if argIndex == len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++
		switch verb {
		case 's':
			fmtString(w, arg, d)
		case 'd':
			fmtInt(w, arg, 10, d)
		case 'x':
			d.zeroPad = true
			fmtInt(w, arg, 16, d)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtString(w io.Writer, v interface{}, d directive) {
	var n int
	switch s := v.(type) {
	case string:
		n = len(s)
	case []byte:
		n = len(s)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if !d.leftAlign {
		d.pad(w, n, ' ')
	}
	switch s := v.(type) {
	case string:
		// Slicing the string into a []byte would allocate.
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		doWrite(w, s)
	}
	if d.leftAlign {
		d.pad(w, n, ' ')
	}
}

func fmtInt(w io.Writer, v interface{}, base uint64, d directive) {
	var (
		val int64
		u   uint64
	)

	switch t := v.(type) {
	case uint8:
		u = uint64(t)
	case uint16:
		u = uint64(t)
	case uint32:
		u = uint64(t)
	case uint64:
		u = t
	case uint:
		u = uint64(t)
	case uintptr:
		u = uint64(t)
	case int8:
		val = int64(t)
	case int16:
		val = int64(t)
	case int32:
		val = int64(t)
	case int64:
		val = t
	case int:
		val = int64(t)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	neg := val < 0
	switch {
	case neg:
		u = uint64(-val)
	case val > 0:
		u = uint64(val)
	}

	start := numBufSize
	for {
		start--
		numBuf[start] = digits[u%base]
		if u /= base; u == 0 {
			break
		}
	}

	n := numBufSize - start
	if neg {
		n++
	}

	switch {
	case d.leftAlign:
		if neg {
			writeByte(w, '-')
		}
		doWrite(w, numBuf[start:])
		d.pad(w, n, ' ')
	case d.zeroPad:
		if neg {
			writeByte(w, '-')
		}
		d.pad(w, n, '0')
		doWrite(w, numBuf[start:])
	default:
		d.pad(w, n, ' ')
		if neg {
			writeByte(w, '-')
		}
		doWrite(w, numBuf[start:])
	}
}

func writeByte(w io.Writer, b byte) {
	byteBuf[0] = b
	doWrite(w, byteBuf[:])
}

// doWrite hides p from escape analysis so that passing it through the
// io.Writer interface does not move it to the heap.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w == nil {
		earlyOutput.Write(p)
		return
	}
	w.Write(p)
}

// noEscape is the runtime's noescape helper.
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
