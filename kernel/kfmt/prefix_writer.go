package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter tags every line written through it. The hal wraps each
// driver's init output in one so that boot messages read like
// "[hal] uart(0.0.1): port 0x3f8 at 38400 baud".
type PrefixWriter struct {
	// Sink receives the tagged output. While nil, output is kept in the
	// early output buffer.
	Sink io.Writer

	// Prefix is written before the first byte of every line.
	Prefix []byte

	midLine bool
}

// Write implements io.Writer. The returned count covers the bytes of p only,
// not the injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) > 0 {
		if !w.midLine {
			if _, err := w.sinkWrite(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		line := p
		if i := bytes.IndexByte(p, '\n'); i >= 0 {
			line = p[:i+1]
			w.midLine = false
		}

		n, err := w.sinkWrite(line)
		written += n
		if err != nil {
			return written, err
		}
		p = p[len(line):]
	}

	return written, nil
}

func (w *PrefixWriter) sinkWrite(p []byte) (int, error) {
	if w.Sink == nil {
		return earlyOutput.Write(p)
	}
	return w.Sink.Write(p)
}
