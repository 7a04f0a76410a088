package kfmt

import "io"

// earlyBufferSize fits one 80x25 screen of text.
const earlyBufferSize = 80 * 25

// earlyBuffer keeps the most recent output written before a sink exists.
// Once full, every new byte evicts the oldest one.
type earlyBuffer struct {
	data [earlyBufferSize]byte

	// head indexes the oldest byte; len counts the buffered bytes.
	head, len int
}

// Write implements io.Writer. It never fails.
func (b *earlyBuffer) Write(p []byte) (int, error) {
	for _, c := range p {
		b.data[(b.head+b.len)%earlyBufferSize] = c
		if b.len < earlyBufferSize {
			b.len++
			continue
		}
		b.head = (b.head + 1) % earlyBufferSize
	}
	return len(p), nil
}

// WriteTo drains the buffer into w, oldest bytes first. Bytes that w did not
// accept stay buffered.
func (b *earlyBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for b.len > 0 {
		chunk := earlyBufferSize - b.head
		if chunk > b.len {
			chunk = b.len
		}

		n, err := w.Write(b.data[b.head : b.head+chunk])
		total += int64(n)
		b.head = (b.head + n) % earlyBufferSize
		b.len -= n

		switch {
		case err != nil:
			return total, err
		case n < chunk:
			return total, io.ErrShortWrite
		}
	}

	b.head = 0
	return total, nil
}
