// Package tinycompress writes zlib streams made of stored DEFLATE blocks.
// The output is readable by any zlib inflater and needs no tables or
// hashing state, which keeps it cheap enough for firmware.
package tinycompress

import (
	"errors"
	"hash/adler32"
	"io"
)

const (
	// MaxBlock is the largest payload a stored DEFLATE block can carry.
	MaxBlock = 0xFFFF

	headerCMF = 0x78
	headerFLG = 0x01 // FCHECK for CMF 0x78, lowest compression level
)

var ErrClosed = errors.New("tinycompress: write to closed writer")

// Writer buffers everything written to it and emits the zlib stream on
// Close.
type Writer struct {
	output io.Writer
	buf    []byte
	closed bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{output: w}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close writes the header, the stored blocks and the Adler-32 trailer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_, err := w.output.Write(Compress(w.buf))
	return err
}

// Compress returns data wrapped as a zlib stream.
func Compress(data []byte) []byte {
	blocks := (len(data) + MaxBlock - 1) / MaxBlock
	if blocks == 0 {
		blocks = 1
	}
	out := make([]byte, 0, 2+blocks*5+len(data)+4)
	out = append(out, headerCMF, headerFLG)

	rest := data
	for {
		n := len(rest)
		final := byte(1)
		if n > MaxBlock {
			n = MaxBlock
			final = 0
		}
		out = append(out, final,
			byte(n), byte(n>>8),
			byte(^n), byte(^n>>8))
		out = append(out, rest[:n]...)
		rest = rest[n:]
		if final == 1 {
			break
		}
	}

	sum := adler32.Checksum(data)
	return append(out, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
}
