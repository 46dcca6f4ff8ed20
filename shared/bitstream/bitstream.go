// Package bitstream is the bit-level sink/source the replica codecs write to
// and read from. It is a thin layer over github.com/icza/bitio so that encoders
// can be handed either a real buffer or a counter.
package bitstream

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// Writer accepts the n lowest bits of r, most significant first.
type Writer interface {
	WriteBits(r uint64, n uint8) error
}

// Reader yields the next n bits of the stream. Running out of input returns
// io.EOF (or io.ErrUnexpectedEOF mid-byte, depending on the source).
type Reader interface {
	ReadBits(n uint8) (uint64, error)
}

func mask(r uint64, n uint8) uint64 {
	if n >= 64 {
		return r
	}
	return r & (1<<n - 1)
}

// Buffer is a growable bit sink backed by a byte buffer.
type Buffer struct {
	buf    bytes.Buffer
	w      *bitio.Writer
	bits   int
	closed bool
}

func NewBuffer() *Buffer {
	b := &Buffer{}
	b.w = bitio.NewWriter(&b.buf)
	return b
}

func (b *Buffer) WriteBits(r uint64, n uint8) error {
	if b.closed {
		return fmt.Errorf("bitstream: write after Bytes")
	}
	if err := b.w.WriteBits(mask(r, n), n); err != nil {
		return err
	}
	b.bits += int(n)
	return nil
}

// Len returns the number of bits written so far.
func (b *Buffer) Len() int {
	return b.bits
}

// Bytes flushes the trailing partial byte (zero padded) and returns the
// encoded stream. The buffer cannot be written to afterwards.
func (b *Buffer) Bytes() ([]byte, error) {
	if !b.closed {
		if err := b.w.Close(); err != nil {
			return nil, fmt.Errorf("bitstream: flush: %w", err)
		}
		b.closed = true
	}
	return b.buf.Bytes(), nil
}

// NewReader returns a bit source over p.
func NewReader(p []byte) *bitio.Reader {
	return bitio.NewReader(bytes.NewReader(p))
}

// Counter is a Writer that discards its input and only counts bits. The
// replicator uses it to size an update before committing to it.
type Counter struct {
	bits int
}

func (c *Counter) WriteBits(_ uint64, n uint8) error {
	c.bits += int(n)
	return nil
}

func (c *Counter) Len() int {
	return c.bits
}

func (c *Counter) Reset() {
	c.bits = 0
}
