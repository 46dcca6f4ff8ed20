package bitstream

import (
	"errors"
	"io"
	"testing"
)

func TestBuffer_RoundTrip(t *testing.T) {
	fields := []struct {
		v uint64
		n uint8
	}{
		{1, 1}, {0, 1}, {0xAB, 8}, {0x1234, 16}, {0x5, 3}, {0xFFFFFF, 24},
	}

	b := NewBuffer()
	total := 0
	for _, f := range fields {
		if err := b.WriteBits(f.v, f.n); err != nil {
			t.Fatalf("WriteBits: %v", err)
		}
		total += int(f.n)
	}
	if b.Len() != total {
		t.Fatalf("Len = %d, want %d", b.Len(), total)
	}

	p, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if want := (total + 7) / 8; len(p) != want {
		t.Fatalf("len(bytes) = %d, want %d", len(p), want)
	}

	r := NewReader(p)
	for i, f := range fields {
		got, err := r.ReadBits(f.n)
		if err != nil {
			t.Fatalf("field %d: ReadBits: %v", i, err)
		}
		if got != f.v {
			t.Fatalf("field %d: got %#x want %#x", i, got, f.v)
		}
	}
}

func TestBuffer_MasksHighBits(t *testing.T) {
	b := NewBuffer()
	if err := b.WriteBits(0xFF, 4); err != nil {
		t.Fatalf("WriteBits: %v", err)
	}
	if err := b.WriteBits(0x0, 4); err != nil {
		t.Fatalf("WriteBits: %v", err)
	}
	p, _ := b.Bytes()
	if len(p) != 1 || p[0] != 0xF0 {
		t.Fatalf("bytes = %x, want f0", p)
	}
}

func TestBuffer_WriteAfterBytes(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Bytes()
	if err := b.WriteBits(1, 1); err == nil {
		t.Fatalf("expected error writing after Bytes")
	}
}

func TestReader_Exhausted(t *testing.T) {
	r := NewReader([]byte{0xAA})
	if _, err := r.ReadBits(8); err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	_, err := r.ReadBits(8)
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestCounter(t *testing.T) {
	var c Counter
	_ = c.WriteBits(0, 16)
	_ = c.WriteBits(1, 1)
	if c.Len() != 17 {
		t.Fatalf("Len = %d, want 17", c.Len())
	}
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("Len after Reset = %d", c.Len())
	}
}
