package replica

import (
	"errors"
	"testing"
)

func TestState_PackUnpackSequence(t *testing.T) {
	s := &State{}
	s.PackBegin()
	s.Pack(Boolean(true))
	s.Pack(Float(0.5))
	s.Pack(Vector4{1, 2, 3, 1})

	s.UnpackBegin()
	for i, want := range []Value{Boolean(true), Float(0.5), Vector4{1, 2, 3, 1}} {
		got, err := s.Unpack()
		if err != nil {
			t.Fatalf("Unpack %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("Unpack %d = %v, want %v", i, got, want)
		}
	}
	if _, err := s.Unpack(); !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}

	s.UnpackBegin()
	if v, _ := s.Unpack(); v != Boolean(true) {
		t.Fatalf("UnpackBegin did not rewind")
	}
}

func TestState_PackBeginKeepsEarlierViews(t *testing.T) {
	s := NewState(Float(1), Float(2))
	clone := s.Clone()
	values := s.Values()

	s.PackBegin()
	s.Pack(Float(9))

	if clone.Len() != 2 || clone.At(0) != Float(1) {
		t.Fatalf("clone changed after PackBegin: %v", clone.Values())
	}
	if values[0] != Float(1) {
		t.Fatalf("values copy changed after PackBegin")
	}
	if s.Len() != 1 || s.At(0) != Float(9) {
		t.Fatalf("state = %v, want [9]", s.Values())
	}
}

func TestAs(t *testing.T) {
	var v Value = Float(2)
	f, err := As[Float](v)
	if err != nil || f != 2 {
		t.Fatalf("As[Float] = %v, %v", f, err)
	}
	if _, err := As[Boolean](v); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := As[Vector4](nil); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for nil, got %v", err)
	}

	// Interface targets have a nil zero value.
	if got, err := As[Value](v); err != nil || got != v {
		t.Fatalf("As[Value] = %v, %v", got, err)
	}
	if _, err := As[Value](nil); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("As[Value](nil): expected ErrTypeMismatch, got %v", err)
	}
}

func TestMask(t *testing.T) {
	m := Mask(0).With(1).With(3)
	if !m.Has(1) || !m.Has(3) || m.Has(0) || m.Has(2) {
		t.Fatalf("Has misbehaves for %b", m)
	}
	if m.Count() != 2 {
		t.Fatalf("Count = %d, want 2", m.Count())
	}
	if p := m.Pattern(4); p != "0101" {
		t.Fatalf("Pattern = %q, want 0101", p)
	}
	if FullMask(3) != 0b111 || FullMask(64) != ^Mask(0) {
		t.Fatalf("FullMask misbehaves")
	}
}
