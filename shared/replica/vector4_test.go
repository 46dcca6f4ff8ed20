package replica

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestVector4_FixedWOmitted(t *testing.T) {
	fixed := NewVector4Template(false, WithFixedW(1))
	free := NewVector4Template(false)
	if fixed.Bits() != 48 {
		t.Fatalf("fixed w: Bits = %d, want 48", fixed.Bits())
	}
	if free.Bits() != 64 {
		t.Fatalf("free w: Bits = %d, want 64", free.Bits())
	}
	if low := NewVector4Template(true, WithFixedW(0)); low.Bits() != 24 {
		t.Fatalf("low precision fixed w: Bits = %d, want 24", low.Bits())
	}

	got := roundTrip(t, fixed, Vector4{1, 2, 3, 7}).(Vector4)
	if got[3] != 1 {
		t.Fatalf("w = %f, want fixed 1", got[3])
	}
}

func TestVector4_RoundTripWithinStep(t *testing.T) {
	for _, tmpl := range []*Vector4Template{
		NewVector4Template(false),
		NewVector4Template(true, WithFixedW(1)),
		NewDirectionTemplate(false, WithFixedW(0)),
		NewDirectionTemplate(true),
	} {
		step := tmpl.Step()
		e := tmpl.Extent()
		for _, in := range []Vector4{
			{0, 0, 0, 0},
			{e, -e, e / 3, -e / 7},
			{e * 0.123, e * 0.456, -e * 0.789, e * 0.5},
		} {
			got := roundTrip(t, tmpl, in).(Vector4)
			for i := 0; i < tmpl.components(); i++ {
				if d := abs32(got[i] - in[i]); d > step {
					t.Fatalf("extent=%f comp %d: in=%f got=%f step=%g", e, i, in[i], got[i], step)
				}
			}
		}
	}
}

func TestVector4_DirectionsAreFiner(t *testing.T) {
	if NewDirectionTemplate(false).Step() >= NewVector4Template(false).Step() {
		t.Fatalf("direction step should be smaller than position step")
	}
}

func TestVector4_Clamps(t *testing.T) {
	tmpl := NewDirectionTemplate(true, WithFixedW(0))
	a := encode(t, tmpl, Vector4{5, -5, 0.5, 0})
	b := encode(t, tmpl, Vector4{1, -1, 0.5, 0})
	if string(a) != string(b) {
		t.Fatalf("out-of-range components not clamped")
	}
}

func TestVector4_Extrapolate(t *testing.T) {
	tmpl := NewVector4Template(false, WithFixedW(1))
	vel := mgl32.Vec4{1, -2, 0.5, 0}
	at := func(tt float32) Vector4 {
		return Vector4(mgl32.Vec4{10, 20, 30, 1}.Add(vel.Mul(tt)))
	}

	v0 := at(0.2)
	if got := tmpl.Extrapolate(at(0), 0, at(0.1), 0.1, v0, 0.2, 0.2); got != v0 {
		t.Fatalf("identity: got %v want %v", got, v0)
	}

	for _, tt := range []float64{0.15, 0.3, 0.5, 1.2} {
		got := tmpl.Extrapolate(at(0), 0, at(0.1), 0.1, v0, 0.2, tt).(Vector4)
		want := at(float32(tt))
		for i := 0; i < 3; i++ {
			if abs32(got[i]-want[i]) > 1e-3 {
				t.Fatalf("t=%f comp %d: got %f want %f", tt, i, got[i], want[i])
			}
		}
		if got[3] != 1 {
			t.Fatalf("fixed w extrapolated to %f", got[3])
		}
	}
}

func TestVector4_Threshold(t *testing.T) {
	tmpl := NewVector4Template(false, WithFixedW(1))
	v := Vector4{1, 2, 3, 1}
	if tmpl.Threshold(v, v, 0) {
		t.Fatalf("identical samples flagged")
	}
	if tmpl.Threshold(v, Vector4{1, 2, 3, 99}, 0) {
		t.Fatalf("fixed w change flagged")
	}
	if !tmpl.Threshold(v, Vector4{1, 2, 3 + 2*tmpl.Step(), 1}, 0) {
		t.Fatalf("z change not flagged")
	}
	if tmpl.Threshold(v, Vector4{1 + tmpl.Step()/4, 2, 3, 1}, 0) {
		t.Fatalf("sub-step change flagged")
	}
}

func TestVector4_Blend(t *testing.T) {
	tmpl := NewVector4Template(false)
	got := tmpl.Blend(Vector4{0, 0, 0, 0}, Vector4{2, 4, 6, 8}, 0.5).(Vector4)
	if got != (Vector4{1, 2, 3, 4}) {
		t.Fatalf("Blend = %v", got)
	}
}
