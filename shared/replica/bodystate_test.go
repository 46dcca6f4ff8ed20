package replica

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/apistol78/replica/shared/gamemath"
)

func body(pos mgl32.Vec3, rot mgl32.Quat, lin, ang mgl32.Vec3) BodyState {
	return BodyState{
		Transform:       Transform{Position: pos.Vec4(1), Rotation: rot},
		LinearVelocity:  lin.Vec4(0),
		AngularVelocity: ang.Vec4(0),
	}
}

func TestBodyState_RoundTrip(t *testing.T) {
	tmpl := NewBodyStateTemplate(0.05, 0.01)
	if tmpl.Bits() != 215 {
		t.Fatalf("Bits = %d, want 215", tmpl.Bits())
	}
	in := body(
		mgl32.Vec3{12.5, -300.25, 7},
		mgl32.QuatRotate(1.1, mgl32.Vec3{0.3, 1, -0.2}.Normalize()),
		mgl32.Vec3{3, -9.81, 0.5},
		mgl32.Vec3{0, 2, -1},
	)
	got := roundTrip(t, tmpl, in).(BodyState)

	if d := got.Transform.Position.Vec3().Sub(in.Transform.Position.Vec3()).Len(); d > 1e-3 {
		t.Fatalf("position error %g", d)
	}
	if got.Transform.Position[3] != 1 {
		t.Fatalf("position w = %f, want 1", got.Transform.Position[3])
	}
	if a := gamemath.QuatAngle(got.Transform.Rotation, in.Transform.Rotation); a > 5e-4 {
		t.Fatalf("rotation error %g rad", a)
	}
	if d := got.LinearVelocity.Sub(in.LinearVelocity).Len(); d > 0.01 {
		t.Fatalf("linear velocity error %g", d)
	}
	if d := got.AngularVelocity.Sub(in.AngularVelocity).Len(); d > 0.01 {
		t.Fatalf("angular velocity error %g", d)
	}

	// A round-tripped body is within tolerance of the original.
	if tmpl.Threshold(in, got, 0) {
		t.Fatalf("quantization error exceeds threshold tolerances")
	}
}

func TestBodyState_ThresholdIsOr(t *testing.T) {
	tmpl := NewBodyStateTemplate(0.05, 0.01)
	axis := mgl32.Vec3{0, 1, 0}
	prev := body(mgl32.Vec3{0, 0, 0}, mgl32.QuatIdent(), mgl32.Vec3{}, mgl32.Vec3{})

	cases := []struct {
		name  string
		dpos  float32
		angle float32
		want  bool
	}{
		{"identical", 0, 0, false},
		{"both below", 0.04, 0.005, false},
		{"position above", 0.06, 0, true},
		{"angle above, position below", 0.04, 0.02, true},
		{"both above", 0.2, 0.2, true},
	}
	for _, tc := range cases {
		cur := body(mgl32.Vec3{tc.dpos, 0, 0}, mgl32.QuatRotate(tc.angle, axis), mgl32.Vec3{}, mgl32.Vec3{})
		if got := tmpl.Threshold(prev, cur, 0); got != tc.want {
			t.Errorf("%s: Threshold = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBodyState_Extrapolate(t *testing.T) {
	tmpl := NewBodyStateTemplate(0.05, 0.01)
	omega := mgl32.Vec3{0, 0, 1.5}
	vel := mgl32.Vec3{2, 0, -1}
	sample := func(tt float32) BodyState {
		return body(vel.Mul(tt), mgl32.QuatRotate(1.5*tt, mgl32.Vec3{0, 0, 1}), vel, omega)
	}

	v0 := sample(0.2)
	if got := tmpl.Extrapolate(sample(0), 0, sample(0.1), 0.1, v0, 0.2, 0.2); got != v0 {
		t.Fatalf("identity: got %v want %v", got, v0)
	}

	got := tmpl.Extrapolate(sample(0), 0, sample(0.1), 0.1, v0, 0.2, 0.3).(BodyState)
	want := sample(0.3)
	if d := got.Transform.Position.Vec3().Sub(want.Transform.Position.Vec3()).Len(); d > 1e-4 {
		t.Fatalf("position error %g", d)
	}
	if a := gamemath.QuatAngle(got.Transform.Rotation, want.Transform.Rotation); a > 0.01 {
		t.Fatalf("orientation error %g rad", a)
	}
	if got.LinearVelocity != v0.LinearVelocity || got.AngularVelocity != v0.AngularVelocity {
		t.Fatalf("velocities should be held")
	}

	// With a single sample the replicated velocity drives the position.
	single := tmpl.Extrapolate(nil, 0, nil, 0, v0, 0.2, 0.3).(BodyState)
	if d := single.Transform.Position.Vec3().Sub(want.Transform.Position.Vec3()).Len(); d > 1e-4 {
		t.Fatalf("single-sample position error %g", d)
	}
}

func TestTransform_RoundTripAndExtrapolate(t *testing.T) {
	tmpl := NewTransformTemplate(0)
	if tmpl.Bits() != 119 {
		t.Fatalf("Bits = %d, want 119", tmpl.Bits())
	}
	in := Transform{Position: mgl32.Vec4{1, 2, 3, 1}, Rotation: mgl32.QuatRotate(0.7, mgl32.Vec3{1, 0, 0})}
	got := roundTrip(t, tmpl, in).(Transform)
	if d := got.Position.Vec3().Sub(in.Position.Vec3()).Len(); d > 1e-3 {
		t.Fatalf("position error %g", d)
	}
	if a := gamemath.QuatAngle(in.Rotation, got.Rotation); a > 5e-4 {
		t.Fatalf("rotation error %g rad", a)
	}
	if tmpl.Threshold(in, in, 0) {
		t.Fatalf("identical transforms flagged")
	}

	at := func(tt float32) Transform {
		return Transform{
			Position: mgl32.Vec4{tt, 0, 0, 1},
			Rotation: mgl32.QuatRotate(tt, mgl32.Vec3{0, 1, 0}),
		}
	}
	pred := tmpl.Extrapolate(at(0), 0, at(0.1), 0.1, at(0.2), 0.2, 0.25).(Transform)
	if d := abs32(pred.Position[0] - 0.25); d > 1e-4 {
		t.Fatalf("position error %g", d)
	}
	if a := gamemath.QuatAngle(pred.Rotation, at(0.25).Rotation); a > 1e-3 {
		t.Fatalf("orientation error %g rad", a)
	}
}
