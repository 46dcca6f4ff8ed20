package replica

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/gamemath"
	"github.com/apistol78/replica/shared/netconfig"
)

// BodyStateTemplate replicates a rigid body: position, orientation, linear
// and angular velocity in one contiguous block. Bodies update every physics
// tick, so the position and angle tolerances are what keep them off the wire.
type BodyStateTemplate struct {
	linearError  float32
	angularError float32
	extent       float32
	linearLimit  float32
	angularLimit float32
}

type BodyStateOption func(*BodyStateTemplate)

// WithBodyExtent overrides the position range.
func WithBodyExtent(extent float32) BodyStateOption {
	return func(t *BodyStateTemplate) { t.extent = extent }
}

// WithVelocityLimits overrides the linear and angular velocity ranges.
func WithVelocityLimits(linear, angular float32) BodyStateOption {
	return func(t *BodyStateTemplate) {
		t.linearLimit = linear
		t.angularLimit = angular
	}
}

func NewBodyStateTemplate(linearError, angularError float32, opts ...BodyStateOption) *BodyStateTemplate {
	t := &BodyStateTemplate{
		linearError:  linearError,
		angularError: angularError,
		extent:       netconfig.PositionExtent,
		linearLimit:  netconfig.LinearVelocityLimit,
		angularLimit: netconfig.AngularVelocityLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.extent <= 0 {
		t.extent = netconfig.PositionExtent
	}
	if t.linearLimit <= 0 {
		t.linearLimit = netconfig.LinearVelocityLimit
	}
	if t.angularLimit <= 0 {
		t.angularLimit = netconfig.AngularVelocityLimit
	}
	return t
}

func (t *BodyStateTemplate) LinearError() float32 { return t.linearError }

func (t *BodyStateTemplate) AngularError() float32 { return t.angularError }

func (t *BodyStateTemplate) Kind() Kind { return KindBodyState }

func (t *BodyStateTemplate) Bits() int {
	return positionBits + rotationBits + 6*int(netconfig.VelocityBits)
}

func (t *BodyStateTemplate) Pack(w bitstream.Writer, v Value) error {
	if err := checkKind(t, v); err != nil {
		return err
	}
	b := v.(BodyState)
	if err := packPosition(w, b.Transform.Position, t.extent); err != nil {
		return err
	}
	if err := packRotation(w, b.Transform.Rotation); err != nil {
		return err
	}
	if err := packVelocity(w, b.LinearVelocity, t.linearLimit); err != nil {
		return err
	}
	return packVelocity(w, b.AngularVelocity, t.angularLimit)
}

func (t *BodyStateTemplate) Unpack(r bitstream.Reader) (Value, error) {
	var b BodyState
	var err error
	if b.Transform.Position, err = unpackPosition(r, t.extent); err != nil {
		return nil, err
	}
	if b.Transform.Rotation, err = unpackRotation(r); err != nil {
		return nil, err
	}
	if b.LinearVelocity, err = unpackVelocity(r, t.linearLimit); err != nil {
		return nil, err
	}
	if b.AngularVelocity, err = unpackVelocity(r, t.angularLimit); err != nil {
		return nil, err
	}
	return b, nil
}

// Extrapolate reckons the position from the sample history and integrates
// the newest angular velocity for the orientation. Velocities are held.
func (t *BodyStateTemplate) Extrapolate(vn2 Value, tn2 float64, vn1 Value, tn1 float64, v0 Value, t0, tt float64) Value {
	b0 := must[BodyState](v0)
	if tt == t0 {
		return v0
	}
	out := b0
	dt := tt - t0
	if vn1 != nil {
		b1 := must[BodyState](vn1)
		var pn2 *mgl32.Vec4
		if vn2 != nil {
			p := must[BodyState](vn2).Transform.Position
			pn2 = &p
		}
		out.Transform.Position = reckonPosition(pn2, tn2, b1.Transform.Position, tn1, b0.Transform.Position, t0, tt)
	} else {
		// No history yet; trust the replicated velocity.
		out.Transform.Position = b0.Transform.Position.Add(b0.LinearVelocity.Mul(float32(dt)))
		out.Transform.Position[3] = b0.Transform.Position[3]
	}
	out.Transform.Rotation = gamemath.Integrate(b0.Transform.Rotation, b0.AngularVelocity.Vec3(), float32(dt))
	return out
}

// Threshold flags the body when either the position or the orientation has
// drifted past its tolerance.
func (t *BodyStateTemplate) Threshold(prev, cur Value, _ float64) bool {
	a, b := must[BodyState](prev), must[BodyState](cur)
	if a == b {
		return false
	}
	if b.Transform.Position.Vec3().Sub(a.Transform.Position.Vec3()).Len() > t.linearError {
		return true
	}
	return gamemath.QuatAngle(a.Transform.Rotation, b.Transform.Rotation) > t.angularError
}

func (t *BodyStateTemplate) Blend(a, b Value, k float32) Value {
	ba, bb := must[BodyState](a), must[BodyState](b)
	return BodyState{
		Transform:       blendTransform(ba.Transform, bb.Transform, k),
		LinearVelocity:  ba.LinearVelocity.Add(bb.LinearVelocity.Sub(ba.LinearVelocity).Mul(k)),
		AngularVelocity: ba.AngularVelocity.Add(bb.AngularVelocity.Sub(ba.AngularVelocity).Mul(k)),
	}
}

func (*BodyStateTemplate) template() {}
