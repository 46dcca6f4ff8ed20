package replica

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/gamemath"
	"github.com/apistol78/replica/shared/netconfig"
)

// TransformTemplate replicates a pose: three 24-bit position components over
// [-extent, extent] and a smallest-three orientation.
type TransformTemplate struct {
	extent float32
}

func NewTransformTemplate(extent float32) *TransformTemplate {
	if extent <= 0 {
		extent = netconfig.PositionExtent
	}
	return &TransformTemplate{extent: extent}
}

func (t *TransformTemplate) Extent() float32 { return t.extent }

func (t *TransformTemplate) Kind() Kind { return KindTransform }

func (t *TransformTemplate) Bits() int { return positionBits + rotationBits }

func (t *TransformTemplate) Pack(w bitstream.Writer, v Value) error {
	if err := checkKind(t, v); err != nil {
		return err
	}
	tf := v.(Transform)
	if err := packPosition(w, tf.Position, t.extent); err != nil {
		return err
	}
	return packRotation(w, tf.Rotation)
}

func (t *TransformTemplate) Unpack(r bitstream.Reader) (Value, error) {
	pos, err := unpackPosition(r, t.extent)
	if err != nil {
		return nil, err
	}
	rot, err := unpackRotation(r)
	if err != nil {
		return nil, err
	}
	return Transform{Position: pos, Rotation: rot}, nil
}

// Extrapolate reckons the position like a Vector4 and keeps the orientation
// turning at the rate observed between the last two samples.
func (t *TransformTemplate) Extrapolate(vn2 Value, tn2 float64, vn1 Value, tn1 float64, v0 Value, t0, tt float64) Value {
	x0 := must[Transform](v0)
	if tt == t0 || vn1 == nil {
		return v0
	}
	x1 := must[Transform](vn1)
	var x2 *mgl32.Vec4
	if vn2 != nil {
		p := must[Transform](vn2).Position
		x2 = &p
	}
	out := x0
	out.Position = reckonPosition(x2, tn2, x1.Position, tn1, x0.Position, t0, tt)
	if t0 > tn1 {
		omega := gamemath.AngularVelocity(x1.Rotation, x0.Rotation, float32(t0-tn1))
		out.Rotation = gamemath.Integrate(x0.Rotation, omega, float32(tt-t0))
	}
	return out
}

func (t *TransformTemplate) Threshold(prev, cur Value, _ float64) bool {
	a, b := must[Transform](prev), must[Transform](cur)
	if a == b {
		return false
	}
	step := gamemath.QuantStep(-t.extent, t.extent, netconfig.PositionBits)
	for i := 0; i < 3; i++ {
		ai := gamemath.Clamp(a.Position[i], -t.extent, t.extent)
		bi := gamemath.Clamp(b.Position[i], -t.extent, t.extent)
		if abs32(bi-ai) > step {
			return true
		}
	}
	return gamemath.QuatAngle(a.Rotation, b.Rotation) > rotationStep
}

func (t *TransformTemplate) Blend(a, b Value, k float32) Value {
	return blendTransform(must[Transform](a), must[Transform](b), k)
}

func (*TransformTemplate) template() {}

// Shared pose encoding for Transform and BodyState.

const (
	positionBits = 3 * int(netconfig.PositionBits)
	rotationBits = int(netconfig.RotationIndexBits) + 3*int(netconfig.RotationBits)
)

// rotationStep is the smallest orientation change worth sending: twice the
// per-component quantization step of the smallest-three encoding.
var rotationStep = 2 * gamemath.QuantStep(-gamemath.SmallestThreeBound, gamemath.SmallestThreeBound, netconfig.RotationBits)

func packPosition(w bitstream.Writer, p mgl32.Vec4, extent float32) error {
	for i := 0; i < 3; i++ {
		q := gamemath.Quantize(p[i], -extent, extent, netconfig.PositionBits)
		if err := writeBits(w, q, netconfig.PositionBits); err != nil {
			return err
		}
	}
	return nil
}

func unpackPosition(r bitstream.Reader, extent float32) (mgl32.Vec4, error) {
	p := mgl32.Vec4{0, 0, 0, 1}
	for i := 0; i < 3; i++ {
		q, err := readBits(r, netconfig.PositionBits)
		if err != nil {
			return mgl32.Vec4{}, err
		}
		p[i] = gamemath.Dequantize(q, -extent, extent, netconfig.PositionBits)
	}
	return p, nil
}

func packRotation(w bitstream.Writer, q mgl32.Quat) error {
	index, codes := gamemath.PackQuat(q, netconfig.RotationBits)
	if err := writeBits(w, index, netconfig.RotationIndexBits); err != nil {
		return err
	}
	for _, c := range codes {
		if err := writeBits(w, c, netconfig.RotationBits); err != nil {
			return err
		}
	}
	return nil
}

func unpackRotation(r bitstream.Reader) (mgl32.Quat, error) {
	index, err := readBits(r, netconfig.RotationIndexBits)
	if err != nil {
		return mgl32.Quat{}, err
	}
	var codes [3]uint64
	for i := range codes {
		if codes[i], err = readBits(r, netconfig.RotationBits); err != nil {
			return mgl32.Quat{}, err
		}
	}
	return gamemath.UnpackQuat(index, codes, netconfig.RotationBits), nil
}

func packVelocity(w bitstream.Writer, v mgl32.Vec4, limit float32) error {
	for i := 0; i < 3; i++ {
		q := gamemath.Quantize(v[i], -limit, limit, netconfig.VelocityBits)
		if err := writeBits(w, q, netconfig.VelocityBits); err != nil {
			return err
		}
	}
	return nil
}

func unpackVelocity(r bitstream.Reader, limit float32) (mgl32.Vec4, error) {
	var v mgl32.Vec4
	for i := 0; i < 3; i++ {
		q, err := readBits(r, netconfig.VelocityBits)
		if err != nil {
			return mgl32.Vec4{}, err
		}
		v[i] = gamemath.Dequantize(q, -limit, limit, netconfig.VelocityBits)
	}
	return v, nil
}

// reckonPosition applies scalar dead reckoning to x, y and z; w is carried
// over from the newest sample.
func reckonPosition(pn2 *mgl32.Vec4, tn2 float64, pn1 mgl32.Vec4, tn1 float64, p0 mgl32.Vec4, t0, t float64) mgl32.Vec4 {
	var x2 mgl32.Vec4
	if pn2 != nil {
		x2 = *pn2
	}
	out := p0
	for i := 0; i < 3; i++ {
		out[i] = float32(gamemath.Reckon(float64(x2[i]), tn2, float64(pn1[i]), tn1, float64(p0[i]), t0, t, pn2 != nil))
	}
	return out
}

func blendTransform(a, b Transform, k float32) Transform {
	return Transform{
		Position: a.Position.Add(b.Position.Sub(a.Position).Mul(k)),
		Rotation: gamemath.Nlerp(a.Rotation, b.Rotation, k),
	}
}
