package replica

import (
	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/gamemath"
	"github.com/apistol78/replica/shared/netconfig"
)

// FloatTemplate quantizes a scalar linearly over [min, max] into 8 bits in
// low precision or 16 bits otherwise.
type FloatTemplate struct {
	min, max     float32
	lowPrecision bool
}

func NewFloatTemplate(min, max float32, lowPrecision bool) *FloatTemplate {
	if max < min {
		min, max = max, min
	}
	return &FloatTemplate{min: min, max: max, lowPrecision: lowPrecision}
}

func (t *FloatTemplate) Range() (min, max float32) { return t.min, t.max }

func (t *FloatTemplate) LowPrecision() bool { return t.lowPrecision }

func (t *FloatTemplate) Kind() Kind { return KindFloat }

func (t *FloatTemplate) Bits() int { return int(t.bits()) }

func (t *FloatTemplate) bits() uint8 {
	if t.lowPrecision {
		return netconfig.LowPrecisionBits
	}
	return netconfig.HighPrecisionBits
}

// Step is the quantization step; no smaller change can be represented.
func (t *FloatTemplate) Step() float32 {
	return gamemath.QuantStep(t.min, t.max, t.bits())
}

func (t *FloatTemplate) Pack(w bitstream.Writer, v Value) error {
	if err := checkKind(t, v); err != nil {
		return err
	}
	q := gamemath.Quantize(float32(v.(Float)), t.min, t.max, t.bits())
	return writeBits(w, q, t.bits())
}

func (t *FloatTemplate) Unpack(r bitstream.Reader) (Value, error) {
	q, err := readBits(r, t.bits())
	if err != nil {
		return nil, err
	}
	return Float(gamemath.Dequantize(q, t.min, t.max, t.bits())), nil
}

func (t *FloatTemplate) Extrapolate(vn2 Value, tn2 float64, vn1 Value, tn1 float64, v0 Value, t0, tt float64) Value {
	x0 := must[Float](v0)
	if tt == t0 || vn1 == nil {
		return v0
	}
	x1 := must[Float](vn1)
	var x2 Float
	if vn2 != nil {
		x2 = must[Float](vn2)
	}
	return Float(gamemath.Reckon(float64(x2), tn2, float64(x1), tn1, float64(x0), t0, tt, vn2 != nil))
}

func (t *FloatTemplate) Threshold(prev, cur Value, _ float64) bool {
	a := gamemath.Clamp(float32(must[Float](prev)), t.min, t.max)
	b := gamemath.Clamp(float32(must[Float](cur)), t.min, t.max)
	return abs32(b-a) > t.Step()
}

func (t *FloatTemplate) Blend(a, b Value, k float32) Value {
	return Float(lerp(float32(must[Float](a)), float32(must[Float](b)), k))
}

func (*FloatTemplate) template() {}
