package replica

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/gamemath"
	"github.com/apistol78/replica/shared/netconfig"
)

// Vector4Template quantizes x, y and z independently over [-extent, extent].
// When w is fixed it is left off the wire and restored as the constant;
// otherwise it is sent like the other components.
type Vector4Template struct {
	fixedW       float32
	hasFixedW    bool
	lowPrecision bool
	extent       float32
}

type Vector4Option func(*Vector4Template)

// WithFixedW omits w from the stream and reconstructs it as w.
func WithFixedW(w float32) Vector4Option {
	return func(t *Vector4Template) {
		t.fixedW = w
		t.hasFixedW = true
	}
}

// WithExtent overrides the symmetric component range.
func WithExtent(extent float32) Vector4Option {
	return func(t *Vector4Template) {
		if extent < 0 {
			extent = -extent
		}
		t.extent = extent
	}
}

// NewVector4Template returns a template for positions, ranging over
// netconfig.PositionExtent unless overridden.
func NewVector4Template(lowPrecision bool, opts ...Vector4Option) *Vector4Template {
	t := &Vector4Template{lowPrecision: lowPrecision, extent: netconfig.PositionExtent}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDirectionTemplate returns a template for normalized directions.
func NewDirectionTemplate(lowPrecision bool, opts ...Vector4Option) *Vector4Template {
	opts = append([]Vector4Option{WithExtent(netconfig.DirectionExtent)}, opts...)
	return NewVector4Template(lowPrecision, opts...)
}

func (t *Vector4Template) FixedW() (float32, bool) { return t.fixedW, t.hasFixedW }

func (t *Vector4Template) LowPrecision() bool { return t.lowPrecision }

func (t *Vector4Template) Extent() float32 { return t.extent }

func (t *Vector4Template) Kind() Kind { return KindVector4 }

func (t *Vector4Template) Bits() int { return t.components() * int(t.bits()) }

func (t *Vector4Template) bits() uint8 {
	if t.lowPrecision {
		return netconfig.LowPrecisionBits
	}
	return netconfig.HighPrecisionBits
}

func (t *Vector4Template) components() int {
	if t.hasFixedW {
		return 3
	}
	return 4
}

// Step is the quantization step of each component.
func (t *Vector4Template) Step() float32 {
	return gamemath.QuantStep(-t.extent, t.extent, t.bits())
}

func (t *Vector4Template) Pack(w bitstream.Writer, v Value) error {
	if err := checkKind(t, v); err != nil {
		return err
	}
	vec := v.(Vector4)
	for i := 0; i < t.components(); i++ {
		q := gamemath.Quantize(vec[i], -t.extent, t.extent, t.bits())
		if err := writeBits(w, q, t.bits()); err != nil {
			return err
		}
	}
	return nil
}

func (t *Vector4Template) Unpack(r bitstream.Reader) (Value, error) {
	var vec Vector4
	for i := 0; i < t.components(); i++ {
		q, err := readBits(r, t.bits())
		if err != nil {
			return nil, err
		}
		vec[i] = gamemath.Dequantize(q, -t.extent, t.extent, t.bits())
	}
	if t.hasFixedW {
		vec[3] = t.fixedW
	}
	return vec, nil
}

func (t *Vector4Template) Extrapolate(vn2 Value, tn2 float64, vn1 Value, tn1 float64, v0 Value, t0, tt float64) Value {
	x0 := must[Vector4](v0)
	if tt == t0 || vn1 == nil {
		return v0
	}
	x1 := must[Vector4](vn1)
	var x2 Vector4
	if vn2 != nil {
		x2 = must[Vector4](vn2)
	}
	out := x0
	for i := 0; i < t.components(); i++ {
		out[i] = float32(gamemath.Reckon(float64(x2[i]), tn2, float64(x1[i]), tn1, float64(x0[i]), t0, tt, vn2 != nil))
	}
	return out
}

func (t *Vector4Template) Threshold(prev, cur Value, _ float64) bool {
	a, b := must[Vector4](prev), must[Vector4](cur)
	step := t.Step()
	for i := 0; i < t.components(); i++ {
		ai := gamemath.Clamp(a[i], -t.extent, t.extent)
		bi := gamemath.Clamp(b[i], -t.extent, t.extent)
		if abs32(bi-ai) > step {
			return true
		}
	}
	return false
}

func (t *Vector4Template) Blend(a, b Value, k float32) Value {
	va, vb := must[Vector4](a), must[Vector4](b)
	return Vector4(mgl32.Vec4(va).Add(mgl32.Vec4(vb).Sub(mgl32.Vec4(va)).Mul(k)))
}

func (*Vector4Template) template() {}
