package replica

import (
	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/netconfig"
)

// BooleanTemplate replicates a discrete flag in one bit. Changes are held
// back until they have persisted for longer than the debounce threshold, so
// single-frame flicker never reaches the wire.
type BooleanTemplate struct {
	debounce float32
}

func NewBooleanTemplate(debounceThreshold float32) *BooleanTemplate {
	return &BooleanTemplate{debounce: debounceThreshold}
}

func (t *BooleanTemplate) DebounceThreshold() float32 { return t.debounce }

func (t *BooleanTemplate) Kind() Kind { return KindBoolean }

func (t *BooleanTemplate) Bits() int { return int(netconfig.BooleanBits) }

func (t *BooleanTemplate) Pack(w bitstream.Writer, v Value) error {
	if err := checkKind(t, v); err != nil {
		return err
	}
	var bit uint64
	if v.(Boolean) {
		bit = 1
	}
	return writeBits(w, bit, netconfig.BooleanBits)
}

func (t *BooleanTemplate) Unpack(r bitstream.Reader) (Value, error) {
	bit, err := readBits(r, netconfig.BooleanBits)
	if err != nil {
		return nil, err
	}
	return Boolean(bit != 0), nil
}

// Extrapolate holds the last value; discrete state is never interpolated.
func (t *BooleanTemplate) Extrapolate(_ Value, _ float64, _ Value, _ float64, v0 Value, _, _ float64) Value {
	must[Boolean](v0)
	return v0
}

func (t *BooleanTemplate) Threshold(prev, cur Value, held float64) bool {
	if must[Boolean](prev) == must[Boolean](cur) {
		return false
	}
	return t.debounce <= 0 || held > float64(t.debounce)
}

func (t *BooleanTemplate) Blend(a, b Value, _ float32) Value {
	must[Boolean](a)
	must[Boolean](b)
	return b
}

func (*BooleanTemplate) template() {}
