package replica

import (
	"fmt"

	"github.com/apistol78/replica/shared/bitstream"
)

// ValueTemplate is the codec and prediction policy for one field type and
// precision. Templates are configured at construction and never change, so a
// single instance can back every State of a schema.
//
// Only Pack and Unpack touch the outside world, through the bit sink and
// source. Extrapolate and Threshold panic with a *MismatchError when handed
// the wrong variant; StateTemplate validates states before calling them.
type ValueTemplate interface {
	// Kind is the Value variant this template encodes.
	Kind() Kind

	// Bits is the fixed wire width of one encoded field.
	Bits() int

	// Pack encodes v. Out-of-range numbers are clamped, never rejected.
	Pack(w bitstream.Writer, v Value) error

	// Unpack decodes one field. Running out of bits yields ErrCorruptStream.
	Unpack(r bitstream.Reader) (Value, error)

	// Extrapolate predicts the value at t from three samples ordered oldest
	// to newest. vn2 and vn1 may be nil when the history is short. At t == t0
	// the result is v0.
	Extrapolate(vn2 Value, tn2 float64, vn1 Value, tn1 float64, v0 Value, t0, t float64) Value

	// Threshold reports whether cur differs from prev enough to be sent.
	// held is how long, in seconds, cur has been observed to differ from
	// prev; zero when the caller does not track it.
	Threshold(prev, cur Value, held float64) bool

	// Blend moves from a towards b by k in [0, 1].
	Blend(a, b Value, k float32) Value

	template()
}

func checkKind(t ValueTemplate, v Value) error {
	if KindOf(v) != t.Kind() {
		return &MismatchError{Index: -1, Want: t.Kind(), Got: KindOf(v)}
	}
	return nil
}

func writeBits(w bitstream.Writer, r uint64, n uint8) error {
	if err := w.WriteBits(r, n); err != nil {
		return fmt.Errorf("replica: write %d bits: %w", n, err)
	}
	return nil
}

func readBits(r bitstream.Reader, n uint8) (uint64, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, fmt.Errorf("%w: read %d bits: %w", ErrCorruptStream, n, err)
	}
	return v, nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func lerp(a, b, k float32) float32 {
	return a + (b-a)*k
}
