package gamemath

import "math"

// maxCode returns the largest code an n-bit quantizer can emit.
func maxCode(bits uint8) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return 1<<bits - 1
}

// QuantStep is the distance between two adjacent codes of an n-bit quantizer
// spanning [lo, hi].
func QuantStep(lo, hi float32, bits uint8) float32 {
	return float32((float64(hi) - float64(lo)) / float64(maxCode(bits)))
}

// Quantize maps v from [lo, hi] onto an n-bit unsigned code, rounding to the
// nearest code. Out-of-range input is clamped to the bound.
func Quantize(v, lo, hi float32, bits uint8) uint64 {
	if hi <= lo {
		return 0
	}
	top := maxCode(bits)
	v = Clamp(v, lo, hi)
	f := (float64(v) - float64(lo)) / (float64(hi) - float64(lo)) * float64(top)
	q := uint64(math.Round(f))
	if q > top {
		q = top
	}
	return q
}

// Dequantize is the inverse of Quantize.
func Dequantize(q uint64, lo, hi float32, bits uint8) float32 {
	if hi <= lo {
		return lo
	}
	top := maxCode(bits)
	if q >= top {
		return hi
	}
	return float32(float64(lo) + float64(q)/float64(top)*(float64(hi)-float64(lo)))
}
