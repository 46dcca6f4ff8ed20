package gamemath

// Float is the set of scalar types the helpers below accept.
type Float interface {
	~float32 | ~float64
}

// Clamp clamps v to [lo, hi]. NaN maps to lo so that corrupt simulation
// values still produce a legal code.
func Clamp[T Float](v, lo, hi T) T {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyFriction reduces speed toward zero by friction amount.
func ApplyFriction(speed, friction float64) float64 {
	if speed > friction {
		return speed - friction
	}
	if speed < -friction {
		return speed + friction
	}
	return 0
}

// ClampSpeed clamps a value to [-max, max].
func ClampSpeed(speed, max float64) float64 {
	return Clamp(speed, -max, max)
}
