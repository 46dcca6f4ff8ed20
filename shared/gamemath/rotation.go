package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// QuatAngle returns the angle in radians of the shortest rotation taking a
// onto b.
func QuatAngle(a, b mgl32.Quat) float32 {
	rel := a.Conjugate().Mul(b)
	s := float64(rel.V.Len())
	c := math.Abs(float64(rel.W))
	return float32(2 * math.Atan2(s, c))
}

// Integrate advances q by angular velocity omega (world frame, rad/s) over dt
// seconds using the first order step q' = q + dt/2 * (omega ⊗ q).
func Integrate(q mgl32.Quat, omega mgl32.Vec3, dt float32) mgl32.Quat {
	if dt == 0 || omega.Len() == 0 {
		return q
	}
	spin := mgl32.Quat{W: 0, V: omega}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}

// AngularVelocity returns the constant world-frame angular velocity that
// rotates from onto to in dt seconds.
func AngularVelocity(from, to mgl32.Quat, dt float32) mgl32.Vec3 {
	if dt <= 0 {
		return mgl32.Vec3{}
	}
	rel := to.Mul(from.Conjugate())
	if rel.W < 0 {
		rel = rel.Scale(-1)
	}
	s := rel.V.Len()
	if s < 1e-6 {
		return rel.V.Mul(2 / dt)
	}
	angle := float32(2 * math.Atan2(float64(s), float64(rel.W)))
	return rel.V.Mul(angle / (s * dt))
}

// Nlerp blends two orientations along the shorter arc and renormalizes.
func Nlerp(a, b mgl32.Quat, k float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return a.Scale(1 - k).Add(b.Scale(k)).Normalize()
}

// SmallestThreeBound is the largest magnitude any of the three smallest
// components of a unit quaternion can reach.
const SmallestThreeBound = float32(math.Sqrt2 / 2)

// PackQuat encodes a rotation with the smallest-three scheme: the index of
// the largest component plus the other three quantized to bits each. The
// largest component is made positive so its sign need not be sent.
func PackQuat(q mgl32.Quat, bits uint8) (index uint64, codes [3]uint64) {
	q = q.Normalize()
	c := [4]float32{q.V[0], q.V[1], q.V[2], q.W}
	largest := 0
	for i := 1; i < 4; i++ {
		if abs32(c[i]) > abs32(c[largest]) {
			largest = i
		}
	}
	if c[largest] < 0 {
		for i := range c {
			c[i] = -c[i]
		}
	}
	j := 0
	for i := 0; i < 4; i++ {
		if i == largest {
			continue
		}
		codes[j] = Quantize(c[i], -SmallestThreeBound, SmallestThreeBound, bits)
		j++
	}
	return uint64(largest), codes
}

// UnpackQuat is the inverse of PackQuat.
func UnpackQuat(index uint64, codes [3]uint64, bits uint8) mgl32.Quat {
	var c [4]float32
	sum := float32(0)
	j := 0
	for i := 0; i < 4; i++ {
		if uint64(i) == index&3 {
			continue
		}
		c[i] = Dequantize(codes[j], -SmallestThreeBound, SmallestThreeBound, bits)
		sum += c[i] * c[i]
		j++
	}
	c[index&3] = float32(math.Sqrt(float64(Clamp(1-sum, 0, 1))))
	return mgl32.Quat{W: c[3], V: mgl32.Vec3{c[0], c[1], c[2]}}.Normalize()
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
