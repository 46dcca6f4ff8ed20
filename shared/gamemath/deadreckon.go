package gamemath

// Reckon predicts a scalar at time t from up to three samples ordered oldest
// to newest. quadratic selects second order when the oldest sample is usable;
// otherwise the prediction is linear through (tn1, xn1) and (t0, x0). A
// degenerate time base holds x0.
//
// The second order step is not the literal x0 + v*dt + a*dt*dt/2 with v the
// finite difference over [tn1, t0]. That difference is the velocity at the
// midpoint of the interval, so it is advanced by a*(t0-tn1)/2 first; with it
// three samples on a parabola are continued exactly instead of lagging by
// a*(t0-tn1)*dt/2.
func Reckon(xn2, tn2, xn1, tn1, x0, t0, t float64, quadratic bool) float64 {
	dt := t - t0
	if dt == 0 || t0 <= tn1 {
		return x0
	}
	v := (x0 - xn1) / (t0 - tn1)
	if !quadratic || tn1 <= tn2 {
		return x0 + v*dt
	}
	vPrev := (xn1 - xn2) / (tn1 - tn2)
	a := 2 * (v - vPrev) / (t0 - tn2)
	// v is the mean velocity over [tn1, t0]; shift it to t0.
	v += a * (t0 - tn1) / 2
	return x0 + v*dt + 0.5*a*dt*dt
}
