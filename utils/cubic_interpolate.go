// SPDX-License-Identifier: EPL-2.0

package utils

// CubicFracBits is the precision of the position passed to Cubic.At.
const CubicFracBits = 14

// Cubic holds the Catmull-Rom polynomial between y1 and y2 of four
// consecutive samples, in integer arithmetic.
type Cubic struct {
	A, B, C, Y1 int32
}

// NewCubic computes the spline coefficients for y0, y1, y2, y3.
func NewCubic(y0, y1, y2, y3 int32) Cubic {
	return Cubic{
		A:  (3*(y1-y2) - y0 + y3) >> 1,
		B:  (y2 << 1) + y0 - ((5*y1 + y3) >> 1),
		C:  (y2 - y0) >> 1,
		Y1: y1,
	}
}

// At evaluates the spline at x, a fraction in [0, 1<<CubicFracBits].
func (c Cubic) At(x int32) int32 {
	v := int64(x)
	r := (int64(c.A) * v) >> CubicFracBits
	r = ((r + int64(c.B)) * v) >> CubicFracBits
	r = ((r + int64(c.C)) * v) >> CubicFracBits

	return int32(r) + c.Y1
}

// CubicInterpolate is a one-shot helper around NewCubic and At.
func CubicInterpolate(y0, y1, y2, y3, x int32) int32 {
	return NewCubic(y0, y1, y2, y3).At(x)
}
