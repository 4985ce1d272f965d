// SPDX-License-Identifier: EPL-2.0

package resampler

import "github.com/ik5/audmix/utils"

// cubic runs a Catmull-Rom spline through four input frames and evaluates
// it between the middle two.
type cubic struct {
	base
}

func newCubic(channels int, outRate uint32) *cubic {
	r := &cubic{}
	r.init(channels, outRate, 4, MedQuality)
	r.emit = r.emitFrame

	return r
}

func (r *cubic) channel(c int, x int32) int32 {
	h := r.hist
	n := r.channels
	s := utils.CubicInterpolate(int32(h[c]), int32(h[n+c]), int32(h[2*n+c]), int32(h[3*n+c]), x)

	return utils.Clamp16(s)
}

func (r *cubic) emitFrame(out []int32, frac uint64) {
	x := int32((frac & phaseMask) >> (numPhaseBits - utils.CubicFracBits))

	if r.channels == 1 {
		s := r.channel(0, x)
		r.mix(out, s, s)
		return
	}

	r.mix(out, r.channel(0, x), r.channel(1, x))
}
