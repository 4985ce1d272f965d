// SPDX-License-Identifier: EPL-2.0

package resampler

const (
	numInterpBits  = 15
	preInterpShift = numPhaseBits - numInterpBits
)

// linear interpolates between the two most recent input frames.
type linear struct {
	base
}

func newLinear(channels int, outRate uint32) *linear {
	r := &linear{}
	r.init(channels, outRate, 2, LowQuality)
	r.emit = r.emitFrame

	return r
}

func interp(x0, x1 int32, frac uint64) int32 {
	f := int32((frac & phaseMask) >> preInterpShift)
	return x0 + (((x1 - x0) * f) >> numInterpBits)
}

func (r *linear) emitFrame(out []int32, frac uint64) {
	h := r.hist
	if r.channels == 1 {
		s := interp(int32(h[0]), int32(h[1]), frac)
		r.mix(out, s, s)
		return
	}

	r.mix(out,
		interp(int32(h[0]), int32(h[2]), frac),
		interp(int32(h[1]), int32(h[3]), frac))
}
