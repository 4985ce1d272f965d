// SPDX-License-Identifier: EPL-2.0

package mixer

import "fmt"

// TrackHook is the routine that mixes one track into the accumulator.
type TrackHook int

const (
	TrackHookNone TrackHook = iota
	TrackHookNop
	TrackHook16BitsStereo
	TrackHook16BitsMono
	TrackHookGenericResample
)

func (h TrackHook) String() string {
	switch h {
	case TrackHookNone:
		return "none"
	case TrackHookNop:
		return "nop"
	case TrackHook16BitsStereo:
		return "16BitsStereo"
	case TrackHook16BitsMono:
		return "16BitsMono"
	case TrackHookGenericResample:
		return "genericResample"
	}

	return fmt.Sprintf("TrackHook(%d)", int(h))
}

// run adds frameCount frames of t into out. temp is scratch space for the
// resampler and aux, when not nil, receives the effects send.
func (t *track) run(out []int32, frameCount int, temp, aux []int32) {
	switch t.hook {
	case TrackHookNop, TrackHookNone:
	case TrackHook16BitsStereo:
		t.mix16BitsStereo(out, frameCount, aux)
	case TrackHook16BitsMono:
		t.mix16BitsMono(out, frameCount, aux)
	case TrackHookGenericResample:
		t.mixGenericResample(out, frameCount, temp, aux)
	default:
		panic(fmt.Sprintf("mixer: unknown track hook %d", t.hook))
	}
}

func (t *track) mixGenericResample(out []int32, frameCount int, temp, aux []int32) {
	t.resampler.SetSampleRate(t.sampleRate)

	ramp := t.volumeInc[0]|t.volumeInc[1] != 0

	if aux == nil && !ramp {
		t.resampler.SetVolume(t.volume[0], t.volume[1])
		t.resampler.Resample(out, frameCount, t.provider)
		return
	}

	// resample at unity, then apply volume and aux send in a second pass
	t.resampler.SetVolume(UnityGain, UnityGain)
	clear(temp[:frameCount*MaxNumChannels])
	t.resampler.Resample(temp, frameCount, t.provider)

	if ramp || (aux != nil && t.auxInc != 0) {
		t.volumeRampStereo(out, frameCount, temp, aux)
		return
	}
	t.volumeStereo(out, frameCount, temp, aux)
}

// volumeRampStereo applies the ramping volume to Q4.12 resampled frames.
func (t *track) volumeRampStereo(out []int32, frameCount int, temp, aux []int32) {
	vl, vr := t.prevVolume[0], t.prevVolume[1]
	vlInc, vrInc := t.volumeInc[0], t.volumeInc[1]

	if aux != nil {
		va := t.prevAuxLevel
		vaInc := t.auxInc

		for i := range frameCount {
			l := temp[2*i] >> 12
			r := temp[2*i+1] >> 12
			out[2*i] = addSat(out[2*i], (vl >> 16) * l)
			out[2*i+1] = addSat(out[2*i+1], (vr >> 16) * r)
			aux[i] = addSat(aux[i], (va >> 17) * (l + r))
			vl += vlInc
			vr += vrInc
			va += vaInc
		}
		t.prevAuxLevel = va
	} else {
		for i := range frameCount {
			out[2*i] = addSat(out[2*i], (vl >> 16) * (temp[2*i] >> 12))
			out[2*i+1] = addSat(out[2*i+1], (vr >> 16) * (temp[2*i+1] >> 12))
			vl += vlInc
			vr += vrInc
		}
	}

	t.prevVolume[0] = vl
	t.prevVolume[1] = vr
	t.adjustVolumeRamp(aux != nil)
}

// volumeStereo applies constant gain to Q4.12 resampled frames.
func (t *track) volumeStereo(out []int32, frameCount int, temp, aux []int32) {
	vl, vr := t.volume[0], t.volume[1]

	if aux != nil {
		va := int16(t.auxLevel)
		for i := range frameCount {
			l := int16(temp[2*i] >> 12)
			r := int16(temp[2*i+1] >> 12)
			out[2*i] = mulAdd(l, vl, out[2*i])
			a := int16((int32(l) + int32(r)) >> 1)
			out[2*i+1] = mulAdd(r, vr, out[2*i+1])
			aux[i] = mulAdd(a, va, aux[i])
		}
		return
	}

	for i := range frameCount {
		l := int16(temp[2*i] >> 12)
		r := int16(temp[2*i+1] >> 12)
		out[2*i] = mulAdd(l, vl, out[2*i])
		out[2*i+1] = mulAdd(r, vr, out[2*i+1])
	}
}

func (t *track) mix16BitsStereo(out []int32, frameCount int, aux []int32) {
	in := t.in

	switch {
	case aux != nil && t.volumeInc[0]|t.volumeInc[1]|t.auxInc != 0:
		vl, vr, va := t.prevVolume[0], t.prevVolume[1], t.prevAuxLevel
		vlInc, vrInc, vaInc := t.volumeInc[0], t.volumeInc[1], t.auxInc

		for i := range frameCount {
			l := int32(in[2*i])
			r := int32(in[2*i+1])
			out[2*i] = addSat(out[2*i], (vl >> 16) * l)
			out[2*i+1] = addSat(out[2*i+1], (vr >> 16) * r)
			aux[i] = addSat(aux[i], (va >> 17) * (l + r))
			vl += vlInc
			vr += vrInc
			va += vaInc
		}

		t.prevVolume[0], t.prevVolume[1], t.prevAuxLevel = vl, vr, va
		t.adjustVolumeRamp(true)

	case aux != nil:
		vrl := t.volumeRL()
		va := int16(t.auxLevel)

		for i := range frameCount {
			rl := packRL(in[2*i], in[2*i+1])
			a := int16((int32(in[2*i]) + int32(in[2*i+1])) >> 1)
			out[2*i] = mulAddRL(true, rl, vrl, out[2*i])
			out[2*i+1] = mulAddRL(false, rl, vrl, out[2*i+1])
			aux[i] = mulAdd(a, va, aux[i])
		}

	case t.volumeInc[0]|t.volumeInc[1] != 0:
		vl, vr := t.prevVolume[0], t.prevVolume[1]
		vlInc, vrInc := t.volumeInc[0], t.volumeInc[1]

		for i := range frameCount {
			out[2*i] = addSat(out[2*i], (vl >> 16) * int32(in[2*i]))
			out[2*i+1] = addSat(out[2*i+1], (vr >> 16) * int32(in[2*i+1]))
			vl += vlInc
			vr += vrInc
		}

		t.prevVolume[0], t.prevVolume[1] = vl, vr
		t.adjustVolumeRamp(false)

	default:
		vrl := t.volumeRL()

		for i := range frameCount {
			rl := packRL(in[2*i], in[2*i+1])
			out[2*i] = mulAddRL(true, rl, vrl, out[2*i])
			out[2*i+1] = mulAddRL(false, rl, vrl, out[2*i+1])
		}
	}

	t.in = in[2*frameCount:]
}

func (t *track) mix16BitsMono(out []int32, frameCount int, aux []int32) {
	in := t.in

	switch {
	case aux != nil && t.volumeInc[0]|t.volumeInc[1]|t.auxInc != 0:
		vl, vr, va := t.prevVolume[0], t.prevVolume[1], t.prevAuxLevel
		vlInc, vrInc, vaInc := t.volumeInc[0], t.volumeInc[1], t.auxInc

		for i := range frameCount {
			l := int32(in[i])
			out[2*i] = addSat(out[2*i], (vl >> 16) * l)
			out[2*i+1] = addSat(out[2*i+1], (vr >> 16) * l)
			aux[i] = addSat(aux[i], (va >> 16) * l)
			vl += vlInc
			vr += vrInc
			va += vaInc
		}

		t.prevVolume[0], t.prevVolume[1], t.prevAuxLevel = vl, vr, va
		t.adjustVolumeRamp(true)

	case aux != nil:
		vl, vr := t.volume[0], t.volume[1]
		va := int16(t.auxLevel)

		for i := range frameCount {
			l := in[i]
			out[2*i] = mulAdd(l, vl, out[2*i])
			out[2*i+1] = mulAdd(l, vr, out[2*i+1])
			aux[i] = mulAdd(l, va, aux[i])
		}

	case t.volumeInc[0]|t.volumeInc[1] != 0:
		vl, vr := t.prevVolume[0], t.prevVolume[1]
		vlInc, vrInc := t.volumeInc[0], t.volumeInc[1]

		for i := range frameCount {
			l := int32(in[i])
			out[2*i] = addSat(out[2*i], (vl >> 16) * l)
			out[2*i+1] = addSat(out[2*i+1], (vr >> 16) * l)
			vl += vlInc
			vr += vrInc
		}

		t.prevVolume[0], t.prevVolume[1] = vl, vr
		t.adjustVolumeRamp(false)

	default:
		vl, vr := t.volume[0], t.volume[1]

		for i := range frameCount {
			l := in[i]
			out[2*i] = mulAdd(l, vl, out[2*i])
			out[2*i+1] = mulAdd(l, vr, out[2*i+1])
		}
	}

	t.in = in[frameCount:]
}
