// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math/bits"
)

// ProcessHook is the routine that produces a whole block.
type ProcessHook int

const (
	ProcessValidate ProcessHook = iota
	ProcessNop
	ProcessGenericNoResampling
	ProcessGenericResampling
	ProcessOneTrack16BitsStereoNoResampling
)

func (h ProcessHook) String() string {
	switch h {
	case ProcessValidate:
		return "validate"
	case ProcessNop:
		return "nop"
	case ProcessGenericNoResampling:
		return "genericNoResampling"
	case ProcessGenericResampling:
		return "genericResampling"
	case ProcessOneTrack16BitsStereoNoResampling:
		return "oneTrack16BitsStereoNoResampling"
	}

	return fmt.Sprintf("ProcessHook(%d)", int(h))
}

// highest returns the index of the highest set bit of a non-zero mask.
func highest(mask uint32) int {
	return bits.Len32(mask) - 1
}

func sameBuffer(a, b []int16) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}

	return &a[0] == &b[0]
}

// group splits off the tracks of e0 that share the main buffer of its
// highest track. It returns that group and the remaining tracks.
func (s *state) group(e0 uint32) (group, rest uint32) {
	i := highest(e0)
	first := s.tracks[i].mainBuffer
	group = e0

	for e2 := e0 &^ (1 << i); e2 != 0; {
		j := highest(e2)
		e2 &^= 1 << j
		if !sameBuffer(s.tracks[j].mainBuffer, first) {
			group &^= 1 << j
		}
	}

	return group, e0 &^ group
}

// hasBuffer reports whether a track of mask mixes into buf.
func (s *state) hasBuffer(mask uint32, buf []int16) bool {
	for mask != 0 {
		j := highest(mask)
		mask &^= 1 << j
		if sameBuffer(s.tracks[j].mainBuffer, buf) {
			return true
		}
	}

	return false
}

func (m *Mixer) run(hook ProcessHook, pts int64) {
	switch hook {
	case ProcessValidate:
		m.validate(pts)
	case ProcessNop:
		m.processNop(pts)
	case ProcessGenericNoResampling:
		m.processGenericNoResampling(pts)
	case ProcessGenericResampling:
		m.processGenericResampling(pts)
	case ProcessOneTrack16BitsStereoNoResampling:
		m.processOneTrack16BitsStereoNoResampling(pts)
	default:
		panic(fmt.Sprintf("mixer: unknown process hook %d", hook))
	}
}

// processNop silences the main buffers and lets the providers advance.
func (m *Mixer) processNop(pts int64) {
	s := &m.state
	samples := s.frameCount * MaxNumChannels

	for e0 := s.enabledTracks; e0 != 0; {
		var e1 uint32
		e1, e0 = s.group(e0)

		clear(s.tracks[highest(e1)].mainBuffer[:samples])

		for e1 != 0 {
			i := highest(e1)
			e1 &^= 1 << i
			t := &s.tracks[i]

			for outFrames := s.frameCount; outFrames > 0; {
				t.buffer.FrameCount = outFrames
				if !t.getNextBuffer(t.outputPTS(pts, s.frameCount-outFrames, m.localTimeFreq)) {
					break
				}
				outFrames -= t.buffer.FrameCount
				t.releaseBuffer()
			}
		}
	}
}

// processGenericNoResampling mixes any number of tracks at the mix rate,
// one sub-block at a time.
func (m *Mixer) processGenericNoResampling(pts int64) {
	s := &m.state
	enabled := s.enabledTracks

	for e0 := enabled; e0 != 0; {
		i := highest(e0)
		e0 &^= 1 << i
		t := &s.tracks[i]

		t.buffer.FrameCount = s.frameCount
		if !t.getNextBuffer(pts) {
			// flushed right after being enabled
			enabled &^= 1 << i
			continue
		}
		t.in = t.buffer.Raw
		t.frameCount = min(t.buffer.FrameCount, s.frameCount)
		t.buffer.FrameCount = t.frameCount
	}

	// a group whose tracks all came up empty still outputs silence
	for d := s.enabledTracks &^ enabled; d != 0; {
		i := highest(d)
		d &^= 1 << i
		if !s.hasBuffer(enabled, s.tracks[i].mainBuffer) {
			clear(s.tracks[i].mainBuffer[:s.frameCount*MaxNumChannels])
		}
	}

	for e0 := enabled; e0 != 0; {
		var e1 uint32
		e1, e0 = s.group(e0)
		out := s.tracks[highest(e1)].mainBuffer

		for numFrames := 0; numFrames < s.frameCount; numFrames += blockSize {
			block := min(blockSize, s.frameCount-numFrames)
			clear(s.outTemp[:])

			for e2 := e1; e2 != 0; {
				i := highest(e2)
				e2 &^= 1 << i
				t := &s.tracks[i]

				var aux []int32
				if t.needs.AuxEnabled() {
					aux = t.auxBuffer[numFrames:]
				}

				outFrames := block
				for outFrames > 0 {
					if inFrames := min(t.frameCount, outFrames); inFrames > 0 {
						t.run(s.outTemp[(block-outFrames)*MaxNumChannels:], inFrames, s.resampleTemp, aux)
						t.frameCount -= inFrames
						outFrames -= inFrames
						if aux != nil {
							aux = aux[inFrames:]
						}
					}

					if t.frameCount == 0 && outFrames > 0 {
						done := numFrames + block - outFrames
						t.releaseBuffer()
						t.buffer.FrameCount = s.frameCount - done
						if !t.getNextBuffer(t.outputPTS(pts, done, m.localTimeFreq)) {
							enabled &^= 1 << i
							e1 &^= 1 << i
							break
						}
						t.in = t.buffer.Raw
						t.frameCount = min(t.buffer.FrameCount, s.frameCount-done)
						t.buffer.FrameCount = t.frameCount
					}
				}
			}

			ditherAndClamp(out[numFrames*MaxNumChannels:], s.outTemp[:], block)
		}
	}

	for e0 := enabled; e0 != 0; {
		i := highest(e0)
		e0 &^= 1 << i
		t := &s.tracks[i]

		// hand back only what was mixed
		t.buffer.FrameCount -= t.frameCount
		t.releaseBuffer()
	}
}

// processGenericResampling mixes the whole block into the Q4.12 scratch
// accumulator. Resampling tracks pull through their resampler.
func (m *Mixer) processGenericResampling(pts int64) {
	s := &m.state
	outTemp := s.outputTemp
	numFrames := s.frameCount

	for e0 := s.enabledTracks; e0 != 0; {
		var e1 uint32
		e1, e0 = s.group(e0)
		out := s.tracks[highest(e1)].mainBuffer
		clear(outTemp)

		for e1 != 0 {
			i := highest(e1)
			e1 &^= 1 << i
			t := &s.tracks[i]

			var aux []int32
			if t.needs.AuxEnabled() {
				aux = t.auxBuffer
			}

			if t.needs.Resampling() {
				t.resampler.SetPTS(pts)
				t.run(outTemp, numFrames, s.resampleTemp, aux)
				continue
			}

			for outFrames := 0; outFrames < numFrames; {
				t.buffer.FrameCount = numFrames - outFrames
				if !t.getNextBuffer(t.outputPTS(pts, outFrames, m.localTimeFreq)) {
					break
				}
				t.in = t.buffer.Raw

				var chunkAux []int32
				if aux != nil {
					chunkAux = aux[outFrames:]
				}
				n := min(t.buffer.FrameCount, numFrames-outFrames)
				t.buffer.FrameCount = n
				t.run(outTemp[outFrames*MaxNumChannels:], n, s.resampleTemp, chunkAux)
				outFrames += n
				t.releaseBuffer()
			}
		}

		ditherAndClamp(out, outTemp, numFrames)
	}
}

// processOneTrack16BitsStereoNoResampling copies the only enabled track to
// its main buffer, scaled by its volume.
func (m *Mixer) processOneTrack16BitsStereoNoResampling(pts int64) {
	s := &m.state
	t := &s.tracks[highest(s.enabledTracks)]

	out := t.mainBuffer
	vl, vr := t.volume[0], t.volume[1]
	vrl := t.volumeRL()
	boosted := uint32(uint16(vl)) > UnityGain || uint32(uint16(vr)) > UnityGain

	pos := 0
	for pos < s.frameCount {
		t.buffer.FrameCount = s.frameCount - pos
		if !t.getNextBuffer(t.outputPTS(pts, pos, m.localTimeFreq)) {
			clear(out[pos*MaxNumChannels : s.frameCount*MaxNumChannels])
			return
		}

		in := t.buffer.Raw
		n := min(t.buffer.FrameCount, s.frameCount-pos)
		t.buffer.FrameCount = n
		o := out[pos*MaxNumChannels:]

		for f := range n {
			rl := packRL(in[2*f], in[2*f+1])
			l := mulRL(true, rl, vrl) >> 12
			r := mulRL(false, rl, vrl) >> 12
			if boosted {
				l = clamp16(l)
				r = clamp16(r)
			}
			o[2*f] = int16(l)
			o[2*f+1] = int16(r)
		}

		pos += n
		t.releaseBuffer()
	}
}
