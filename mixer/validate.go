// SPDX-License-Identifier: EPL-2.0

package mixer

import "fmt"

// validate re-derives the hooks of every changed track, mixes the block
// with the result, and then drops to a cheaper hook if the block settled
// ramps or mutes.
func (m *Mixer) validate(pts int64) {
	s := &m.state

	if s.needsChanged == 0 {
		m.log.Warnf("validating but nothing is invalid")
	}

	changed := s.needsChanged
	s.needsChanged = 0

	var enabled, disabled uint32
	for changed != 0 {
		i := highest(changed)
		mask := uint32(1) << i
		changed &^= mask
		if s.tracks[i].enabled {
			enabled |= mask
		} else {
			disabled |= mask
		}
	}
	s.enabledTracks &^= disabled
	s.enabledTracks |= enabled

	countActiveTracks := 0
	all16BitsStereoNoResample := true
	resampling := false
	volumeRamp := false

	for en := s.enabledTracks; en != 0; {
		i := highest(en)
		en &^= 1 << i
		countActiveTracks++

		t := &s.tracks[i]
		if t.mainBuffer == nil {
			panic(fmt.Sprintf("mixer: track %d enabled without a main buffer", TrackBase+i))
		}
		if t.provider == nil {
			panic(fmt.Sprintf("mixer: track %d enabled without a buffer provider", TrackBase+i))
		}

		n := NeedsChannel1 + Needs(t.channelCount-1)
		n |= NeedsFormat16
		if t.doesResample() {
			n |= NeedsResampleEnabled
		}
		if t.auxLevel != 0 && t.auxBuffer != nil {
			n |= NeedsAuxEnabled
		}

		if t.volumeInc[0]|t.volumeInc[1] != 0 {
			volumeRamp = true
		} else if !t.doesResample() && t.volumeRL() == 0 {
			n |= NeedsMuteEnabled
		}
		t.needs = n

		if n.Muted() {
			t.hook = TrackHookNop
			continue
		}

		if n.AuxEnabled() {
			all16BitsStereoNoResample = false
		}

		switch {
		case n.Resampling():
			all16BitsStereoNoResample = false
			resampling = true
			t.hook = TrackHookGenericResample
		case n.ChannelCount() == 1:
			t.hook = TrackHook16BitsMono
			all16BitsStereoNoResample = false
		default:
			t.hook = TrackHook16BitsStereo
		}

		if n.ChannelCount() > MaxNumChannels {
			m.log.Tracef("track %d needs downmix", TrackBase+i)
		}
	}

	s.hook = ProcessNop
	if countActiveTracks > 0 {
		if resampling {
			size := MaxNumChannels * s.frameCount
			if s.outputTemp == nil {
				s.outputTemp = make([]int32, size)
			}
			if s.resampleTemp == nil {
				s.resampleTemp = make([]int32, size)
			}
			s.hook = ProcessGenericResampling
		} else {
			s.outputTemp = nil
			s.resampleTemp = nil
			s.hook = ProcessGenericNoResampling
			if all16BitsStereoNoResample && !volumeRamp && countActiveTracks == 1 {
				s.hook = ProcessOneTrack16BitsStereoNoResampling
			}
		}
	}

	m.log.Tracef("configuration change: %d active tracks (%08x) all16BitsStereoNoResample=%t resampling=%t volumeRamp=%t",
		countActiveTracks, s.enabledTracks, all16BitsStereoNoResample, resampling, volumeRamp)

	m.run(s.hook, pts)

	// ramps are done now, settle on the cheapest hook for the next blocks
	if countActiveTracks == 0 {
		return
	}

	allMuted := true
	ramping := false
	for en := s.enabledTracks; en != 0; {
		i := highest(en)
		en &^= 1 << i
		t := &s.tracks[i]

		if t.volumeInc[0]|t.volumeInc[1] != 0 {
			ramping = true
			allMuted = false
		} else if !t.doesResample() && t.volumeRL() == 0 {
			t.needs |= NeedsMuteEnabled
			t.hook = TrackHookNop
		} else {
			allMuted = false
		}
	}

	switch {
	case allMuted:
		s.hook = ProcessNop
	case all16BitsStereoNoResample && !ramping && countActiveTracks == 1:
		s.hook = ProcessOneTrack16BitsStereoNoResampling
	}
}
