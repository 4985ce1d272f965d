// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math"
)

// SetParameter changes one track parameter. The value type depends on
// param:
//
//	ParamChannelMask             ChannelMask
//	ParamFormat                  Format
//	ParamMainBuffer              []int16, 2*FrameCount samples or more
//	ParamAuxBuffer               []int32, FrameCount samples or more
//	ParamSampleRate              any integer type, in Hz
//	ParamReset, ParamRemove      ignored
//	ParamVolume0, ParamVolume1   any integer type, Q4.12 in 0..0x7FFF
//	ParamAuxLevel                any integer type, Q4.12 in 0..0x7FFF
//
// An unknown target or param, or a value of the wrong type, panics.
func (m *Mixer) SetParameter(name int, target Target, param Param, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(name)

	switch target {
	case TargetTrack:
		switch param {
		case ParamChannelMask:
			mask, ok := value.(ChannelMask)
			if !ok {
				panic(fmt.Sprintf("mixer: %v wants a ChannelMask, got %T", param, value))
			}
			return m.setChannelMask(i, mask)
		case ParamFormat:
			f, ok := value.(Format)
			if !ok || f != FormatPCM16Bit {
				panic(fmt.Sprintf("mixer: %v: %v", ErrInvalidFormat, value))
			}
			return nil
		case ParamMainBuffer:
			buf, ok := value.([]int16)
			if !ok {
				panic(fmt.Sprintf("mixer: %v wants []int16, got %T", param, value))
			}
			return m.setMainBuffer(i, buf)
		case ParamAuxBuffer:
			buf, ok := value.([]int32)
			if !ok {
				panic(fmt.Sprintf("mixer: %v wants []int32, got %T", param, value))
			}
			return m.setAuxBuffer(i, buf)
		}

	case TargetResample:
		switch param {
		case ParamSampleRate:
			rate := intValue(param, value)
			if rate <= 0 || rate > int64(^uint32(0)) {
				panic(fmt.Sprintf("mixer: bad sample rate %d", rate))
			}
			return m.setSampleRate(i, uint32(rate))
		case ParamReset:
			m.resetResampler(i)
			return nil
		case ParamRemove:
			m.removeResamplerAt(i)
			return nil
		}

	case TargetVolume, TargetRampVolume:
		ramp := target == TargetRampVolume
		switch param {
		case ParamVolume0, ParamVolume1:
			v := gain(param, intValue(param, value))
			m.setVolume(i, int(param-ParamVolume0), int16(v), ramp)
			return nil
		case ParamAuxLevel:
			m.setAuxLevel(i, int32(gain(param, intValue(param, value))), ramp)
			return nil
		}

	default:
		panic(fmt.Sprintf("mixer: bad target %v", target))
	}

	panic(fmt.Sprintf("mixer: bad param %v for target %v", param, target))
}

// gain panics unless v is a non-negative Q4.12 level that fits 16 bits.
func gain(param Param, v int64) int64 {
	if v < 0 || v > math.MaxInt16 {
		panic(fmt.Sprintf("mixer: bad %v %d", param, v))
	}

	return v
}

func intValue(param Param, value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	}

	panic(fmt.Sprintf("mixer: %v wants an integer, got %T", param, value))
}

// SetVolume sets the Q4.12 volume of channel ch (0 left, 1 right). With
// ramp the change is spread over the next block.
func (m *Mixer) SetVolume(name, ch int, v int16, ramp bool) {
	if ch < 0 || ch >= MaxNumChannels {
		panic(fmt.Sprintf("mixer: bad volume channel %d", ch))
	}
	gain(ParamVolume0+Param(ch), int64(v))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.setVolume(m.index(name), ch, v, ramp)
}

// SetAuxLevel sets the Q4.12 effects send level.
func (m *Mixer) SetAuxLevel(name int, level int32, ramp bool) {
	gain(ParamAuxLevel, int64(level))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.setAuxLevel(m.index(name), level, ramp)
}

// SetSampleRate sets the source rate of the track. A resampler is created
// the first time the rate differs from the mix rate.
func (m *Mixer) SetSampleRate(name int, rate uint32) error {
	if rate == 0 {
		panic("mixer: bad sample rate 0")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.setSampleRate(m.index(name), rate)
}

// ResetResampler drops the resampler history of the track.
func (m *Mixer) ResetResampler(name int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetResampler(m.index(name))
}

// RemoveResampler frees the resampler of the track, which then plays at
// the mix rate.
func (m *Mixer) RemoveResampler(name int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeResamplerAt(m.index(name))
}

// SetChannelMask changes the layout of the track's content. More than two
// channels attaches a downmix stage, two or fewer detaches it.
func (m *Mixer) SetChannelMask(name int, mask ChannelMask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.setChannelMask(m.index(name), mask)
}

// SetMainBuffer sets the interleaved stereo buffer the track is mixed into.
func (m *Mixer) SetMainBuffer(name int, buf []int16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.setMainBuffer(m.index(name), buf)
}

// SetAuxBuffer sets the mono effects send buffer. Nil disables the send.
func (m *Mixer) SetAuxBuffer(name int, buf []int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.setAuxBuffer(m.index(name), buf)
}

func (m *Mixer) setVolume(i, ch int, v int16, ramp bool) {
	t := &m.state.tracks[i]
	if t.setVolume(ch, v, ramp, m.state.frameCount) {
		m.log.Tracef("track %d volume%d %#04x ramp=%t", TrackBase+i, ch, v, ramp)
		m.invalidate(1 << i)
	}
}

func (m *Mixer) setAuxLevel(i int, level int32, ramp bool) {
	t := &m.state.tracks[i]
	if t.setAuxLevel(level, ramp, m.state.frameCount) {
		m.log.Tracef("track %d aux level %#04x ramp=%t", TrackBase+i, level, ramp)
		m.invalidate(1 << i)
	}
}

func (m *Mixer) setSampleRate(i int, rate uint32) error {
	changed, err := m.setResampler(&m.state.tracks[i], rate)
	if err != nil {
		return fmt.Errorf("track %d sample rate %d: %w", TrackBase+i, rate, err)
	}

	if changed {
		m.log.Tracef("track %d sample rate %d", TrackBase+i, rate)
		m.invalidate(1 << i)
	}

	return nil
}

func (m *Mixer) resetResampler(i int) {
	if r := m.state.tracks[i].resampler; r != nil {
		r.Reset()
	}
	m.invalidate(1 << i)
}

func (m *Mixer) removeResamplerAt(i int) {
	m.removeResampler(&m.state.tracks[i])
	m.invalidate(1 << i)
}

// removeResampler hands any held chunk back and returns the track to the
// mix rate.
func (m *Mixer) removeResampler(t *track) {
	if t.resampler != nil {
		t.resampler.Reset()
		t.resampler = nil
	}
	t.sampleRate = m.sampleRate
}

func (m *Mixer) setChannelMask(i int, mask ChannelMask) error {
	t := &m.state.tracks[i]
	if t.channelMask == mask {
		return nil
	}

	n := mask.Channels()
	if n == 0 || n > MaxNumChannelsToDownmix {
		panic(fmt.Sprintf("mixer: channel mask %#x has %d channels", uint32(mask), n))
	}

	err := m.initTrackDownmix(t, i, mask)
	if err != nil && t.enabled {
		// multichannel content cannot be mixed without the stage
		t.enabled = false
	}
	if err == nil {
		err = m.matchResampler(t)
	}

	m.log.Tracef("track %d channel mask %#x", TrackBase+i, uint32(mask))
	m.invalidate(1 << i)

	return err
}

func (m *Mixer) setMainBuffer(i int, buf []int16) error {
	t := &m.state.tracks[i]
	if buf != nil && len(buf) < m.state.frameCount*MaxNumChannels {
		return fmt.Errorf("main buffer of %d samples: %w", len(buf), ErrBufferTooSmall)
	}
	if sameBuffer(t.mainBuffer, buf) && len(t.mainBuffer) == len(buf) {
		return nil
	}

	t.mainBuffer = buf
	m.log.Tracef("track %d main buffer %p", TrackBase+i, buf)
	m.invalidate(1 << i)

	return nil
}

func (m *Mixer) setAuxBuffer(i int, buf []int32) error {
	t := &m.state.tracks[i]
	if buf != nil && len(buf) < m.state.frameCount {
		return fmt.Errorf("aux buffer of %d samples: %w", len(buf), ErrBufferTooSmall)
	}
	if sameAux(t.auxBuffer, buf) {
		return nil
	}

	t.auxBuffer = buf
	m.log.Tracef("track %d aux buffer %p", TrackBase+i, buf)
	m.invalidate(1 << i)

	return nil
}

func sameAux(a, b []int32) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b) && (a == nil) == (b == nil)
	}

	return &a[0] == &b[0] && len(a) == len(b)
}

// initTrackDownmix attaches or detaches the downmix stage for mask.
func (m *Mixer) initTrackDownmix(t *track, i int, mask ChannelMask) error {
	n := mask.Channels()
	if n <= MaxNumChannels {
		t.channelMask = mask
		t.channelCount = n
		m.unprepareTrackForDownmix(t, i)
		return nil
	}

	t.channelMask = mask
	t.channelCount = n

	return m.prepareTrackForDownmix(t, i)
}

func (m *Mixer) unprepareTrackForDownmix(t *track, i int) {
	if t.downmix == nil {
		return
	}

	m.log.Tracef("removing downmix stage of track %d", TrackBase+i)
	t.provider = t.downmix.Upstream()
	t.downmix.close()
	t.downmix = nil
}

func (m *Mixer) prepareTrackForDownmix(t *track, i int) error {
	m.unprepareTrackForDownmix(t, i)

	if m.downmix == nil {
		m.log.Errorf("track %d with mask %#x: no multichannel support", TrackBase+i, uint32(t.channelMask))
		return ErrDownmixUnavailable
	}

	effect, err := m.downmix(t.channelMask, t.sessionID, t.sampleRate)
	if err != nil {
		m.log.Errorf("creating downmix effect for track %d: %v", TrackBase+i, err)
		return fmt.Errorf("%w: %w", ErrDownmixFailed, err)
	}

	stage := NewDownmixStage(effect, t.channelCount, t.provider)
	stage.reserve(m.state.frameCount)
	t.downmix = stage
	t.provider = stage

	return nil
}
