// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/resampler"
)

// track is one input stream and everything needed to mix it.
type track struct {
	needs Needs

	// Q4.12 target volumes, and the running Q4.28 ramp state
	volume     [MaxNumChannels]int16
	prevVolume [MaxNumChannels]int32
	volumeInc  [MaxNumChannels]int32

	auxLevel     int32
	prevAuxLevel int32
	auxInc       int32

	enabled      bool
	channelCount int
	channelMask  ChannelMask
	format       Format
	sessionID    int

	provider audio.BufferProvider
	buffer   audio.Buffer
	// unread part of buffer, and its length in frames
	in         []int16
	frameCount int

	hook TrackHook

	resampler  resampler.Resampler
	sampleRate uint32

	mainBuffer []int16
	auxBuffer  []int32

	downmix *DownmixStage
}

func (t *track) reset(sampleRate uint32, sessionID int) {
	*t = track{
		volume:       [MaxNumChannels]int16{UnityGain, UnityGain},
		prevVolume:   [MaxNumChannels]int32{UnityGain << 16, UnityGain << 16},
		channelCount: 2,
		channelMask:  ChannelOutStereo,
		format:       FormatPCM16Bit,
		sessionID:    sessionID,
		sampleRate:   sampleRate,
	}
}

// volumeRL packs both volumes into one word, left in the low half.
func (t *track) volumeRL() uint32 {
	return packRL(t.volume[0], t.volume[1])
}

func (t *track) doesResample() bool { return t.resampler != nil }

func (t *track) rampIncrement(target int32, prev int32, frameCount int) int32 {
	d := int64(target)<<16 - int64(prev)
	return int32(d / int64(frameCount))
}

// setVolume changes the target of channel ch. A ramp spreads the change
// over frameCount frames. It reports whether anything changed.
func (t *track) setVolume(ch int, v int16, ramp bool, frameCount int) bool {
	if t.volume[ch] == v {
		return false
	}

	t.prevVolume[ch] = int32(t.volume[ch]) << 16
	t.volume[ch] = v

	if !ramp {
		t.prevVolume[ch] = int32(v) << 16
		t.volumeInc[ch] = 0
		return true
	}

	t.volumeInc[ch] = t.rampIncrement(int32(v), t.prevVolume[ch], frameCount)
	if t.volumeInc[ch] == 0 {
		t.prevVolume[ch] = int32(v) << 16
	}

	return true
}

func (t *track) setAuxLevel(v int32, ramp bool, frameCount int) bool {
	if t.auxLevel == v {
		return false
	}

	t.prevAuxLevel = t.auxLevel << 16
	t.auxLevel = v

	if !ramp {
		t.prevAuxLevel = v << 16
		t.auxInc = 0
		return true
	}

	t.auxInc = t.rampIncrement(v, t.prevAuxLevel, frameCount)
	if t.auxInc == 0 {
		t.prevAuxLevel = v << 16
	}

	return true
}

// rampDone reports whether one more step of inc from prev reaches target.
// Rising ramps round up so that truncation in the increment cannot leave
// the ramp one LSB short for another block.
func rampDone(prev, inc, target int32) bool {
	next := int64(prev) + int64(inc)
	switch {
	case inc > 0:
		return (next+0xFFFF)>>16 >= int64(target)
	case inc < 0:
		return next>>16 <= int64(target)
	}

	return false
}

// adjustVolumeRamp ends the ramps that have reached their targets.
func (t *track) adjustVolumeRamp(aux bool) {
	for i := range MaxNumChannels {
		if rampDone(t.prevVolume[i], t.volumeInc[i], int32(t.volume[i])) {
			t.volumeInc[i] = 0
			t.prevVolume[i] = int32(t.volume[i]) << 16
		}
	}

	if aux && rampDone(t.prevAuxLevel, t.auxInc, t.auxLevel) {
		t.auxInc = 0
		t.prevAuxLevel = t.auxLevel << 16
	}
}

// resamplerQuality picks the tier for converting inRate to outRate.
func resamplerQuality(inRate, outRate uint32, preferred resampler.Quality) resampler.Quality {
	if (inRate == 44100 && outRate == 48000) || (inRate == 48000 && outRate == 44100) {
		return preferred
	}

	return resampler.LowQuality
}

// setResampler records the source rate and creates the resampler the
// first time a conversion is needed. It reports whether the rate changed.
func (m *Mixer) setResampler(t *track, rate uint32) (bool, error) {
	if rate == m.sampleRate && t.resampler == nil {
		return false, nil
	}
	if t.sampleRate == rate {
		return false, nil
	}

	if t.resampler == nil {
		q := resamplerQuality(rate, m.sampleRate, m.resamplerQuality)
		r, err := m.newResampler(t.mixChannels(), q)
		if err != nil {
			return false, err
		}

		m.log.Tracef("creating %s resampler from %d Hz to %d Hz", q, rate, m.sampleRate)
		t.resampler = r
	}
	t.sampleRate = rate

	return true, nil
}

// mixChannels is the channel count the track delivers after downmixing.
func (t *track) mixChannels() int {
	if t.downmix != nil {
		return MaxNumChannels
	}

	return t.channelCount
}

func (m *Mixer) newResampler(channels int, q resampler.Quality) (resampler.Resampler, error) {
	r, err := resampler.New(channels, m.sampleRate, q)
	if err != nil {
		return nil, err
	}
	r.SetLocalTimeFreq(m.localTimeFreq)

	return r, nil
}

// matchResampler rebuilds the resampler when the channel count it reads
// no longer matches the track.
func (m *Mixer) matchResampler(t *track) error {
	if t.resampler == nil || t.resampler.Channels() == t.mixChannels() {
		return nil
	}

	q := t.resampler.Quality()
	t.resampler.Reset()
	t.resampler = nil

	r, err := m.newResampler(t.mixChannels(), q)
	if err != nil {
		t.sampleRate = m.sampleRate
		return err
	}
	t.resampler = r

	return nil
}

// getNextBuffer pulls into t.buffer. It reports false when the provider has
// nothing to give, leaving the buffer empty.
func (t *track) getNextBuffer(pts int64) bool {
	err := t.provider.GetNextBuffer(&t.buffer, pts)
	if err != nil || t.buffer.Raw == nil || t.buffer.FrameCount <= 0 {
		t.buffer.Reset()
		return false
	}

	return true
}

func (t *track) releaseBuffer() {
	if t.buffer.Raw != nil {
		t.provider.ReleaseBuffer(&t.buffer)
	}
	t.buffer.Reset()
	t.in = nil
	t.frameCount = 0
}

// outputPTS is the presentation time of output frame idx of a block
// starting at pts.
func (t *track) outputPTS(pts int64, idx int, localTimeFreq uint64) int64 {
	if pts == audio.InvalidPTS {
		return audio.InvalidPTS
	}

	return pts + int64(uint64(idx)*localTimeFreq/uint64(t.sampleRate))
}

func (t *track) unreleasedFrames() int {
	if t.resampler != nil {
		return t.resampler.UnreleasedFrames()
	}

	return 0
}
