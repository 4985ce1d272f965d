// SPDX-License-Identifier: EPL-2.0

package resampler

import (
	"fmt"
	"strings"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/logging"
	"github.com/ik5/audmix/utils"
)

// UnityGain is the Q4.12 volume that leaves samples unchanged.
const UnityGain = 0x1000

const (
	numPhaseBits        = 30
	phaseOne     uint64 = 1 << numPhaseBits
	phaseMask           = phaseOne - 1

	// default local clock: nanoseconds
	defaultLocalTimeFreq = 1_000_000_000
)

var logger = logging.NewLogger("resampler")

// Quality selects the interpolation tier.
type Quality int

const (
	DefaultQuality Quality = iota
	LowQuality
	MedQuality
	HighQuality
)

func (q Quality) String() string {
	switch q {
	case DefaultQuality:
		return "default"
	case LowQuality:
		return "low"
	case MedQuality:
		return "medium"
	case HighQuality:
		return "high"
	}

	return fmt.Sprintf("quality(%d)", int(q))
}

// ParseQuality maps "low", "medium", "high" or "default" to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultQuality, nil
	case "low":
		return LowQuality, nil
	case "med", "medium":
		return MedQuality, nil
	case "high":
		return HighQuality, nil
	}

	return DefaultQuality, fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

// Resampler produces stereo output frames at a fixed rate from a provider
// running at a configurable input rate.
type Resampler interface {
	// SetSampleRate sets the input rate in Hz.
	SetSampleRate(inRate uint32)
	// SetVolume sets the Q4.12 gains applied while accumulating.
	SetVolume(left, right int16)
	// SetPTS sets the presentation time of the next output frame.
	SetPTS(pts int64)
	// SetLocalTimeFreq sets the tick rate used for timestamps.
	SetLocalTimeFreq(freq uint64)
	// Resample adds outFrameCount stereo frames into out. When the provider
	// runs dry the remaining frames are left untouched.
	Resample(out []int32, outFrameCount int, provider audio.BufferProvider)
	// Reset drops interpolation history and releases any held chunk.
	Reset()
	// UnreleasedFrames is the number of frames held but not yet consumed.
	UnreleasedFrames() int

	Quality() Quality
	Channels() int
	SampleRate() uint32
}

// New creates a resampler for channels input channels producing outRate Hz.
// DefaultQuality resolves to LowQuality.
func New(channels int, outRate uint32, quality Quality) (Resampler, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChannels, channels)
	}
	if outRate == 0 {
		return nil, ErrInvalidRate
	}

	if quality == DefaultQuality {
		quality = LowQuality
	}

	var r Resampler
	switch quality {
	case LowQuality:
		r = newLinear(channels, outRate)
	case MedQuality:
		r = newCubic(channels, outRate)
	case HighQuality:
		r = newSinc(channels, outRate)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownQuality, int(quality))
	}

	logger.Debugf("created %s quality resampler, %d channel(s) to %d Hz", quality, channels, outRate)

	return r, nil
}

// base carries the phase accumulator, the pull logic and a short history of
// input frames. Tiers differ only in window length and emit.
type base struct {
	channels int
	inRate   uint32
	outRate  uint32
	quality  Quality

	volume [2]int16

	phaseFraction  uint64
	phaseIncrement uint64

	buf        audio.Buffer
	inputIndex int
	provider   audio.BufferProvider

	pts           int64
	localTimeFreq uint64

	// window*channels samples, oldest first
	hist []int16

	// emit adds one stereo output frame at position frac into out[0:2].
	emit func(out []int32, frac uint64)
}

func (b *base) init(channels int, outRate uint32, window int, quality Quality) {
	b.channels = channels
	b.outRate = outRate
	b.inRate = outRate
	b.quality = quality
	b.volume = [2]int16{UnityGain, UnityGain}
	b.hist = make([]int16, window*channels)
	b.pts = audio.InvalidPTS
	b.localTimeFreq = defaultLocalTimeFreq
	b.phaseIncrement = phaseOne
	b.phaseFraction = phaseOne
}

func (b *base) Quality() Quality   { return b.quality }
func (b *base) Channels() int      { return b.channels }
func (b *base) SampleRate() uint32 { return b.inRate }

func (b *base) SetSampleRate(inRate uint32) {
	if inRate == 0 || inRate == b.inRate {
		return
	}

	b.inRate = inRate
	b.phaseIncrement = phaseOne * uint64(inRate) / uint64(b.outRate)
}

func (b *base) SetVolume(left, right int16) {
	b.volume[0] = left
	b.volume[1] = right
}

func (b *base) SetPTS(pts int64) { b.pts = pts }

func (b *base) SetLocalTimeFreq(freq uint64) {
	if freq > 0 {
		b.localTimeFreq = freq
	}
}

func (b *base) outputPTS(outputFrameIndex int) int64 {
	if b.pts == audio.InvalidPTS {
		return audio.InvalidPTS
	}

	return b.pts + int64(uint64(outputFrameIndex)*b.localTimeFreq/uint64(b.outRate))
}

func (b *base) UnreleasedFrames() int {
	if b.buf.Raw == nil {
		return 0
	}

	return b.buf.FrameCount - b.inputIndex
}

func (b *base) Reset() {
	if b.buf.Raw != nil && b.provider != nil {
		b.buf.FrameCount = b.inputIndex
		b.provider.ReleaseBuffer(&b.buf)
	}

	b.buf.Reset()
	b.inputIndex = 0
	b.phaseFraction = phaseOne
	clear(b.hist)
}

// push shifts the next input frame into the history window.
func (b *base) push(provider audio.BufferProvider, outputIndex, outFrameCount int) bool {
	if b.buf.Raw == nil {
		want := int(uint64(outFrameCount-outputIndex)*uint64(b.inRate)/uint64(b.outRate)) + 1
		b.buf.FrameCount = want
		// a failed pull is not an error here: the track stays silent for
		// the rest of the call and is retried next time
		_ = provider.GetNextBuffer(&b.buf, b.outputPTS(outputIndex))
		if b.buf.Raw == nil || b.buf.FrameCount <= 0 {
			b.buf.Reset()
			return false
		}
		b.inputIndex = 0
	}

	ch := b.channels
	copy(b.hist, b.hist[ch:])
	in := b.buf.Raw[b.inputIndex*ch : (b.inputIndex+1)*ch]
	copy(b.hist[len(b.hist)-ch:], in)

	b.inputIndex++
	if b.inputIndex >= b.buf.FrameCount {
		provider.ReleaseBuffer(&b.buf)
		b.inputIndex = 0
	}

	return true
}

func (b *base) Resample(out []int32, outFrameCount int, provider audio.BufferProvider) {
	b.provider = provider

	for i := range outFrameCount {
		for b.phaseFraction >= phaseOne {
			if !b.push(provider, i, outFrameCount) {
				return
			}
			b.phaseFraction -= phaseOne
		}

		b.emit(out[2*i:2*i+2], b.phaseFraction)
		b.phaseFraction += b.phaseIncrement
	}
}

// mix adds a pair of interpolated samples scaled by the current volume.
func (b *base) mix(out []int32, l, r int32) {
	out[0] = utils.AddSat32(out[0], l*int32(b.volume[0]))
	out[1] = utils.AddSat32(out[1], r*int32(b.volume[1]))
}
