// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"

	"github.com/pion/logging"

	"github.com/ik5/audmix/resampler"
)

const defaultLocalTimeFreq = 1_000_000_000

// Config holds the construction parameters of a Mixer.
type Config struct {
	// FrameCount is the number of stereo frames produced by one Process call.
	FrameCount int
	// SampleRate is the output rate in Hz.
	SampleRate uint32
	// MaxNumTracks limits the number of track slots. Zero means 32.
	MaxNumTracks int
	// Downmix creates downmix effects for tracks with more than two
	// channels. Nil means the platform cannot play multichannel content.
	Downmix DownmixFactory
	// ResamplerQuality is used for the 44.1 kHz and 48 kHz pair. Any other
	// ratio gets resampler.LowQuality. Zero means resampler.MedQuality.
	ResamplerQuality resampler.Quality
	// LocalTimeFreq is the tick rate of presentation timestamps. Zero
	// means nanoseconds.
	LocalTimeFreq uint64
	// Logger overrides the default "mixer" scoped logger.
	Logger logging.LeveledLogger
}

func (c *Config) validate() error {
	if c.FrameCount <= 0 {
		return fmt.Errorf("%w: frame count %d", ErrInvalidConfig, c.FrameCount)
	}
	if c.SampleRate == 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}
	if c.MaxNumTracks < 0 || c.MaxNumTracks > MaxNumTracks {
		return fmt.Errorf("%w: max tracks %d not in 1..%d", ErrInvalidConfig, c.MaxNumTracks, MaxNumTracks)
	}

	if c.MaxNumTracks == 0 {
		c.MaxNumTracks = MaxNumTracks
	}
	if c.LocalTimeFreq == 0 {
		c.LocalTimeFreq = defaultLocalTimeFreq
	}
	if c.ResamplerQuality == resampler.DefaultQuality {
		c.ResamplerQuality = resampler.MedQuality
	}

	return nil
}
