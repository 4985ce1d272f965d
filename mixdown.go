// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"errors"
	"fmt"
	"io"

	"github.com/pion/logging"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/downmix"
	ilogging "github.com/ik5/audmix/internal/logging"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/resampler"
)

const (
	DefaultSampleRate = 48000
	DefaultFrameCount = 1024
)

// Input is one decoded stream taking part in a mix.
type Input struct {
	Source audio.Source
	// Mask overrides the speaker layout derived from the channel count.
	Mask mixer.ChannelMask
	// Volume is the Q4.12 gain of both sides. Zero selects unity gain.
	Volume int16
	// Muted mixes the input at zero gain. It is still read to the end.
	Muted bool
	// AuxLevel is the Q4.12 level sent to the aux bus. Zero sends nothing.
	AuxLevel int16
}

// Options control a mix. The zero value renders 1024 frame blocks at 48 kHz.
type Options struct {
	SampleRate uint32
	FrameCount int
	// Quality of the 44.1 kHz and 48 kHz conversions.
	Quality resampler.Quality
	// Downmix folds inputs with more than two channels. Nil selects
	// downmix.NewFactory.
	Downmix mixer.DownmixFactory
	Logger  logging.LeveledLogger
}

func (o *Options) defaults() {
	if o.SampleRate == 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.FrameCount <= 0 {
		o.FrameCount = DefaultFrameCount
	}
	if o.Downmix == nil {
		o.Downmix = downmix.NewFactory()
	}
	if o.Logger == nil {
		o.Logger = ilogging.NewLogger("audmix")
	}
}

// BlockFunc receives every mixed block. main holds Options.FrameCount
// interleaved stereo frames. aux holds the same number of aux bus samples,
// or is nil when no input has an AuxLevel. Both are reused for the next
// block.
type BlockFunc func(main []int16, aux []int32) error

// inputProvider remembers the first hard read error of its source, which
// the mixer would otherwise render as silence forever.
type inputProvider struct {
	*audio.SourceProvider
	err error
}

func (p *inputProvider) GetNextBuffer(b *audio.Buffer, pts int64) error {
	err := p.SourceProvider.GetNextBuffer(b, pts)
	if err != nil && p.err == nil &&
		!errors.Is(err, io.EOF) && !errors.Is(err, audio.ErrNotEnoughData) {
		p.err = err
	}

	return err
}

// Render mixes inputs block by block until every source is drained. The
// last block is padded with silence.
func Render(inputs []Input, opts Options, emit BlockFunc) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	if len(inputs) > mixer.MaxNumTracks {
		return fmt.Errorf("%w: %d", ErrTooManyInputs, len(inputs))
	}
	opts.defaults()

	m, err := mixer.New(mixer.Config{
		FrameCount:       opts.FrameCount,
		SampleRate:       opts.SampleRate,
		Downmix:          opts.Downmix,
		ResamplerQuality: opts.Quality,
		Logger:           opts.Logger,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	main := make([]int16, 2*opts.FrameCount)
	var aux []int32
	for _, in := range inputs {
		if in.AuxLevel != 0 {
			aux = make([]int32, opts.FrameCount)
			break
		}
	}

	providers := make([]*inputProvider, 0, len(inputs))
	for i, in := range inputs {
		p, err := addInput(m, in, opts.FrameCount, main, aux)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		providers = append(providers, p)
	}

	opts.Logger.Debugf("mixing %d inputs at %d Hz in blocks of %d frames", len(inputs), opts.SampleRate, opts.FrameCount)

	for blocks := 1; ; blocks++ {
		clear(aux)
		m.Process(audio.InvalidPTS)

		drained := true
		for i, p := range providers {
			if p.err != nil {
				return fmt.Errorf("input %d: %w", i, p.err)
			}
			drained = drained && p.Drained()
		}

		if err := emit(main, aux); err != nil {
			return err
		}
		if drained {
			opts.Logger.Debugf("mix finished after %d blocks", blocks)
			return nil
		}
	}
}

func addInput(m *mixer.Mixer, in Input, frames int, main []int16, aux []int32) (*inputProvider, error) {
	channels := in.Source.Channels()
	mask := in.Mask
	if mask == 0 {
		mask = mixer.ChannelOutMaskFromCount(channels)
	}
	if mask == 0 || mask.Channels() != channels {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, channels)
	}

	if in.Volume < 0 || in.AuxLevel < 0 {
		return nil, fmt.Errorf("%w: volume %d, aux level %d", ErrInvalidGain, in.Volume, in.AuxLevel)
	}

	rate := in.Source.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, rate)
	}

	name, err := m.TrackName(mask, 0)
	if err != nil {
		return nil, err
	}

	p := &inputProvider{SourceProvider: audio.NewSourceProvider(in.Source, frames)}
	m.SetBufferProvider(name, p)
	if err := m.SetMainBuffer(name, main); err != nil {
		return nil, err
	}
	if aux != nil {
		if err := m.SetAuxBuffer(name, aux); err != nil {
			return nil, err
		}
		m.SetAuxLevel(name, int32(in.AuxLevel), false)
	}

	vol := in.Volume
	switch {
	case in.Muted:
		vol = 0
	case vol == 0:
		vol = mixer.UnityGain
	}
	m.SetVolume(name, 0, vol, false)
	m.SetVolume(name, 1, vol, false)

	if err := m.SetSampleRate(name, uint32(rate)); err != nil {
		return nil, err
	}

	return p, m.Enable(name)
}

// MixToStereo16 mixes inputs and returns the whole result as interleaved
// stereo samples at opts.SampleRate.
func MixToStereo16(inputs []Input, opts Options) ([]int16, error) {
	var out []int16
	err := Render(inputs, opts, func(main []int16, _ []int32) error {
		out = append(out, main...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
