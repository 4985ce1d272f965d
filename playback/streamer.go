// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"

	"github.com/faiface/beep"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/utils"
)

// Option configures a Streamer.
type Option func(*Streamer)

// WithPTS stamps the first block with start and advances the presentation
// time by one block per Process call. Without it every block is rendered
// with audio.InvalidPTS.
func WithPTS(start int64) Option {
	return func(s *Streamer) {
		s.pts = start
	}
}

// WithDone ends the stream once done reports true at a block boundary.
func WithDone(done func() bool) Option {
	return func(s *Streamer) {
		s.done = done
	}
}

// Streamer pulls blocks from a mixer.
type Streamer struct {
	m      *mixer.Mixer
	out    []int16
	frames int

	// frame position inside out; frames means a new block is needed
	pos int

	pts       int64
	blockTime int64
	done      func() bool
	blocks    int
	drained   bool
}

// NewStreamer renders m into out, which must hold at least one block of
// stereo frames.
func NewStreamer(m *mixer.Mixer, out []int16, opts ...Option) (*Streamer, error) {
	frames := m.FrameCount()
	if len(out) < 2*frames {
		return nil, fmt.Errorf("%w: %d samples for %d frames", ErrBufferTooSmall, len(out), frames)
	}

	s := &Streamer{
		m:      m,
		out:    out,
		frames: frames,
		pos:    frames,
		pts:    audio.InvalidPTS,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.blockTime = int64(uint64(frames) * m.LocalTimeFreq() / uint64(m.SampleRate()))

	return s, nil
}

// Format describes the stream for beep.
func (s *Streamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.m.SampleRate()),
		NumChannels: mixer.MaxNumChannels,
		Precision:   2,
	}
}

// Blocks returns the number of mixer blocks rendered so far.
func (s *Streamer) Blocks() int { return s.blocks }

func (s *Streamer) render() {
	s.m.Process(s.pts)
	s.blocks++
	s.pos = 0

	if s.pts != audio.InvalidPTS {
		s.pts += s.blockTime
	}
}

// Stream fills samples, rendering new mixer blocks as needed.
func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	if s.drained {
		return 0, false
	}

	n := 0
	for n < len(samples) {
		if s.pos == s.frames {
			if s.done != nil && s.done() {
				s.drained = true
				break
			}
			s.render()
		}

		for ; s.pos < s.frames && n < len(samples); s.pos++ {
			samples[n][0] = utils.Int16ToFloat64(s.out[2*s.pos])
			samples[n][1] = utils.Int16ToFloat64(s.out[2*s.pos+1])
			n++
		}
	}

	return n, n > 0 || !s.drained
}

// Err always returns nil. Providers report their own failures by handing
// out no data, which the mixer renders as silence.
func (s *Streamer) Err() error { return nil }
