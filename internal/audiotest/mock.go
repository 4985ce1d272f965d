// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/audmix/audio"
)

// errStarved wraps audio.ErrNotEnoughData so callers can match either.
var errStarved = fmt.Errorf("mock provider starved: %w", audio.ErrNotEnoughData)

// MockProvider is a test helper that generates PCM chunks on demand.
// It implements audio.BufferProvider and records every call it receives.
type MockProvider struct {
	channels    int
	totalFrames int // frames to generate before EOF; < 0 for endless
	maxFrames   int // cap per chunk; <= 0 for no cap
	generated   int // frames handed out and released
	waveform    func(frame int, channel int) int16

	buf      []int16
	acquired int
	held     bool

	// starve makes the next n acquisitions fail as if no data was ready
	starve int

	Gets     int
	Releases int
	PTS      []int64
}

// NewMockProvider creates a mock provider.
// totalFrames is the number of frames to generate (negative means endless).
// waveform generates a sample value from frame index and channel.
func NewMockProvider(channels, totalFrames int, waveform func(frame int, channel int) int16) *MockProvider {
	return &MockProvider{
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewConstantProvider creates an endless provider where every frame holds values.
// values must have one entry per channel.
func NewConstantProvider(values ...int16) *MockProvider {
	v := append([]int16(nil), values...)
	return NewMockProvider(len(v), -1, func(frame int, channel int) int16 {
		return v[channel]
	})
}

// NewSilentProvider creates an endless provider of zeros.
func NewSilentProvider(channels int) *MockProvider {
	return NewMockProvider(channels, -1, func(frame int, channel int) int16 {
		return 0
	})
}

// NewSineProvider creates an endless sine wave at amplitude amp.
func NewSineProvider(sampleRate, channels int, frequency float64, amp int16) *MockProvider {
	return NewMockProvider(channels, -1, func(frame int, channel int) int16 {
		t := float64(frame) / float64(sampleRate)
		return int16(float64(amp) * math.Sin(2*math.Pi*frequency*t))
	})
}

// NewRampProvider creates a provider whose sample equals its frame index.
func NewRampProvider(channels, totalFrames int) *MockProvider {
	return NewMockProvider(channels, totalFrames, func(frame int, channel int) int16 {
		return int16(frame)
	})
}

// WithMaxFrames limits the size of each chunk handed out.
func (m *MockProvider) WithMaxFrames(n int) *MockProvider {
	m.maxFrames = n
	return m
}

// Starve makes the next n acquisitions return nothing.
func (m *MockProvider) Starve(n int) { m.starve = n }

// Outstanding reports whether a chunk is currently handed out.
func (m *MockProvider) Outstanding() bool { return m.held }

// Consumed returns the number of frames released so far.
func (m *MockProvider) Consumed() int { return m.generated }

// Reset rewinds the generator and clears the counters.
func (m *MockProvider) Reset() {
	m.generated = 0
	m.held = false
	m.acquired = 0
	m.Gets = 0
	m.Releases = 0
	m.PTS = nil
}

func (m *MockProvider) GetNextBuffer(b *audio.Buffer, pts int64) error {
	m.PTS = append(m.PTS, pts)

	if m.held || m.starve > 0 {
		if m.starve > 0 {
			m.starve--
		}
		b.Reset()
		return errStarved
	}

	frames := b.FrameCount
	if m.maxFrames > 0 {
		frames = min(frames, m.maxFrames)
	}
	if m.totalFrames >= 0 {
		frames = min(frames, m.totalFrames-m.generated)
	}
	if frames <= 0 {
		b.Reset()
		if m.totalFrames >= 0 && m.generated >= m.totalFrames {
			return io.EOF
		}
		return errStarved
	}

	if cap(m.buf) < frames*m.channels {
		m.buf = make([]int16, frames*m.channels)
	}
	m.buf = m.buf[:frames*m.channels]

	for f := range frames {
		for ch := range m.channels {
			m.buf[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}

	b.Raw = m.buf
	b.FrameCount = frames
	m.acquired = frames
	m.held = true
	m.Gets++

	return nil
}

// ReleaseBuffer advances the generator by b.FrameCount consumed frames.
func (m *MockProvider) ReleaseBuffer(b *audio.Buffer) {
	if m.held {
		m.generated += min(max(b.FrameCount, 0), m.acquired)
		m.held = false
		m.acquired = 0
		m.Releases++
	}

	b.Reset()
}
