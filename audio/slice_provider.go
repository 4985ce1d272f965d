// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// SliceProvider serves interleaved PCM from memory. Chunks are copies, so
// consumers that write into them, like a downmix stage, leave data intact.
type SliceProvider struct {
	data      []int16
	buf       []int16
	channels  int
	maxFrames int
	loop      bool

	pos      int // frame position
	acquired int
	held     bool

	gets     int
	releases int
}

// NewSliceProvider creates a provider over data, handing out at most maxFrames
// frames per call (no limit when maxFrames <= 0).
func NewSliceProvider(data []int16, channels, maxFrames int) *SliceProvider {
	if channels <= 0 {
		channels = 1
	}

	return &SliceProvider{
		data:      data,
		channels:  channels,
		maxFrames: maxFrames,
	}
}

// SetLoop makes the provider wrap around at the end of data.
func (p *SliceProvider) SetLoop(loop bool) { p.loop = loop }

func (p *SliceProvider) frames() int { return len(p.data) / p.channels }

// Position returns the number of frames consumed so far (modulo length when looping).
func (p *SliceProvider) Position() int { return p.pos }

// Outstanding reports whether a buffer is currently handed out.
func (p *SliceProvider) Outstanding() bool { return p.held }

// Stats returns the number of successful acquisitions and releases.
func (p *SliceProvider) Stats() (gets, releases int) { return p.gets, p.releases }

func (p *SliceProvider) GetNextBuffer(b *Buffer, _ int64) error {
	if p.held {
		b.Reset()
		return ErrBufferHeld
	}

	total := p.frames()
	if p.loop && total > 0 && p.pos >= total {
		p.pos = 0
	}

	avail := total - p.pos
	if avail <= 0 {
		b.Reset()
		return io.EOF
	}

	frames := min(b.FrameCount, avail)
	if p.maxFrames > 0 {
		frames = min(frames, p.maxFrames)
	}
	if frames <= 0 {
		b.Reset()
		return ErrNotEnoughData
	}

	start := p.pos * p.channels
	p.buf = append(p.buf[:0], p.data[start:start+frames*p.channels]...)
	b.Raw = p.buf
	b.FrameCount = frames
	p.acquired = frames
	p.held = true
	p.gets++

	return nil
}

// ReleaseBuffer advances by b.FrameCount consumed frames.
func (p *SliceProvider) ReleaseBuffer(b *Buffer) {
	if p.held {
		p.pos += min(max(b.FrameCount, 0), p.acquired)
		p.held = false
		p.acquired = 0
		p.releases++
	}

	b.Reset()
}
