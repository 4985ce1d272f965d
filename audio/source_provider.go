// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// SourceProvider adapts a Source to the BufferProvider contract.
//
// Reads happen synchronously inside GetNextBuffer, which makes it suitable
// for offline mixing but not for a real-time thread fed by file I/O.
// Frames handed out but not consumed at release time are kept and returned
// first on the next call.
type SourceProvider struct {
	src      Source
	channels int
	buf      []int16

	// samples currently valid at the front of buf
	filled int
	// frames handed out by the last GetNextBuffer
	acquired int
	held     bool
	eof      bool
}

// NewSourceProvider creates a provider handing out at most maxFrames frames per
// call. A non-positive maxFrames selects 1024.
func NewSourceProvider(src Source, maxFrames int) *SourceProvider {
	if maxFrames <= 0 {
		maxFrames = 1024
	}

	channels := max(src.Channels(), 1)

	return &SourceProvider{
		src:      src,
		channels: channels,
		buf:      make([]int16, maxFrames*channels),
	}
}

func (p *SourceProvider) SampleRate() int { return p.src.SampleRate() }
func (p *SourceProvider) Channels() int   { return p.channels }

func (p *SourceProvider) Close() error {
	err := p.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// fill tops buf up to want samples, keeping any partial trailing frame.
func (p *SourceProvider) fill(want int) error {
	for p.filled < want && !p.eof {
		n, err := p.src.ReadSamples(p.buf[p.filled:want])
		p.filled += n

		if err == io.EOF {
			p.eof = true
			break
		}
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return nil
}

func (p *SourceProvider) GetNextBuffer(b *Buffer, _ int64) error {
	if p.held {
		b.Reset()
		return ErrBufferHeld
	}

	frames := min(b.FrameCount, len(p.buf)/p.channels)
	if frames <= 0 {
		b.Reset()
		return ErrNotEnoughData
	}

	want := frames * p.channels
	if err := p.fill(want); err != nil {
		b.Reset()
		return err
	}

	frames = min(frames, p.filled/p.channels)
	if frames == 0 {
		b.Reset()
		if p.eof {
			return io.EOF
		}
		return ErrNotEnoughData
	}

	b.Raw = p.buf[:frames*p.channels]
	b.FrameCount = frames
	p.acquired = frames
	p.held = true

	return nil
}

// ReleaseBuffer treats b.FrameCount as the number of frames consumed.
func (p *SourceProvider) ReleaseBuffer(b *Buffer) {
	if !p.held {
		b.Reset()
		return
	}

	consumed := min(max(b.FrameCount, 0), p.acquired)
	used := consumed * p.channels
	copy(p.buf, p.buf[used:p.filled])
	p.filled -= used

	p.held = false
	p.acquired = 0
	b.Reset()
}

// Drained reports whether the source hit EOF and every frame was consumed.
func (p *SourceProvider) Drained() bool {
	return p.eof && p.filled < p.channels && !p.held
}
