// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"

	"github.com/ik5/audmix/audio"
)

// Downmixer folds interleaved multichannel frames to stereo in place.
type Downmixer interface {
	// Process converts frames frames of buf to stereo, writing the result
	// to the first 2*frames samples of buf.
	Process(buf []int16, frames int) error
	Close() error
}

// DownmixFactory creates a Downmixer for one track. It stands for the
// platform's downmix capability.
type DownmixFactory func(mask ChannelMask, sessionID int, sampleRate uint32) (Downmixer, error)

// DownmixStage is a BufferProvider that downmixes the chunks of its
// upstream provider before handing them on.
//
// The fold runs in place on the upstream chunk, so the upstream always gets
// its whole chunk back. Folded frames left unconsumed by a partial release
// are kept by the stage and handed out before anything new is pulled.
type DownmixStage struct {
	upstream audio.BufferProvider
	effect   Downmixer
	channels int

	// the chunk as the upstream handed it out
	held       []int16
	heldFrames int

	// folded stereo frames not consumed yet
	carry       []int16
	carryFrames int
	fromCarry   int
}

// NewDownmixStage wraps upstream, which may be set later with SetUpstream.
func NewDownmixStage(effect Downmixer, channels int, upstream audio.BufferProvider) *DownmixStage {
	return &DownmixStage{
		upstream: upstream,
		effect:   effect,
		channels: channels,
	}
}

// reserve sizes the carry buffer for chunks of up to frames frames.
func (s *DownmixStage) reserve(frames int) {
	if cap(s.carry) < frames*MaxNumChannels {
		s.carry = make([]int16, 0, frames*MaxNumChannels)
	}
}

// Upstream returns the wrapped provider.
func (s *DownmixStage) Upstream() audio.BufferProvider { return s.upstream }

// SetUpstream replaces the wrapped provider and drops carried frames.
func (s *DownmixStage) SetUpstream(p audio.BufferProvider) {
	s.upstream = p
	s.carryFrames = 0
}

// GetNextBuffer pulls a chunk from upstream and downmixes it to stereo.
// It panics when no upstream provider is set.
func (s *DownmixStage) GetNextBuffer(b *audio.Buffer, pts int64) error {
	if s.upstream == nil {
		logger.Errorf("downmix stage pulled without an upstream provider")
		panic("mixer: downmix stage has no upstream provider")
	}

	if s.carryFrames > 0 && b.FrameCount > 0 {
		n := min(b.FrameCount, s.carryFrames)
		b.Raw = s.carry[:n*MaxNumChannels]
		b.FrameCount = n
		s.fromCarry = n
		return nil
	}

	if err := s.upstream.GetNextBuffer(b, pts); err != nil {
		return err
	}
	if b.Raw == nil || b.FrameCount <= 0 {
		return nil
	}

	if err := s.effect.Process(b.Raw, b.FrameCount); err != nil {
		b.FrameCount = 0
		s.upstream.ReleaseBuffer(b)
		return fmt.Errorf("%w: %w", ErrDownmixFailed, err)
	}

	s.held = b.Raw
	s.heldFrames = b.FrameCount
	b.Raw = b.Raw[:b.FrameCount*MaxNumChannels]

	return nil
}

// ReleaseBuffer consumes b.FrameCount frames. A chunk from upstream is
// always handed back whole.
func (s *DownmixStage) ReleaseBuffer(b *audio.Buffer) {
	if s.upstream == nil {
		panic("mixer: downmix stage has no upstream provider")
	}

	if s.fromCarry > 0 {
		used := min(max(b.FrameCount, 0), s.fromCarry)
		copy(s.carry, s.carry[used*MaxNumChannels:s.carryFrames*MaxNumChannels])
		s.carryFrames -= used
		s.fromCarry = 0
		b.Reset()
		return
	}

	if s.held == nil {
		s.upstream.ReleaseBuffer(b)
		return
	}

	used := min(max(b.FrameCount, 0), s.heldFrames)
	if left := s.heldFrames - used; left > 0 {
		s.reserve(left)
		s.carry = append(s.carry[:0], s.held[used*MaxNumChannels:s.heldFrames*MaxNumChannels]...)
		s.carryFrames = left
	}

	b.Raw = s.held
	b.FrameCount = s.heldFrames
	s.held = nil
	s.heldFrames = 0
	s.upstream.ReleaseBuffer(b)
}

func (s *DownmixStage) close() {
	if err := s.effect.Close(); err != nil {
		logger.Errorf("closing downmix effect: %v", err)
	}
}
