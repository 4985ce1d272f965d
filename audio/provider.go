// SPDX-License-Identifier: EPL-2.0

package audio

import "math"

// InvalidPTS marks a presentation timestamp as unknown.
const InvalidPTS int64 = math.MaxInt64

// Buffer describes one chunk of interleaved 16-bit PCM frames.
type Buffer struct {
	// Raw holds FrameCount*channels samples, or nil when no data is available.
	Raw []int16
	// FrameCount is the number of frames requested on input and the number
	// of frames available in Raw on output.
	FrameCount int
}

// Reset drops the reference to the chunk.
func (b *Buffer) Reset() {
	b.Raw = nil
	b.FrameCount = 0
}

// BufferProvider is a pull-based source of PCM chunks.
type BufferProvider interface {
	// GetNextBuffer fills b with up to b.FrameCount frames. pts is the
	// presentation time of the first frame, or InvalidPTS.
	GetNextBuffer(b *Buffer, pts int64) error
	// ReleaseBuffer hands the chunk back and resets b.
	ReleaseBuffer(b *Buffer)
}
