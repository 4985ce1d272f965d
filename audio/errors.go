// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	// ErrNotEnoughData is returned by a BufferProvider that has nothing to
	// hand out right now. The caller treats the stream as silent and retries
	// on the next block.
	ErrNotEnoughData = errors.New("not enough data available")

	// ErrBufferHeld is returned when GetNextBuffer is called while the
	// previous buffer was not released yet.
	ErrBufferHeld = errors.New("previous buffer not released")
)
