// SPDX-License-Identifier: EPL-2.0

package downmix

import "errors"

var (
	// ErrUnsupportedMask is returned for masks with fewer than three or
	// more than eight positions.
	ErrUnsupportedMask = errors.New("unsupported channel mask")

	// ErrShortBuffer is returned when Process is given fewer samples than
	// the frame count requires.
	ErrShortBuffer = errors.New("buffer shorter than frame count")

	ErrClosed = errors.New("downmix effect closed")
)
