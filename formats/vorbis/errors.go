// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

var (
	ErrNotVorbisFile = errors.New("not an Ogg Vorbis stream")
	ErrShortBuffer   = errors.New("buffer shorter than one frame")
)
