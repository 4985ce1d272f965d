// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	ErrNoFreeTrack        = errors.New("no free track slot")
	ErrDownmixUnavailable = errors.New("no downmix capability for multichannel content")
	ErrDownmixFailed      = errors.New("downmix effect failed")
	ErrInvalidFormat      = errors.New("only 16-bit PCM is supported")
	ErrInvalidConfig      = errors.New("invalid mixer configuration")
	ErrBufferTooSmall     = errors.New("buffer smaller than one block")
)
