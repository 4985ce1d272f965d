// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile            = errors.New("not a WAV file")
	ErrOnlyPCM16bitSupported = errors.New("only PCM 16-bit supported")
	ErrInvalidChannels       = errors.New("channel count must be positive")
	ErrInvalidSampleCount    = errors.New("sample count must be a multiple of channels")
	ErrEncoderClosed         = errors.New("encoder closed")
)
