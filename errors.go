// SPDX-License-Identifier: EPL-2.0

package audmix

import "errors"

var (
	ErrNoInputs            = errors.New("no inputs to mix")
	ErrUnsupportedChannels = errors.New("unsupported channel count")
	ErrTooManyInputs       = errors.New("more inputs than mixer tracks")
	ErrInvalidSampleRate   = errors.New("source sample rate must be positive")
	ErrInvalidGain         = errors.New("volume and aux level must not be negative")
)
