// SPDX-License-Identifier: EPL-2.0

package resampler

import "errors"

var (
	ErrInvalidChannels = errors.New("resampler supports 1 or 2 input channels")
	ErrInvalidRate     = errors.New("sample rate must be positive")
	ErrUnknownQuality  = errors.New("unknown resampler quality")
)
