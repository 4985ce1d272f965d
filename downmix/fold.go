// SPDX-License-Identifier: EPL-2.0

package downmix

import (
	"fmt"
	"math/bits"

	"github.com/ik5/audmix/internal/logging"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/utils"
)

var logger = logging.NewLogger("downmix")

const (
	unity = 1 << 12
	// minus3dB is 10^(-3/20) in Q19.12.
	minus3dB = 2896

	minChannels = 3
	maxChannels = mixer.MaxNumChannelsToDownmix
)

// gain is the contribution of one input position to each output side.
type gain struct {
	left, right int32
}

func positionGain(p mixer.ChannelMask) gain {
	switch p {
	case mixer.ChannelFrontLeft, mixer.ChannelBackLeft, mixer.ChannelSideLeft:
		return gain{left: unity}
	case mixer.ChannelFrontRight, mixer.ChannelBackRight, mixer.ChannelSideRight:
		return gain{right: unity}
	default:
		return gain{left: minus3dB, right: minus3dB}
	}
}

// Fold folds a fixed channel layout down to stereo.
type Fold struct {
	mask   mixer.ChannelMask
	gains  []gain
	closed bool
}

// NewFold creates a fold effect for mask.
func NewFold(mask mixer.ChannelMask) (*Fold, error) {
	n := mask.Channels()
	if n < minChannels || n > maxChannels {
		return nil, fmt.Errorf("%w: %#x has %d channels", ErrUnsupportedMask, uint32(mask), n)
	}

	gains := make([]gain, 0, n)
	for m := uint32(mask); m != 0; m &= m - 1 {
		p := mixer.ChannelMask(1) << bits.TrailingZeros32(m)
		gains = append(gains, positionGain(p))
	}

	return &Fold{mask: mask, gains: gains}, nil
}

// Mask returns the input layout.
func (f *Fold) Mask() mixer.ChannelMask { return f.mask }

// Process folds frames frames of buf to stereo in place. The stereo result
// occupies the first 2*frames samples of buf.
func (f *Fold) Process(buf []int16, frames int) error {
	if f.closed {
		return ErrClosed
	}

	n := len(f.gains)
	if len(buf) < frames*n {
		return fmt.Errorf("%w: %d samples for %d frames of %d channels", ErrShortBuffer, len(buf), frames, n)
	}

	// output frame i never overtakes input frame i since n > 2
	for i := range frames {
		in := buf[i*n : i*n+n]

		var lt, rt int32
		for c, g := range f.gains {
			s := int32(in[c])
			lt += s * g.left
			rt += s * g.right
		}

		buf[2*i] = int16(utils.Clamp16(lt >> 13))
		buf[2*i+1] = int16(utils.Clamp16(rt >> 13))
	}

	return nil
}

// Close releases the effect. Further Process calls fail.
func (f *Fold) Close() error {
	f.closed = true
	return nil
}

// NewFactory returns a mixer.DownmixFactory creating Fold effects.
func NewFactory() mixer.DownmixFactory {
	return func(mask mixer.ChannelMask, sessionID int, sampleRate uint32) (mixer.Downmixer, error) {
		f, err := NewFold(mask)
		if err != nil {
			logger.Errorf("session %d: %v", sessionID, err)
			return nil, err
		}

		logger.Debugf("session %d: folding %d channels at %d Hz", sessionID, len(f.gains), sampleRate)

		return f, nil
	}
}
