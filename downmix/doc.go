// SPDX-License-Identifier: EPL-2.0

// Package downmix provides a fold-down effect for multichannel tracks.
//
// Fold converts interleaved frames of up to eight channels to stereo in
// place. Channels are interleaved in ascending bit order of their channel
// mask, which is the order mixer.ChannelMask defines them in. Left
// positions feed the left output, right positions the right output, and
// the remaining positions (center, LFE and back center) feed both sides at
// -3dB. The sum is halved before clamping so a full-scale 5.1 frame does
// not wrap.
//
// The effect is injected into the mixer as its downmix capability:
//
//	m, err := mixer.New(mixer.Config{
//	    FrameCount: 256,
//	    SampleRate: 48000,
//	    Downmix:    downmix.NewFactory(),
//	})
package downmix
