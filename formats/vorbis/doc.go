// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with
// github.com/jfreymuth/oggvorbis.
//
// Vorbis decodes to floating point; the source converts each value to
// 16-bit PCM with utils.Float32ToInt16, clipping anything outside
// [-1, 1]. Samples are interleaved in the stream's channel order, so a
// six channel file needs a 5.1 channel mask on its mixer track:
//
//	src, _ := vorbis.Decoder{}.Decode(file)
//	name, _ := m.TrackName(mixer.ChannelOut5Point1, 0)
package vorbis
