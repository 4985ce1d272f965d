// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1 Layer III streams with
// github.com/hajimehoshi/go-mp3.
//
// The decoder always produces interleaved stereo 16-bit samples at the
// stream's own sample rate. Feed it to the mixer through an
// audio.SourceProvider and let the track resampler convert the rate:
//
//	src, err := mp3.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	m.SetBufferProvider(name, audio.NewSourceProvider(src, 1152))
//	m.SetSampleRate(name, uint32(src.SampleRate()))
package mp3
