// SPDX-License-Identifier: EPL-2.0

// Package audmix mixes decoded audio streams into one stereo 16-bit stream.
//
// The heavy lifting is done by the mixer package, a block based engine with
// per-track volume ramps, resampling, an auxiliary effects send and
// multichannel downmix. This package wires decoded sources into it for
// offline rendering.
//
// # Supported Formats
//
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM 16-bit) via formats/aiff
//
// # Quick Start
//
//	voice, _ := wav.Decoder{}.Decode(voiceFile)
//	music, _ := mp3.Decoder{}.Decode(musicFile)
//
//	pcm, err := audmix.MixToStereo16([]audmix.Input{
//	    {Source: voice},
//	    {Source: music, Volume: 0x0400}, // -12dB
//	}, audmix.Options{SampleRate: 48000})
//
// Every input is resampled to the output rate and folded to stereo when it
// has more than two channels. Volumes are Q4.12 fixed point, so 0x1000 is
// unity gain.
//
// # Streaming
//
// Render hands each mixed block to a callback instead of collecting the
// whole result, which is what the mixdown command uses to write WAV files
// of any length:
//
//	enc, _ := wav.NewEncoder(out, 48000, 2)
//	err := audmix.Render(inputs, opts, func(main []int16, _ []int32) error {
//	    return enc.Write(main)
//	})
//
// # Working with the mixer directly
//
// Applications that feed audio in real time use mixer.New together with
// their own audio.BufferProvider implementations, and the playback package
// to hand the result to a beep speaker.
package audmix
