// SPDX-License-Identifier: EPL-2.0

// Package resampler converts 16-bit PCM pulled from an audio.BufferProvider
// to a fixed output sample rate.
//
// Three quality tiers are available:
//   - LowQuality: linear interpolation, the cheapest option
//   - MedQuality: Catmull-Rom cubic interpolation
//   - HighQuality: Kaiser-windowed sinc with 8 zero crossings per side
//
// All tiers share the same phase accumulator (30 fractional bits) and the
// same pull logic. Output is always stereo: Resample adds
// sample*volume for each channel into an int32 buffer, where volume is Q4.12
// (0x1000 is unity). Mono input feeds both output channels.
//
//	r, _ := resampler.New(2, 48000, resampler.MedQuality)
//	r.SetSampleRate(44100)
//	r.SetVolume(resampler.UnityGain, resampler.UnityGain)
//	out := make([]int32, 2*frames)
//	r.Resample(out, frames, provider)
//
// A Resampler is not safe for concurrent use.
package resampler
