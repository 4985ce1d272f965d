// SPDX-License-Identifier: EPL-2.0

// Package playback exposes a mixer's output as a beep.Streamer.
//
// The Streamer renders one mixer block at a time into the stereo main
// buffer shared by the mixer's tracks and hands the frames to beep as
// float samples. It can be played on a speaker or combined with any other
// beep streamer:
//
//	out := make([]int16, 2*m.FrameCount())
//	// attach tracks writing into out ...
//	s, err := playback.NewStreamer(m, out, playback.WithPTS(0))
//	speaker.Play(beep.Take(s.Format().SampleRate.N(10*time.Second), s))
//
// Streamer is not safe for concurrent use; beep calls Stream from a single
// goroutine.
package playback
