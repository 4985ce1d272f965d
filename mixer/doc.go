// SPDX-License-Identifier: EPL-2.0

/*
Package mixer combines up to 32 concurrently playing 16-bit PCM tracks into
stereo output blocks.

Every track pulls its data from an audio.BufferProvider. On the way to the
mix a track may pass through a downmix stage (more than two channels) and a
resampler (source rate differs from the mix rate). Each track carries a
Q4.12 volume per channel, an optional effects-send (aux) level, and can ramp
both linearly over one block.

A Mixer is configured once with a fixed block size and output rate:

	m, err := mixer.New(mixer.Config{FrameCount: 256, SampleRate: 48000})
	if err != nil {
		return err
	}

	name, err := m.TrackName(mixer.ChannelOutStereo, 0)
	if err != nil {
		return err
	}

	out := make([]int16, 2*256)
	m.SetBufferProvider(name, provider)
	if err := m.SetMainBuffer(name, out); err != nil {
		return err
	}
	if err := m.Enable(name); err != nil {
		return err
	}

	m.Process(audio.InvalidPTS)

# Hook selection

Parameter changes do not take effect immediately. They mark the track as
changed, and the next Process call re-derives which mixing routine every
track uses and which routine drives the whole block. The cheapest applicable
routine is then reused until another change arrives:

  - ProcessNop when nothing is enabled or every track is muted
  - ProcessOneTrack16BitsStereoNoResampling for one plain stereo track
  - ProcessGenericNoResampling for several tracks at the mix rate
  - ProcessGenericResampling once any track needs rate conversion

# Concurrency

All methods of Mixer are safe for concurrent use. Process holds the mixer
lock for the whole block, so changes made from a control goroutine become
visible at the next block boundary.
Process itself must not be called from several goroutines at once for the
same output buffers; it is meant to be driven by one playback loop.

# Downmix

Tracks with more than two channels need a downmix capability, supplied as
Config.Downmix. Without one, TrackName and SetChannelMask reject such masks
with ErrDownmixUnavailable. With one, every multichannel track is wrapped in
a DownmixStage that folds each chunk to stereo before mixing.
*/
package mixer
