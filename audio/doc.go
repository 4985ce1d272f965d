// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level PCM plumbing shared by the mixer,
// the resamplers and the format decoders.
//
// This package contains:
//   - Buffer and BufferProvider, the pull contract used on the mixing thread
//   - Source interface for decoded 16-bit PCM input
//   - SourceProvider and SliceProvider, BufferProvider implementations
//   - Format registry for decoder registration
//
// # Buffer Providers
//
// A BufferProvider hands out one chunk of interleaved 16-bit frames at a time
// and is told when the chunk has been consumed:
//
//	type BufferProvider interface {
//	    GetNextBuffer(b *Buffer, pts int64) error
//	    ReleaseBuffer(b *Buffer)
//	}
//
// The caller sets b.FrameCount to the number of frames it would like. The
// provider sets b.Raw and b.FrameCount to what it actually has, which may be
// fewer frames. When nothing is available b.Raw is nil, b.FrameCount is 0 and
// the returned error tells why (ErrNotEnoughData for a transient shortage,
// io.EOF at the end of the stream). Every buffer obtained with a non-nil Raw
// must be handed back with ReleaseBuffer before the next GetNextBuffer call.
//
// GetNextBuffer runs on the real-time mixing thread, so implementations must
// not block or perform I/O. SourceProvider reads its Source synchronously and
// is intended for offline rendering (see the mixdown command).
//
// # Sources
//
// Decoders return a Source of interleaved int16 samples:
//
//	src, _ := wav.Decoder{}.Decode(file)
//	provider := audio.NewSourceProvider(src, 1024)
//
// # Format Registry
//
// The registry allows dynamic decoder registration:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, _ := registry.Get("wav")
//
// # Sample Format
//
// Only signed 16-bit PCM is handled. Samples are interleaved, frame by frame,
// so a stereo buffer of n frames holds 2*n values ordered L, R, L, R.
package audio
