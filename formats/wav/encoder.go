// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Encoder streams interleaved 16-bit PCM into a WAV file. The RIFF sizes
// are patched when the encoder is closed, which is why it needs to seek.
type Encoder struct {
	enc      *wav.Encoder
	channels int
	ints     goaudio.IntBuffer
	frames   int
	started  bool
	closed   bool
}

// NewEncoder writes the WAV headers for a 16-bit PCM stream to w.
func NewEncoder(w io.WriteSeeker, sampleRate, channels int) (*Encoder, error) {
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	return &Encoder{
		enc:      wav.NewEncoder(w, sampleRate, 16, channels, pcmFormat),
		channels: channels,
		ints: goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends interleaved samples. len(samples) must hold whole frames.
func (e *Encoder) Write(samples []int16) error {
	if e.closed {
		return ErrEncoderClosed
	}
	if len(samples)%e.channels != 0 {
		return fmt.Errorf("%w: %d samples for %d channels", ErrInvalidSampleCount, len(samples), e.channels)
	}
	if cap(e.ints.Data) < len(samples) {
		e.ints.Data = make([]int, len(samples))
	}
	e.ints.Data = e.ints.Data[:len(samples)]
	for i, s := range samples {
		e.ints.Data[i] = int(s)
	}

	if err := e.enc.Write(&e.ints); err != nil {
		return fmt.Errorf("writing PCM: %w", err)
	}
	e.frames += len(samples) / e.channels
	e.started = true

	return nil
}

// Frames returns the number of frames written so far.
func (e *Encoder) Frames() int { return e.frames }

// Close finalises the headers. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}

	// an empty stream still needs its headers
	if !e.started {
		if err := e.Write(nil); err != nil {
			return err
		}
	}
	e.closed = true

	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("finalising wav: %w", err)
	}

	return nil
}

// WriteWAV16 writes a complete 16-bit PCM WAV holding samples.
func WriteWAV16(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	enc, err := NewEncoder(w, sampleRate, channels)
	if err != nil {
		return err
	}

	if err := enc.Write(samples); err != nil {
		return err
	}

	return enc.Close()
}
