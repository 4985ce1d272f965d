// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/audmix/audio"
)

const pcmFormat = 1

// pcmReader is the part of wav.Decoder the source reads from.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	ints       goaudio.IntBuffer
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []int16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	if cap(s.ints.Data) < len(dst) {
		s.ints.Data = make([]int, len(dst))
	}
	s.ints.Data = s.ints.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(&s.ints)
	if err != nil {
		return 0, fmt.Errorf("reading PCM: %w", err)
	}
	if n == 0 {
		s.eof = true
		return 0, io.EOF
	}

	for i, v := range s.ints.Data[:n] {
		dst[i] = int16(v)
	}

	return n, nil
}

type Decoder struct{}

// Decode reads the WAV headers and positions r at the PCM data. Readers
// that cannot seek are buffered in memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if dec.WavAudioFormat != pcmFormat || dec.BitDepth != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}

	return &source{
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		ints:       goaudio.IntBuffer{Format: dec.Format(), SourceBitDepth: 16},
	}, nil
}
